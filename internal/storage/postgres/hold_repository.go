package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// liveStatuses is domain.LiveReservationStatuses as a text[] parameter, so
// the availability queries and the domain agree on which rows occupy a slot.
var liveStatuses = func() []string {
	out := make([]string, len(domain.LiveReservationStatuses))
	for i, s := range domain.LiveReservationStatuses {
		out[i] = string(s)
	}
	return out
}()

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// InsertHold attempts the constrained write that is the system's one true
// mutual-exclusion primitive. A unique violation on (product_id,
// reserved_date) comes back as domain.ErrSlotHeld; the service decides
// whether the existing owner makes it an idempotent success or a conflict.
func (r *HoldRepository) InsertHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO reservation_holds (product_id, reserved_date, daycare_id, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt,
		hold.ProductID,
		hold.ReservedDate,
		hold.DaycareID,
		hold.CreatedAt,
		hold.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotHeld
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("insert hold: %w", err)
	}
	return nil
}

// FindHold returns the hold occupying a slot regardless of expiry, or nil.
func (r *HoldRepository) FindHold(ctx context.Context, productID string, date time.Time) (*domain.Hold, error) {
	const query = `
SELECT product_id, reserved_date, daycare_id, created_at, expires_at
FROM reservation_holds
WHERE product_id = $1 AND reserved_date = $2`

	var h domain.Hold
	err := r.queryRow(ctx, query, productID, date).
		Scan(&h.ProductID, &h.ReservedDate, &h.DaycareID, &h.CreatedAt, &h.ExpiresAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find hold: %w", err)
	}
	return &h, nil
}

// DeleteHold releases a slot. The predicate always includes the daycare id,
// so no tenant can release another tenant's hold. Deleting nothing is fine.
func (r *HoldRepository) DeleteHold(ctx context.Context, productID string, date time.Time, daycareID string) error {
	const stmt = `
DELETE FROM reservation_holds
WHERE product_id = $1 AND reserved_date = $2 AND daycare_id = $3`

	if _, err := r.exec(ctx, stmt, productID, date, daycareID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) DeleteHoldsForDaycare(ctx context.Context, daycareID string) error {
	const stmt = `DELETE FROM reservation_holds WHERE daycare_id = $1`

	if _, err := r.exec(ctx, stmt, daycareID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete holds for daycare: %w", err)
	}
	return nil
}

// DeleteExpired purges holds whose expiry has passed. Safe to call
// frequently and concurrently.
func (r *HoldRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const stmt = `DELETE FROM reservation_holds WHERE expires_at <= $1`

	tag, err := r.exec(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired holds: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpiredForSlot clears a dead hold blocking one slot, used when an
// insert hits the unique constraint but the occupying row turns out to be
// past its expiry.
func (r *HoldRepository) DeleteExpiredForSlot(ctx context.Context, productID string, date, now time.Time) error {
	const stmt = `
DELETE FROM reservation_holds
WHERE product_id = $1 AND reserved_date = $2 AND expires_at <= $3`

	if _, err := r.exec(ctx, stmt, productID, date, now); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete expired hold for slot: %w", err)
	}
	return nil
}

func (r *HoldRepository) LiveHoldByOtherExists(ctx context.Context, productID string, date time.Time, daycareID string, now time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM reservation_holds
	WHERE product_id = $1 AND reserved_date = $2 AND daycare_id <> $3 AND expires_at > $4
)`

	var exists bool
	if err := r.queryRow(ctx, query, productID, date, daycareID, now).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("live hold by other: %w", err)
	}
	return exists, nil
}

// SlotAvailability is the authoritative pre-payment gate: one statement, so
// the reservation lookup and the hold lookup see the same snapshot. Returns
// the empty string when the slot is free for the given daycare.
func (r *HoldRepository) SlotAvailability(ctx context.Context, productID string, date time.Time, daycareID string, now time.Time) (domain.UnavailableReason, error) {
	const query = `
SELECT CASE
	WHEN EXISTS (
		SELECT 1 FROM reservations
		WHERE product_id = $1 AND reserved_date = $2
			AND status = ANY($5::text[])
	) THEN 'already_reserved'
	WHEN EXISTS (
		SELECT 1 FROM reservation_holds
		WHERE product_id = $1 AND reserved_date = $2
			AND daycare_id <> $3 AND expires_at > $4
	) THEN 'hold_by_other'
	ELSE ''
END`

	var reason string
	if err := r.queryRow(ctx, query, productID, date, daycareID, now, liveStatuses).Scan(&reason); err != nil {
		if isInvalidUUID(err) {
			return "", domain.ErrInvalidID
		}
		return "", fmt.Errorf("slot availability: %w", err)
	}
	return domain.UnavailableReason(reason), nil
}

// UnavailableDates returns dates blocked for the given daycare: any date
// with a live reservation, plus any date held by a different daycare.
func (r *HoldRepository) UnavailableDates(ctx context.Context, productID, daycareID string, now time.Time) ([]time.Time, error) {
	const query = `
SELECT reserved_date FROM reservations
WHERE product_id = $1 AND status = ANY($4::text[])
UNION
SELECT reserved_date FROM reservation_holds
WHERE product_id = $1 AND daycare_id <> $2 AND expires_at > $3
ORDER BY reserved_date`

	rows, err := r.query(ctx, query, productID, daycareID, now, liveStatuses)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("unavailable dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan unavailable date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unavailable dates: %w", err)
	}
	return dates, nil
}

// AvailableProductIDs filters candidates down to products bookable on the
// given date for the given daycare. A nil candidate list means all products.
func (r *HoldRepository) AvailableProductIDs(ctx context.Context, date time.Time, candidateIDs []string, daycareID string, now time.Time) ([]string, error) {
	const query = `
SELECT id FROM products
WHERE is_sold_out = FALSE
	AND ($2::uuid[] IS NULL OR id = ANY($2))
	AND NOT EXISTS (
		SELECT 1 FROM reservations
		WHERE product_id = products.id AND reserved_date = $1
			AND status = ANY($5::text[])
	)
	AND NOT EXISTS (
		SELECT 1 FROM reservation_holds
		WHERE product_id = products.id AND reserved_date = $1
			AND daycare_id <> $3 AND expires_at > $4
	)
ORDER BY id`

	var candidates any
	if candidateIDs != nil {
		candidates = candidateIDs
	}

	rows, err := r.query(ctx, query, date, candidates, daycareID, now, liveStatuses)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("available products: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("available products: %w", err)
	}
	return ids, nil
}

func (r *HoldRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *HoldRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *HoldRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
