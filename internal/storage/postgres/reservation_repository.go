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

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// CreateReservations inserts every row or none; callers wrap it in WithTx
// when combining with other writes. A unique violation means a live
// reservation already occupies one of the slots.
func (r *ReservationRepository) CreateReservations(ctx context.Context, reservations []domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (
	id, reservation_no, daycare_id, product_id, vendor_id,
	reserved_date, reserved_time, participant_count, total_amount,
	status, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12)`

	for _, res := range reservations {
		_, err := r.exec(ctx, stmt,
			res.ID,
			res.ReservationNo,
			res.DaycareID,
			res.ProductID,
			res.VendorID,
			res.ReservedDate,
			res.ReservedTime,
			res.ParticipantCount,
			res.TotalAmount,
			res.Status,
			res.CreatedAt,
			res.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrSlotReserved
			}
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("create reservation %s: %w", res.ReservationNo, err)
		}
	}
	return nil
}

func (r *ReservationRepository) CreatePayments(ctx context.Context, payments []domain.Payment) error {
	const stmt = `
INSERT INTO payments (id, reservation_id, amount, method, provider_tid, status, paid_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, p := range payments {
		_, err := r.exec(ctx, stmt,
			p.ID,
			p.ReservationID,
			p.Amount,
			p.Method,
			p.ProviderTID,
			p.Status,
			p.PaidAt,
			p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("create payment for reservation %s: %w", p.ReservationID, err)
		}
	}
	return nil
}

const reservationColumns = `
id, reservation_no, daycare_id, product_id, vendor_id,
reserved_date, COALESCE(reserved_time, ''), participant_count, total_amount,
status, COALESCE(cancel_reason, ''), created_at, updated_at`

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) ListByDaycare(ctx context.Context, daycareID string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE daycare_id = $1 ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, daycareID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// UpdateStatus writes the new status only while the row is still in the
// status the caller validated against. Zero rows affected means either the
// reservation is gone or a concurrent writer changed it first; the stale
// request is rejected rather than applied.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus, cancelReason string, now time.Time) error {
	const stmt = `
UPDATE reservations
SET status = $3, cancel_reason = NULLIF($4, ''), updated_at = $5
WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, id, from, to, cancelReason, now)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("update reservation status: %w", err)
		}
		if !exists {
			return domain.ErrReservationNotFound
		}
		return domain.ErrInvalidStatusChange
	}
	return nil
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID,
		&res.ReservationNo,
		&res.DaycareID,
		&res.ProductID,
		&res.VendorID,
		&res.ReservedDate,
		&res.ReservedTime,
		&res.ParticipantCount,
		&res.TotalAmount,
		&res.Status,
		&res.CancelReason,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	return res, err
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
