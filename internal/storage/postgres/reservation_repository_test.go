package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/domain"
	"github.com/eversky0902-ops/damda-api/internal/testutil"
)

func TestReservationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewReservationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	newReservation := func(productID, id, no string) domain.Reservation {
		now := time.Now().UTC()
		return domain.Reservation{
			ID:               id,
			ReservationNo:    no,
			DaycareID:        daycareA,
			ProductID:        productID,
			VendorID:         vendorA,
			ReservedDate:     date,
			ReservedTime:     "10:00",
			ParticipantCount: 10,
			TotalAmount:      150000,
			Status:           domain.ReservationPaid,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}

	t.Run("CreateReservations then GetByID round trips", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)
		id := testutil.NewUUID(t, ctx, pool)

		res := newReservation(productID, id, "R20250701100000AAAA0001")
		if err := repo.CreateReservations(ctx, []domain.Reservation{res}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ReservationNo != res.ReservationNo || got.DaycareID != daycareA {
			t.Fatalf("unexpected reservation: %+v", got)
		}
		if got.ReservedTime != "10:00" {
			t.Fatalf("expected reserved time kept, got %q", got.ReservedTime)
		}
		if !got.ReservedDate.Equal(date) {
			t.Fatalf("expected date %v, got %v", date, got.ReservedDate)
		}
		if got.Status != domain.ReservationPaid {
			t.Fatalf("expected status paid, got %q", got.Status)
		}
	})

	t.Run("empty reserved time stored as null and read back empty", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)
		id := testutil.NewUUID(t, ctx, pool)

		res := newReservation(productID, id, "R20250701100000AAAA0002")
		res.ReservedTime = ""
		if err := repo.CreateReservations(ctx, []domain.Reservation{res}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ReservedTime != "" {
			t.Fatalf("expected empty reserved time, got %q", got.ReservedTime)
		}
	})

	t.Run("live slot conflict is ErrSlotReserved", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)

		first := newReservation(productID, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0003")
		if err := repo.CreateReservations(ctx, []domain.Reservation{first}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		second := newReservation(productID, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0004")
		second.DaycareID = daycareB
		err := repo.CreateReservations(ctx, []domain.Reservation{second})
		if !errors.Is(err, domain.ErrSlotReserved) {
			t.Fatalf("expected ErrSlotReserved, got %v", err)
		}
	})

	t.Run("cancelled reservation does not block a new one", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)

		cancelled := newReservation(productID, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0005")
		cancelled.Status = domain.ReservationCancelled
		if err := repo.CreateReservations(ctx, []domain.Reservation{cancelled}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		fresh := newReservation(productID, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0006")
		if err := repo.CreateReservations(ctx, []domain.Reservation{fresh}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("batch failure inside WithTx commits nothing", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productA := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)
		productB := testutil.InsertProduct(t, ctx, pool, vendorA, "쿠킹 클래스", 20000, false)

		blocker := newReservation(productB, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0007")
		blocker.DaycareID = daycareB
		if err := repo.CreateReservations(ctx, []domain.Reservation{blocker}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		batch := []domain.Reservation{
			newReservation(productA, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0008"),
			newReservation(productB, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0009"),
		}
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.CreateReservations(txCtx, batch)
		})
		if !errors.Is(err, domain.ErrSlotReserved) {
			t.Fatalf("expected ErrSlotReserved, got %v", err)
		}

		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM reservations WHERE daycare_id = $1", daycareA).Scan(&count); err != nil {
			t.Fatalf("query count: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected rollback, got %d rows", count)
		}
	})

	t.Run("CreatePayments persists payment rows", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)
		resID := testutil.NewUUID(t, ctx, pool)

		res := newReservation(productID, resID, "R20250701100000AAAA0010")
		if err := repo.CreateReservations(ctx, []domain.Reservation{res}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		now := time.Now().UTC()
		payment := domain.Payment{
			ID:            testutil.NewUUID(t, ctx, pool),
			ReservationID: resID,
			Amount:        150000,
			Method:        "card",
			ProviderTID:   "tid-123",
			Status:        domain.PaymentStatusPaid,
			PaidAt:        now,
			CreatedAt:     now,
		}
		if err := repo.CreatePayments(ctx, []domain.Payment{payment}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments WHERE reservation_id = $1", resID).Scan(&count); err != nil {
			t.Fatalf("query count: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected payment persisted, got count %d", count)
		}
	})

	t.Run("ListByDaycare returns only that daycare newest first", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productA := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)
		productB := testutil.InsertProduct(t, ctx, pool, vendorA, "쿠킹 클래스", 20000, false)

		older := newReservation(productA, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0011")
		older.CreatedAt = older.CreatedAt.Add(-time.Hour)
		older.UpdatedAt = older.CreatedAt
		newer := newReservation(productB, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0012")
		foreign := newReservation(productA, testutil.NewUUID(t, ctx, pool), "R20250701100000AAAA0013")
		foreign.DaycareID = daycareB
		foreign.ReservedDate = date.AddDate(0, 0, 1)

		if err := repo.CreateReservations(ctx, []domain.Reservation{older, newer, foreign}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out, err := repo.ListByDaycare(ctx, daycareA)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("expected 2 reservations, got %d", len(out))
		}
		if out[0].ReservationNo != newer.ReservationNo {
			t.Fatalf("expected newest first, got %q", out[0].ReservationNo)
		}
	})

	t.Run("UpdateStatus writes status and cancel reason", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)
		id := testutil.NewUUID(t, ctx, pool)

		res := newReservation(productID, id, "R20250701100000AAAA0014")
		if err := repo.CreateReservations(ctx, []domain.Reservation{res}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		now := time.Now().UTC()
		if err := repo.UpdateStatus(ctx, id, domain.ReservationPaid, domain.ReservationCancelled, "현장학습 취소", now); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Status != domain.ReservationCancelled || got.CancelReason != "현장학습 취소" {
			t.Fatalf("unexpected reservation: %+v", got)
		}

		missing := "00000000-0000-0000-0000-000000000001"
		if err := repo.UpdateStatus(ctx, missing, domain.ReservationPaid, domain.ReservationConfirmed, "", now); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})

	t.Run("UpdateStatus refuses a write when the row already moved on", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID := testutil.InsertProduct(t, ctx, pool, vendorA, "숲 체험", 15000, false)
		id := testutil.NewUUID(t, ctx, pool)

		res := newReservation(productID, id, "R20250701100000AAAA0015")
		if err := repo.CreateReservations(ctx, []domain.Reservation{res}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		now := time.Now().UTC()
		if err := repo.UpdateStatus(ctx, id, domain.ReservationPaid, domain.ReservationCancelled, "", now); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// A second writer still holding the paid snapshot must lose.
		err := repo.UpdateStatus(ctx, id, domain.ReservationPaid, domain.ReservationConfirmed, "", now)
		if !errors.Is(err, domain.ErrInvalidStatusChange) {
			t.Fatalf("expected ErrInvalidStatusChange, got %v", err)
		}

		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Status != domain.ReservationCancelled {
			t.Fatalf("expected cancelled to stand, got %q", got.Status)
		}
	})
}
