package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/clock"
	"github.com/eversky0902-ops/damda-api/internal/domain"
)

type HoldRepository interface {
	InsertHold(ctx context.Context, hold domain.Hold) error
	FindHold(ctx context.Context, productID string, date time.Time) (*domain.Hold, error)
	DeleteHold(ctx context.Context, productID string, date time.Time, daycareID string) error
	DeleteHoldsForDaycare(ctx context.Context, daycareID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredForSlot(ctx context.Context, productID string, date, now time.Time) error
	LiveHoldByOtherExists(ctx context.Context, productID string, date time.Time, daycareID string, now time.Time) (bool, error)
	UnavailableDates(ctx context.Context, productID, daycareID string, now time.Time) ([]time.Time, error)
	AvailableProductIDs(ctx context.Context, date time.Time, candidateIDs []string, daycareID string, now time.Time) ([]string, error)
}

// HoldService guards (product, date) slots with short-lived exclusive holds
// so two daycares cannot both reach payment for the same slot. The only
// hard guarantee is the store's uniqueness constraint checked at insert
// time; everything else here is advisory.
type HoldService struct {
	repo    HoldRepository
	clock   clock.Clock
	logger  *log.Logger
	holdTTL time.Duration
}

func NewHoldService(repo HoldRepository, clk clock.Clock, logger *log.Logger, opts ...HoldServiceOption) *HoldService {
	if logger == nil {
		logger = log.Default()
	}
	svc := &HoldService{
		repo:    repo,
		clock:   clk,
		logger:  logger,
		holdTTL: domain.HoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// AcquireHold claims a slot for the daycare. Calling it again for a slot the
// same daycare already holds succeeds and returns the existing hold; a live
// hold by a different daycare is reported as domain.ErrSlotHeld.
func (s *HoldService) AcquireHold(ctx context.Context, daycareID string, slot domain.Slot) (domain.Hold, error) {
	hold, _, err := s.acquireHold(ctx, daycareID, slot)
	return hold, err
}

// acquireHold additionally reports whether the call inserted a new row, so
// batch rollback can distinguish holds it created from holds the daycare
// already owned.
func (s *HoldService) acquireHold(ctx context.Context, daycareID string, slot domain.Slot) (domain.Hold, bool, error) {
	if daycareID == "" {
		return domain.Hold{}, false, domain.ErrDaycareIDRequired
	}
	if slot.ProductID == "" || slot.ReservedDate.IsZero() {
		return domain.Hold{}, false, domain.ErrInvalidDate
	}

	now := s.clock.Now()
	s.cleanupExpired(ctx, now)

	hold := domain.Hold{
		ProductID:    slot.ProductID,
		ReservedDate: domain.DateOnly(slot.ReservedDate),
		DaycareID:    daycareID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.holdTTL),
	}

	err := s.repo.InsertHold(ctx, hold)
	if err == nil {
		return hold, true, nil
	}
	if !errors.Is(err, domain.ErrSlotHeld) {
		return domain.Hold{}, false, err
	}

	// The constraint fired. Find out who owns the slot.
	existing, err := s.repo.FindHold(ctx, hold.ProductID, hold.ReservedDate)
	if err != nil {
		return domain.Hold{}, false, err
	}
	if existing != nil && existing.Live(now) {
		if existing.DaycareID == daycareID {
			return *existing, false, nil
		}
		return domain.Hold{}, false, domain.ErrSlotHeld
	}

	// The blocking row is expired (or already gone): clear it and retry the
	// insert once. A second constraint hit means a competitor won the slot.
	if err := s.repo.DeleteExpiredForSlot(ctx, hold.ProductID, hold.ReservedDate, now); err != nil {
		return domain.Hold{}, false, err
	}
	if err := s.repo.InsertHold(ctx, hold); err != nil {
		return domain.Hold{}, false, err
	}
	return hold, true, nil
}

// AcquireHolds claims slots in order, stopping at the first failure. Holds
// this batch inserted are released before the error is returned, so a failed
// multi-line checkout leaves nothing new behind; holds the daycare already
// owned going in survive the rollback.
func (s *HoldService) AcquireHolds(ctx context.Context, daycareID string, slots []domain.Slot) ([]domain.Hold, error) {
	if len(slots) == 0 {
		return nil, domain.ErrEmptyCart
	}

	acquired := make([]domain.Hold, 0, len(slots))
	var inserted []domain.Hold
	for _, slot := range slots {
		hold, created, err := s.acquireHold(ctx, daycareID, slot)
		if err != nil {
			s.releaseAcquired(ctx, daycareID, inserted)
			return nil, &domain.SlotError{
				ProductID:    slot.ProductID,
				ReservedDate: domain.DateOnly(slot.ReservedDate),
				Err:          err,
			}
		}
		acquired = append(acquired, hold)
		if created {
			inserted = append(inserted, hold)
		}
	}
	return acquired, nil
}

func (s *HoldService) releaseAcquired(ctx context.Context, daycareID string, holds []domain.Hold) {
	for _, h := range holds {
		if err := s.repo.DeleteHold(ctx, h.ProductID, h.ReservedDate, daycareID); err != nil {
			s.logger.Printf("WARN: rollback release of hold product=%s date=%s failed: %v",
				h.ProductID, h.ReservedDate.Format(time.DateOnly), err)
		}
	}
}

// ReleaseHold drops the daycare's own hold on a slot. Releasing a slot the
// daycare does not hold is a no-op.
func (s *HoldService) ReleaseHold(ctx context.Context, daycareID string, slot domain.Slot) error {
	if daycareID == "" {
		return domain.ErrDaycareIDRequired
	}
	return s.repo.DeleteHold(ctx, slot.ProductID, domain.DateOnly(slot.ReservedDate), daycareID)
}

func (s *HoldService) ReleaseHolds(ctx context.Context, daycareID string, slots []domain.Slot) error {
	for _, slot := range slots {
		if err := s.ReleaseHold(ctx, daycareID, slot); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAllForDaycare drops every hold the daycare owns, used when a cart
// is abandoned or cleared on logout.
func (s *HoldService) ReleaseAllForDaycare(ctx context.Context, daycareID string) error {
	if daycareID == "" {
		return domain.ErrDaycareIDRequired
	}
	return s.repo.DeleteHoldsForDaycare(ctx, daycareID)
}

// HeldByOther reports whether a different daycare currently holds the slot.
// UI signaling only; the insert constraint remains the source of truth.
func (s *HoldService) HeldByOther(ctx context.Context, daycareID string, slot domain.Slot) (bool, error) {
	if daycareID == "" {
		return false, domain.ErrDaycareIDRequired
	}
	now := s.clock.Now()
	s.cleanupExpired(ctx, now)
	return s.repo.LiveHoldByOtherExists(ctx, slot.ProductID, domain.DateOnly(slot.ReservedDate), daycareID, now)
}

// UnavailableDates lists dates the daycare cannot book for a product:
// dates with a live reservation plus dates held by a different daycare.
func (s *HoldService) UnavailableDates(ctx context.Context, daycareID, productID string) ([]time.Time, error) {
	if daycareID == "" {
		return nil, domain.ErrDaycareIDRequired
	}
	now := s.clock.Now()
	s.cleanupExpired(ctx, now)
	return s.repo.UnavailableDates(ctx, productID, daycareID, now)
}

// AvailableProductIDs filters candidates down to products the daycare can
// still book on the given date. Nil candidates means all products.
func (s *HoldService) AvailableProductIDs(ctx context.Context, daycareID string, date time.Time, candidateIDs []string) ([]string, error) {
	if daycareID == "" {
		return nil, domain.ErrDaycareIDRequired
	}
	return s.repo.AvailableProductIDs(ctx, domain.DateOnly(date), candidateIDs, daycareID, s.clock.Now())
}

// cleanupExpired is the opportunistic purge that runs ahead of writes and
// contention-sensitive reads. Best effort: correctness does not depend on
// it, so failures are only logged.
func (s *HoldService) cleanupExpired(ctx context.Context, now time.Time) {
	if _, err := s.repo.DeleteExpired(ctx, now); err != nil {
		s.logger.Printf("WARN: expired hold cleanup failed: %v", err)
	}
}

// RunExpirySweep deletes expired holds on a fixed interval until the
// context is cancelled, so dead rows do not pile up under low traffic.
func (s *HoldService) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Printf("hold expiry sweep started, interval %s", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("hold expiry sweep stopped")
			return
		case <-ticker.C:
			deleted, err := s.repo.DeleteExpired(ctx, s.clock.Now())
			if err != nil {
				s.logger.Printf("WARN: expiry sweep failed: %v", err)
				continue
			}
			if deleted > 0 {
				s.logger.Printf("expiry sweep deleted %d holds", deleted)
			}
		}
	}
}
