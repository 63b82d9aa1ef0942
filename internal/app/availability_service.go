package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/clock"
	"github.com/eversky0902-ops/damda-api/internal/domain"
)

type AvailabilityRepository interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	SlotAvailability(ctx context.Context, productID string, date time.Time, daycareID string, now time.Time) (domain.UnavailableReason, error)
}

// AvailabilityService classifies cart lines as purchasable or not before
// payment starts. Purely read-only and advisory: a line that passes here can
// still lose the race at hold-acquisition time.
type AvailabilityService struct {
	repo  AvailabilityRepository
	clock clock.Clock
}

func NewAvailabilityService(repo AvailabilityRepository, clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{
		repo:  repo,
		clock: clk,
	}
}

// CheckCart returns the lines that can no longer be purchased, each with the
// first matching reason in order: time_passed, sold_out, already_reserved,
// hold_by_other. Lines absent from the result are available.
func (s *AvailabilityService) CheckCart(ctx context.Context, daycareID string, lines []domain.CartLine) ([]domain.UnavailableLine, error) {
	if daycareID == "" {
		return nil, domain.ErrDaycareIDRequired
	}

	now := s.clock.Now()
	var unavailable []domain.UnavailableLine

	for _, line := range lines {
		reason, err := s.classify(ctx, daycareID, line, now)
		if err != nil {
			return nil, err
		}
		if reason == "" {
			continue
		}
		unavailable = append(unavailable, domain.UnavailableLine{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			ReservedDate: domain.DateOnly(line.ReservedDate),
			Reason:       reason,
		})
	}
	return unavailable, nil
}

func (s *AvailabilityService) classify(ctx context.Context, daycareID string, line domain.CartLine, now time.Time) (domain.UnavailableReason, error) {
	if slotTimePassed(line.ReservedDate, line.ReservedTime, now) {
		return domain.ReasonTimePassed, nil
	}

	product, err := s.repo.GetProduct(ctx, line.ProductID)
	if err != nil {
		return "", fmt.Errorf("check product %s: %w", line.ProductID, err)
	}
	if product.IsSoldOut {
		return domain.ReasonSoldOut, nil
	}

	// One statement, so reservation and hold state are read from the same
	// snapshot instead of two racing lookups.
	reason, err := s.repo.SlotAvailability(ctx, line.ProductID, domain.DateOnly(line.ReservedDate), daycareID, now)
	if err != nil {
		return "", fmt.Errorf("check slot %s: %w", line.ProductID, err)
	}
	return reason, nil
}

// slotTimePassed reports whether the slot is in the past: a date before
// today, or today with a start time ("HH:MM") that has already elapsed.
func slotTimePassed(reservedDate time.Time, reservedTime string, now time.Time) bool {
	date := domain.DateOnly(reservedDate)
	today := domain.DateOnly(now)

	if date.Before(today) {
		return true
	}
	if !date.Equal(today) || reservedTime == "" {
		return false
	}

	hour, minute, ok := parseClockTime(reservedTime)
	if !ok {
		return false
	}
	return hour < now.Hour() || (hour == now.Hour() && minute < now.Minute())
}

func parseClockTime(v string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(v, ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
