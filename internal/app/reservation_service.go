package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/clock"
	"github.com/eversky0902-ops/damda-api/internal/domain"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateReservations(ctx context.Context, reservations []domain.Reservation) error
	CreatePayments(ctx context.Context, payments []domain.Payment) error
	GetByID(ctx context.Context, id string) (domain.Reservation, error)
	ListByDaycare(ctx context.Context, daycareID string) ([]domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus, cancelReason string, now time.Time) error
}

type ProductReader interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// ReservationService converts paid cart lines into durable reservation and
// payment rows. It never touches holds; the checkout orchestrator releases
// those after this service reports success.
type ReservationService struct {
	repo     ReservationRepository
	products ProductReader
	clock    clock.Clock
	logger   *log.Logger
}

func NewReservationService(repo ReservationRepository, products ProductReader, clk clock.Clock, logger *log.Logger) *ReservationService {
	if logger == nil {
		logger = log.Default()
	}
	return &ReservationService{
		repo:     repo,
		products: products,
		clock:    clk,
		logger:   logger,
	}
}

type ReservationItem struct {
	ProductID        string
	ReservedDate     time.Time
	ReservedTime     string
	ParticipantCount int
}

type CreateReservationsInput struct {
	Items         []ReservationItem
	PaymentMethod string
	PaymentTID    string
}

type CreateReservationsResult struct {
	OrderNo       string
	ReservationID string
}

// Create inserts one reservation per item inside a single transaction, then
// records the payment rows. The vendor id always comes from the stored
// product, never from the caller. Payment bookkeeping failure is logged and
// reconciled out of band; the reservations stand regardless.
func (s *ReservationService) Create(ctx context.Context, daycareID string, in CreateReservationsInput) (CreateReservationsResult, error) {
	if daycareID == "" {
		return CreateReservationsResult{}, domain.ErrDaycareIDRequired
	}
	if len(in.Items) == 0 {
		return CreateReservationsResult{}, domain.ErrEmptyCart
	}

	now := s.clock.Now()
	reservations := make([]domain.Reservation, 0, len(in.Items))
	for _, item := range in.Items {
		if item.ParticipantCount <= 0 {
			return CreateReservationsResult{}, domain.ErrInvalidParticipants
		}
		if item.ReservedDate.IsZero() {
			return CreateReservationsResult{}, domain.ErrInvalidDate
		}

		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return CreateReservationsResult{}, fmt.Errorf("resolve product %s: %w", item.ProductID, err)
		}

		reservations = append(reservations, domain.Reservation{
			ID:               newID(),
			ReservationNo:    newReservationNo(now),
			DaycareID:        daycareID,
			ProductID:        product.ID,
			VendorID:         product.VendorID,
			ReservedDate:     domain.DateOnly(item.ReservedDate),
			ReservedTime:     item.ReservedTime,
			ParticipantCount: item.ParticipantCount,
			TotalAmount:      product.Price * item.ParticipantCount,
			Status:           domain.ReservationPaid,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateReservations(txCtx, reservations)
	})
	if err != nil {
		return CreateReservationsResult{}, err
	}

	payments := make([]domain.Payment, 0, len(reservations))
	for _, res := range reservations {
		payments = append(payments, domain.Payment{
			ID:            newID(),
			ReservationID: res.ID,
			Amount:        res.TotalAmount,
			Method:        in.PaymentMethod,
			ProviderTID:   in.PaymentTID,
			Status:        domain.PaymentStatusPaid,
			PaidAt:        now,
			CreatedAt:     now,
		})
	}
	if err := s.repo.CreatePayments(ctx, payments); err != nil {
		// The reservation is authoritative once written; a missing payment
		// row is reconciled against the provider ledger later.
		s.logger.Printf("ERROR: payment rows for order %s not recorded (tid=%s): %v",
			reservations[0].ReservationNo, in.PaymentTID, err)
	}

	return CreateReservationsResult{
		OrderNo:       reservations[0].ReservationNo,
		ReservationID: reservations[0].ID,
	}, nil
}

func (s *ReservationService) Get(ctx context.Context, daycareID, id string) (domain.Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if res.DaycareID != daycareID {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (s *ReservationService) ListForDaycare(ctx context.Context, daycareID string) ([]domain.Reservation, error) {
	if daycareID == "" {
		return nil, domain.ErrDaycareIDRequired
	}
	return s.repo.ListByDaycare(ctx, daycareID)
}

// UpdateStatus advances the externally driven workflow (vendor confirms,
// completes, cancels or refunds). Terminal reservations stay terminal. Only
// the owning daycare may change a reservation; anyone else sees it as
// missing. The write is conditional on the status the validation saw, so a
// concurrent change makes the stale request fail instead of overwriting.
func (s *ReservationService) UpdateStatus(ctx context.Context, daycareID, id string, status domain.ReservationStatus, cancelReason string) error {
	if daycareID == "" {
		return domain.ErrDaycareIDRequired
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.DaycareID != daycareID {
		return domain.ErrReservationNotFound
	}
	if !validStatusChange(current.Status, status) {
		return domain.ErrInvalidStatusChange
	}
	return s.repo.UpdateStatus(ctx, id, current.Status, status, cancelReason, s.clock.Now())
}

func validStatusChange(from, to domain.ReservationStatus) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case domain.ReservationPaid:
		return from == domain.ReservationPending
	case domain.ReservationConfirmed:
		return from == domain.ReservationPending || from == domain.ReservationPaid
	case domain.ReservationCompleted:
		return from == domain.ReservationConfirmed
	case domain.ReservationCancelled:
		return true
	case domain.ReservationRefunded:
		return from == domain.ReservationPaid || from == domain.ReservationConfirmed
	default:
		return false
	}
}
