package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSlotHeld            = errors.New("slot held by another daycare")
	ErrSlotReserved        = errors.New("slot already reserved")
	ErrProductNotFound     = errors.New("product not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidDate         = errors.New("invalid reservation date")
	ErrInvalidParticipants = errors.New("invalid participant count")
	ErrEmptyCart           = errors.New("no cart lines")
	ErrDaycareIDRequired   = errors.New("daycare id required")
	ErrInvalidStatusChange = errors.New("invalid reservation status change")
	ErrProductNameRequired = errors.New("product name required")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidID           = errors.New("invalid id")
)

// SlotError ties a failure to the slot that caused it, so a multi-line
// checkout can tell the user which line to fix.
type SlotError struct {
	ProductID    string
	ReservedDate time.Time
	Err          error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %s on %s: %v", e.ProductID, e.ReservedDate.Format(time.DateOnly), e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}
