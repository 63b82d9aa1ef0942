package domain

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationPaid      ReservationStatus = "paid"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationRefunded  ReservationStatus = "refunded"
)

// LiveReservationStatuses are the statuses that occupy a slot. A cancelled
// or refunded reservation frees its (product, date) pair.
var LiveReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationPaid,
	ReservationConfirmed,
}

// Terminal reports whether the status admits no further transitions.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled || s == ReservationRefunded
}

// Reservation is the durable record of a completed booking.
type Reservation struct {
	ID               string
	ReservationNo    string
	DaycareID        string
	ProductID        string
	VendorID         string
	ReservedDate     time.Time
	ReservedTime     string // "HH:MM", empty when the program has no fixed time
	ParticipantCount int
	TotalAmount      int
	Status           ReservationStatus
	CancelReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Payment records the approved payment backing a reservation. Written as a
// side effect of commit; a missing payment row is a bookkeeping gap, not a
// reason to void the reservation.
type Payment struct {
	ID            string
	ReservationID string
	Amount        int
	Method        string
	ProviderTID   string
	Status        string
	PaidAt        time.Time
	CreatedAt     time.Time
}

const PaymentStatusPaid = "paid"
