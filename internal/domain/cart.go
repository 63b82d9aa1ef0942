package domain

import "time"

// CartLine is one candidate purchase fed into the availability check. Lines
// come from the client-side cart, which is an external collaborator; nothing
// here is trusted beyond identifying the slot being asked about.
type CartLine struct {
	ProductID        string
	ProductName      string
	ReservedDate     time.Time
	ReservedTime     string // "HH:MM", optional
	ParticipantCount int
}

// UnavailableReason classifies why a cart line cannot be purchased.
type UnavailableReason string

const (
	ReasonTimePassed      UnavailableReason = "time_passed"
	ReasonSoldOut         UnavailableReason = "sold_out"
	ReasonAlreadyReserved UnavailableReason = "already_reserved"
	ReasonHoldByOther     UnavailableReason = "hold_by_other"
)

// UnavailableLine pairs a cart line with the first reason it failed.
type UnavailableLine struct {
	ProductID    string
	ProductName  string
	ReservedDate time.Time
	Reason       UnavailableReason
}
