package domain

import "time"

// HoldTTL is how long a hold keeps a slot exclusive while the owning
// daycare completes payment.
const HoldTTL = 10 * time.Minute

// Slot is the unit of contention: one product on one reservation date.
type Slot struct {
	ProductID    string
	ReservedDate time.Time // date-only, midnight UTC
}

// Hold is a temporary exclusive claim on a slot. At most one live
// (non-expired) hold may exist per slot; the store enforces this with a
// uniqueness constraint on (product_id, reserved_date).
type Hold struct {
	ProductID    string
	ReservedDate time.Time
	DaycareID    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Live reports whether the hold still occupies its slot at the given instant.
func (h Hold) Live(now time.Time) bool {
	return h.ExpiresAt.After(now)
}

// DateOnly truncates t to midnight UTC, the granularity slots are keyed at.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
