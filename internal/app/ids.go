package app

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// newReservationNo builds the customer-facing reservation number. The
// timestamp keeps it human-sortable; the UUID-derived suffix makes
// collisions between same-second checkouts practically impossible, and the
// store still enforces uniqueness outright.
func newReservationNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "R" + now.Format("20060102150405") + suffix
}
