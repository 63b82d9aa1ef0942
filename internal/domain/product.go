package domain

import "time"

// Product is a bookable experience program offered by a vendor.
type Product struct {
	ID        string
	VendorID  string
	Name      string
	Price     int // per participant, KRW
	IsSoldOut bool
	CreatedAt time.Time
}
