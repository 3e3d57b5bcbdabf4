// GreatK Platform | 2026
// entity.go

package order

import (
	"time"
)

const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
)

// Order is an immutable purchase record. The amount is a snapshot of
// the video price at creation time; later catalog changes never touch
// it. Orders are never deleted.
type Order struct {
	OrderID      string    `db:"order_id"`
	UserID       string    `db:"user_id"`
	VideoID      string    `db:"video_id"`
	Amount       float64   `db:"amount"`
	Status       string    `db:"status"`
	ReferrerID   *string   `db:"referrer_id"`
	ReferralPaid bool      `db:"referral_paid"`
	CreatedAt    time.Time `db:"created_at"`
}

func (o *Order) IsPaid() bool {
	return o.Status == StatusPaid
}

func (o *Order) HasReferrer() bool {
	return o.ReferrerID != nil && *o.ReferrerID != ""
}
