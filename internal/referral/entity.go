// GreatK Platform | 2026
// entity.go

package referral

import (
	"time"
)

// Referral links a referred account to the referrer who owns the code
// used at sign-up. Subscribed flips once the referred user completes a
// paid purchase.
type Referral struct {
	ID             string    `db:"id"`
	ReferrerID     string    `db:"referrer_id"`
	ReferredUserID string    `db:"referred_user_id"`
	Subscribed     bool      `db:"subscribed"`
	CreatedAt      time.Time `db:"created_at"`
}
