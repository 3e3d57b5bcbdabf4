// GreatK Platform | 2026
// dto.go

package referral

// Detail is one row of the admin payout report: a paid referred order
// with the referrer's contact and share.
type Detail struct {
	OrderID       string  `db:"order_id"       json:"order_id"`
	Amount        float64 `db:"amount"         json:"amount"`
	ReferralPaid  bool    `db:"referral_paid"  json:"referral_paid"`
	ReferrerName  string  `db:"referrer_name"  json:"referrer_name"`
	ReferrerEmail string  `db:"referrer_email" json:"referrer_email"`
	ReferrerUPI   string  `db:"referrer_upi"   json:"referrer_upi"`
	ReferredName  string  `db:"referred_name"  json:"referred_name"`
	ReferredEmail string  `db:"referred_email" json:"referred_email"`
	Subscribed    bool    `db:"subscribed"     json:"subscribed"`

	// ReferrerShare is computed, not stored.
	ReferrerShare float64 `db:"-" json:"referrer_share"`
}

type DetailsResponse struct {
	Referrals []Detail `json:"referrals"`
}
