// GreatK Platform | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	Name         string     `db:"name"`
	Age          int        `db:"age"`
	Gender       string     `db:"gender"`
	Address      string     `db:"address"`
	PasswordHash *string    `db:"password_hash"`
	Verified     bool       `db:"verified"`
	OTPHash      *string    `db:"otp_hash"`
	OTPExpiresAt *time.Time `db:"otp_expires_at"`
	Role         string     `db:"role"`
	TokenVersion int        `db:"token_version"`
	ReferralCode string     `db:"referral_code"`
	ReferredBy   *string    `db:"referred_by"`
	UPIAddress   *string    `db:"upi_address"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasValidOTP reports whether otp matches the stored hash and has not
// expired. The stored value is a sha256 hash, never the raw code.
func (u *User) HasValidOTP(otp string, hashFn func(string) string, now time.Time) bool {
	if u.OTPHash == nil || u.OTPExpiresAt == nil {
		return false
	}
	if now.After(*u.OTPExpiresAt) {
		return false
	}
	return hashFn(otp) == *u.OTPHash
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)
