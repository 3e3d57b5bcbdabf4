// GreatK Platform | 2026
// dto.go

package auth

import (
	"time"
)

type SignupRequest struct {
	Name         string  `json:"name"          validate:"required,min=1,max=100"`
	Age          int     `json:"age"           validate:"required,gte=13,lte=120"`
	Gender       string  `json:"gender"        validate:"required,oneof=male female other"`
	Address      string  `json:"address"       validate:"required,max=500"`
	Email        string  `json:"email"         validate:"required,email,max=255"`
	ReferralCode *string `json:"referral_code" validate:"omitempty,len=6,hexadecimal"`
}

type SignupResponse struct {
	AlreadyRegistered bool   `json:"already_registered,omitempty"`
	Message           string `json:"message"`
}

type VerifyRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	OTP      string `json:"otp"      validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128"`
}
