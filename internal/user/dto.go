// GreatK Platform | 2026
// dto.go

package user

import (
	"time"
)

type AddUPIRequest struct {
	UPIAddress string `json:"upi_address" validate:"required,min=3,max=255"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	Address      string    `json:"address"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	ReferralCode string    `json:"referral_code"`
	UPIAddress   string    `json:"upi_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ReferralCodeResponse struct {
	ReferralCode string `json:"referral_code"`
	UPIAddress   string `json:"upi_address"`
}

type PurchasedVideosResponse struct {
	VideoIDs []string `json:"video_ids"`
}

type ListUsersParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Age:          u.Age,
		Gender:       u.Gender,
		Address:      u.Address,
		Role:         u.Role,
		Verified:     u.Verified,
		ReferralCode: u.ReferralCode,
		CreatedAt:    u.CreatedAt,
	}
	if u.UPIAddress != nil {
		resp.UPIAddress = *u.UPIAddress
	}
	return resp
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
