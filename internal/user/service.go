// GreatK Platform | 2026
// service.go

package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greatk-dev/greatk-api/internal/auth"
	"github.com/greatk-dev/greatk-api/internal/core"
)

const referralCodeBytes = 3 // 6 hex characters

// UPIValidator checks a virtual payment address against an external
// verification service before it is stored for payouts.
type UPIValidator interface {
	ValidateVPA(ctx context.Context, vpa string) (bool, error)
}

type Service struct {
	repo         Repository
	upiValidator UPIValidator
}

func NewService(repo Repository, upiValidator UPIValidator) *Service {
	return &Service{repo: repo, upiValidator: upiValidator}
}

// CreateUnverified registers a sign-up: no password yet, a fresh unique
// referral code, and the pending OTP that the caller has already mailed.
func (s *Service) CreateUnverified(
	ctx context.Context,
	params auth.CreateUserParams,
	otpHash string,
	otpExpiresAt time.Time,
) (*auth.UserInfo, error) {
	code, err := s.generateReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(params.Email),
		Name:         params.Name,
		Age:          params.Age,
		Gender:       strings.ToLower(params.Gender),
		Address:      params.Address,
		OTPHash:      &otpHash,
		OTPExpiresAt: &otpExpiresAt,
		Role:         RoleUser,
		ReferralCode: code,
		ReferredBy:   params.ReferredBy,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) generateReferralCode(ctx context.Context) (string, error) {
	for {
		buf := make([]byte, referralCodeBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		code := hex.EncodeToString(buf)

		exists, err := s.repo.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) GetByReferralCode(
	ctx context.Context,
	code string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) SetOTP(
	ctx context.Context,
	userID, otpHash string,
	expiresAt time.Time,
	clearPassword bool,
) error {
	return s.repo.SetOTP(ctx, userID, otpHash, expiresAt, clearPassword)
}

// CheckOTP validates the submitted passcode against the stored hash and
// expiry for the given user.
func (s *Service) CheckOTP(ctx context.Context, userID, otp string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if u.OTPHash == nil || core.HashToken(otp) != *u.OTPHash {
		return fmt.Errorf("check otp: %w", core.ErrInvalidInput)
	}

	if u.OTPExpiresAt == nil || time.Now().After(*u.OTPExpiresAt) {
		return fmt.Errorf("check otp: %w", core.ErrTokenExpired)
	}

	return nil
}

func (s *Service) Verify(ctx context.Context, userID, passwordHash string) error {
	return s.repo.Verify(ctx, userID, passwordHash)
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

// AddUPIDetails validates the VPA with the external service and stores it.
// An unverifiable address is rejected, not stored.
func (s *Service) AddUPIDetails(ctx context.Context, userID, vpa string) error {
	valid, err := s.upiValidator.ValidateVPA(ctx, vpa)
	if err != nil {
		return fmt.Errorf("validate vpa: %w", core.ErrExternalService)
	}

	if !valid {
		return fmt.Errorf("add upi details: %w", core.ErrInvalidInput)
	}

	return s.repo.UpdateUPIAddress(ctx, userID, vpa)
}

// GrantVideo adds videoID to the user's entitlement set. The bool reports
// whether the entitlement was newly granted.
func (s *Service) GrantVideo(
	ctx context.Context,
	userID, videoID string,
) (bool, error) {
	return s.repo.AddPurchasedVideo(ctx, userID, videoID)
}

func (s *Service) HasVideo(
	ctx context.Context,
	userID, videoID string,
) (bool, error) {
	return s.repo.HasPurchasedVideo(ctx, userID, videoID)
}

func (s *Service) PurchasedVideoIDs(
	ctx context.Context,
	userID string,
) ([]string, error) {
	return s.repo.PurchasedVideoIDs(ctx, userID)
}

func toUserInfo(u *User) *auth.UserInfo {
	info := &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Verified:     u.Verified,
		ReferralCode: u.ReferralCode,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
	if u.PasswordHash != nil {
		info.PasswordHash = *u.PasswordHash
	}
	return info
}

var _ auth.UserProvider = (*Service)(nil)
