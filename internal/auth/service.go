// GreatK Platform | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/greatk-dev/greatk-api/internal/core"
	"github.com/greatk-dev/greatk-api/internal/mail"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")

	// ErrNotVerified signals that a fresh OTP was issued instead of a
	// session because the account has not completed verification.
	ErrNotVerified = errors.New("account not verified")
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Verified     bool
	ReferralCode string
	TokenVersion int
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	CreateUnverified(
		ctx context.Context,
		params CreateUserParams,
		otpHash string,
		otpExpiresAt time.Time,
	) (*UserInfo, error)
	SetOTP(
		ctx context.Context,
		userID, otpHash string,
		expiresAt time.Time,
		clearPassword bool,
	) error
	CheckOTP(ctx context.Context, userID, otp string) error
	Verify(ctx context.Context, userID, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type CreateUserParams struct {
	Name       string
	Age        int
	Gender     string
	Address    string
	Email      string
	ReferredBy *string
}

// ReferralRecorder registers a referral relationship at sign-up time.
type ReferralRecorder interface {
	Record(ctx context.Context, referrerCode, newUserID string) error
	ValidateCode(ctx context.Context, code string) error
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	referrals    ReferralRecorder
	mailer       mail.Mailer
	redis        *redis.Client
	otpExpire    time.Duration
	blacklistTTL time.Duration
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	referrals ReferralRecorder,
	mailer mail.Mailer,
	redisClient *redis.Client,
	otpExpire time.Duration,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		referrals:    referrals,
		mailer:       mailer,
		redis:        redisClient,
		otpExpire:    otpExpire,
		blacklistTTL: 15 * time.Minute,
	}
}

// Signup registers a new account and mails the verification OTP. A repeat
// sign-up for an email that never finished verification re-issues the OTP
// instead of failing, and still records a referral code supplied on the
// retry.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	// An invalid code must fail before any account state changes, so a
	// corrective retry with the right code is never trapped behind an
	// already-created user.
	if req.ReferralCode != nil && *req.ReferralCode != "" {
		if err := s.referrals.ValidateCode(ctx, *req.ReferralCode); err != nil {
			return nil, err
		}
	}

	existing, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if existing != nil {
		if existing.Verified {
			return nil, ErrEmailExists
		}

		// Record keeps first-wins set semantics, so a repeat sign-up
		// that resubmits a code attaches it where the first attempt
		// failed and changes nothing otherwise.
		if req.ReferralCode != nil && *req.ReferralCode != "" {
			if err := s.referrals.Record(ctx, *req.ReferralCode, existing.ID); err != nil {
				return nil, err
			}
		}

		if err := s.issueOTP(ctx, existing.ID, req.Email, false); err != nil {
			return nil, err
		}

		return &SignupResponse{
			AlreadyRegistered: true,
			Message:           "account exists but is unverified, OTP sent to your email",
		}, nil
	}

	otp, otpHash, expiresAt, err := s.newOTP()
	if err != nil {
		return nil, err
	}

	created, err := s.userProvider.CreateUnverified(ctx, CreateUserParams{
		Name:       req.Name,
		Age:        req.Age,
		Gender:     req.Gender,
		Address:    req.Address,
		Email:      req.Email,
		ReferredBy: req.ReferralCode,
	}, otpHash, expiresAt)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if req.ReferralCode != nil && *req.ReferralCode != "" {
		if err := s.referrals.Record(ctx, *req.ReferralCode, created.ID); err != nil {
			return nil, err
		}
	}

	if err := s.mailer.SendOTP(ctx, created.Email, otp); err != nil {
		return nil, fmt.Errorf("send otp: %w", core.ErrExternalService)
	}

	return &SignupResponse{
		Message: "sign up successful, OTP sent to your email",
	}, nil
}

// VerifyOTP confirms the mailed passcode, sets the account password, and
// opens a session. Used both for initial verification and password reset.
func (s *Service) VerifyOTP(
	ctx context.Context,
	req VerifyRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.userProvider.CheckOTP(ctx, user.ID, req.OTP); err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return nil, fmt.Errorf("verify otp: %w", core.ErrTokenExpired)
		}
		if errors.Is(err, core.ErrInvalidInput) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("check otp: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.Verify(ctx, user.ID, passwordHash); err != nil {
		return nil, fmt.Errorf("verify user: %w", err)
	}

	user.Verified = true
	user.PasswordHash = passwordHash

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.Verified {
		if err := s.issueOTP(ctx, user.ID, user.Email, false); err != nil {
			return nil, err
		}
		return nil, ErrNotVerified
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

// RequestPasswordReset invalidates the current password and mails an OTP;
// VerifyOTP completes the reset with the new password.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("get user: %w", err)
	}

	return s.issueOTP(ctx, user.ID, user.Email, true)
}

func (s *Service) newOTP() (otp, otpHash string, expiresAt time.Time, err error) {
	otp, err = core.GenerateOTP()
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate otp: %w", err)
	}
	return otp, core.HashToken(otp), time.Now().Add(s.otpExpire), nil
}

func (s *Service) issueOTP(
	ctx context.Context,
	userID, email string,
	clearPassword bool,
) error {
	otp, otpHash, expiresAt, err := s.newOTP()
	if err != nil {
		return err
	}

	if err := s.userProvider.SetOTP(ctx, userID, otpHash, expiresAt, clearPassword); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, otp); err != nil {
		return fmt.Errorf("send otp: %w", core.ErrExternalService)
	}

	return nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.createAuthResponse(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userID string,
) error {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken.UserID != userID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	key := "blacklist:" + jti
	ttl := time.Until(expiresAt)

	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	key := "blacklist:" + jti

	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

func (s *Service) ValidateTokenVersion(
	ctx context.Context,
	userID string,
	tokenVersion int,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if tokenVersion < user.TokenVersion {
		return fmt.Errorf("validate token version: %w", core.ErrTokenRevoked)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		Verified:     user.Verified,
		ReferralCode: user.ReferralCode,
		CreatedAt:    user.CreatedAt,
	}, nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	refreshTokenEntity := &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.repo.Create(ctx, refreshTokenEntity); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		//nolint:errcheck // best-effort token chain tracking
		_ = s.repo.MarkAsUsed(ctx, *oldTokenID, newTokenID)
	}

	return &AuthResponse{
		User: UserResponse{
			ID:           user.ID,
			Email:        user.Email,
			Name:         user.Name,
			Role:         user.Role,
			Verified:     user.Verified,
			ReferralCode: user.ReferralCode,
			CreatedAt:    user.CreatedAt,
		},
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.config.AccessTokenExpire / time.Second),
			ExpiresAt:    time.Now().Add(s.jwt.config.AccessTokenExpire),
		},
	}, nil
}
