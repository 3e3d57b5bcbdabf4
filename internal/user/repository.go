// GreatK Platform | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/greatk-dev/greatk-api/internal/core"
)

const userColumns = `id, email, name, age, gender, address, password_hash,
		       verified, otp_hash, otp_expires_at, role, token_version,
		       referral_code, referred_by, upi_address,
		       created_at, updated_at, deleted_at`

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time, clearPassword bool) error
	Verify(ctx context.Context, id, passwordHash string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateUPIAddress(ctx context.Context, id, upiAddress string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	AddPurchasedVideo(ctx context.Context, userID, videoID string) (bool, error)
	HasPurchasedVideo(ctx context.Context, userID, videoID string) (bool, error)
	PurchasedVideoIDs(ctx context.Context, userID string) ([]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, name, age, gender, address,
		                   otp_hash, otp_expires_at, role,
		                   referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at, token_version`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.Name,
		user.Age,
		user.Gender,
		user.Address,
		user.OTPHash,
		user.OTPExpiresAt,
		user.Role,
		user.ReferralCode,
		user.ReferredBy,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE email = $1 AND deleted_at IS NULL`, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByReferralCode(
	ctx context.Context,
	code string,
) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE referral_code = $1 AND deleted_at IS NULL`, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by referral code: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by referral code: %w", err)
	}

	return &user, nil
}

func (r *repository) ReferralCodeExists(
	ctx context.Context,
	code string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE referral_code = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("check referral code: %w", err)
	}

	return exists, nil
}

// SetOTP stores a fresh passcode hash. clearPassword also nulls the stored
// credential, which is how password reset invalidates the old password
// before the new one is confirmed via OTP.
func (r *repository) SetOTP(
	ctx context.Context,
	id, otpHash string,
	expiresAt time.Time,
	clearPassword bool,
) error {
	query := `
		UPDATE users
		SET otp_hash = $2, otp_expires_at = $3,
		    password_hash = CASE WHEN $4 THEN NULL ELSE password_hash END,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, otpHash, expiresAt, clearPassword)
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set otp: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Verify(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET verified = TRUE, password_hash = $2,
		    otp_hash = NULL, otp_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("verify user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdateUPIAddress(
	ctx context.Context,
	id, upiAddress string,
) error {
	query := `
		UPDATE users
		SET upi_address = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, upiAddress)
	if err != nil {
		return fmt.Errorf("update upi address: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update upi address: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update upi address: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	countQuery := `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, userColumns)

	var users []User
	err := r.db.SelectContext(ctx, &users, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// AddPurchasedVideo grants the entitlement with set semantics: the insert is
// a no-op when the pair already exists, and the bool reports whether this
// call inserted the row.
func (r *repository) AddPurchasedVideo(
	ctx context.Context,
	userID, videoID string,
) (bool, error) {
	query := `
		INSERT INTO purchased_videos (user_id, video_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, video_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, userID, videoID)
	if err != nil {
		return false, fmt.Errorf("add purchased video: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add purchased video: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) HasPurchasedVideo(
	ctx context.Context,
	userID, videoID string,
) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM purchased_videos WHERE user_id = $1 AND video_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, videoID); err != nil {
		return false, fmt.Errorf("check purchased video: %w", err)
	}

	return exists, nil
}

func (r *repository) PurchasedVideoIDs(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := `
		SELECT video_id FROM purchased_videos
		WHERE user_id = $1
		ORDER BY purchased_at`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list purchased videos: %w", err)
	}

	return ids, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
