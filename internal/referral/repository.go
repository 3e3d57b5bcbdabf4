// GreatK Platform | 2026
// repository.go

package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, ref *Referral) error
	ReferrerIDByCode(ctx context.Context, code string) (string, error)
	GetByReferredUser(ctx context.Context, referredUserID string) (*Referral, error)
	MarkSubscribed(ctx context.Context, referrerID, referredUserID string) (bool, error)
	ListDetails(ctx context.Context) ([]Detail, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create is a set-semantics insert: a user can only ever be referred
// once, so a repeat record for the same referred user is a no-op.
func (r *repository) Create(ctx context.Context, ref *Referral) error {
	query := `
		INSERT INTO referrals (id, referrer_id, referred_user_id, subscribed)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (referred_user_id) DO NOTHING`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		ref.ID,
		ref.ReferrerID,
		ref.ReferredUserID,
	); err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}

	return nil
}

func (r *repository) ReferrerIDByCode(
	ctx context.Context,
	code string,
) (string, error) {
	query := `
		SELECT id FROM users
		WHERE referral_code = $1 AND deleted_at IS NULL`

	var id string
	if err := r.db.GetContext(ctx, &id, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", core.ErrInvalidReferralCode
		}
		return "", fmt.Errorf("resolve referral code: %w", err)
	}

	return id, nil
}

func (r *repository) GetByReferredUser(
	ctx context.Context,
	referredUserID string,
) (*Referral, error) {
	query := `
		SELECT id, referrer_id, referred_user_id, subscribed, created_at
		FROM referrals
		WHERE referred_user_id = $1`

	var ref Referral
	if err := r.db.GetContext(ctx, &ref, query, referredUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get referral: %w", err)
	}

	return &ref, nil
}

// MarkSubscribed flips the subscribed flag at most once. The returned
// bool reports whether this call performed the flip.
func (r *repository) MarkSubscribed(
	ctx context.Context,
	referrerID, referredUserID string,
) (bool, error) {
	query := `
		UPDATE referrals SET subscribed = TRUE
		WHERE referrer_id = $1
			AND referred_user_id = $2
			AND subscribed = FALSE`

	result, err := r.db.ExecContext(ctx, query, referrerID, referredUserID)
	if err != nil {
		return false, fmt.Errorf("mark subscribed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) ListDetails(ctx context.Context) ([]Detail, error) {
	query := `
		SELECT
			o.order_id,
			o.amount,
			o.referral_paid,
			ref.name AS referrer_name,
			ref.email AS referrer_email,
			COALESCE(ref.upi_address, '') AS referrer_upi,
			ru.name AS referred_name,
			ru.email AS referred_email,
			r.subscribed
		FROM orders o
		JOIN users ref ON ref.id = o.referrer_id
		JOIN users ru ON ru.id = o.user_id
		LEFT JOIN referrals r ON r.referred_user_id = o.user_id
		WHERE o.status = 'PAID' AND o.referrer_id IS NOT NULL
		ORDER BY o.created_at DESC`

	details := []Detail{}
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("list referral details: %w", err)
	}

	return details, nil
}
