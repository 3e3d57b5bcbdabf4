// GreatK Platform | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	Exists(ctx context.Context, orderID string) (bool, error)
	MarkPaid(ctx context.Context, orderID string) (bool, error)
	MarkReferralPaid(ctx context.Context, orderID string) (bool, error)
	ResetReferralPaid(ctx context.Context, orderID string) (bool, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	PaidVideoPrice(ctx context.Context, videoID string) (float64, error)
	ReferrerOf(ctx context.Context, userID string) (*string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const orderColumns = `order_id, user_id, video_id, amount, status,
	referrer_id, referral_paid, created_at`

func (r *repository) Insert(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders
			(order_id, user_id, video_id, amount, status, referrer_id)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		o.OrderID,
		o.UserID,
		o.VideoID,
		o.Amount,
		o.Status,
		o.ReferrerID,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	orderID string,
) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	var o Order
	if err := r.db.GetContext(ctx, &o, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &o, nil
}

func (r *repository) Exists(
	ctx context.Context,
	orderID string,
) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, orderID); err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}

	return exists, nil
}

// MarkPaid performs the PENDING to PAID transition atomically. The
// returned bool reports whether this call performed it; false means
// either the order was already PAID or the id is unknown.
func (r *repository) MarkPaid(
	ctx context.Context,
	orderID string,
) (bool, error) {
	query := `
		UPDATE orders SET status = $1
		WHERE order_id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, StatusPaid, orderID, StatusPending)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rows > 0, nil
}

// MarkReferralPaid flips referral_paid from false exactly once.
func (r *repository) MarkReferralPaid(
	ctx context.Context,
	orderID string,
) (bool, error) {
	query := `
		UPDATE orders SET referral_paid = TRUE
		WHERE order_id = $1 AND referral_paid = FALSE`

	result, err := r.db.ExecContext(ctx, query, orderID)
	if err != nil {
		return false, fmt.Errorf("mark referral paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rows > 0, nil
}

// ResetReferralPaid releases a payout claim after the payout itself
// failed, so a later re-delivery can retry it.
func (r *repository) ResetReferralPaid(
	ctx context.Context,
	orderID string,
) (bool, error) {
	query := `
		UPDATE orders SET referral_paid = FALSE
		WHERE order_id = $1 AND referral_paid = TRUE`

	result, err := r.db.ExecContext(ctx, query, orderID)
	if err != nil {
		return false, fmt.Errorf("reset referral paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) UserExists(
	ctx context.Context,
	userID string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return exists, nil
}

// PaidVideoPrice returns the current price of a purchasable video.
// Free-category and unknown videos both map to core.ErrNotFound.
func (r *repository) PaidVideoPrice(
	ctx context.Context,
	videoID string,
) (float64, error) {
	query := `
		SELECT price FROM videos
		WHERE id = $1 AND category = 'paid_business' AND price IS NOT NULL`

	var price float64
	if err := r.db.GetContext(ctx, &price, query, videoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, core.ErrNotFound
		}
		return 0, fmt.Errorf("get video price: %w", err)
	}

	return price, nil
}

// ReferrerOf returns the id of the user who referred userID, or nil
// when no referral relationship exists. The referral bonus applies to
// the purchase that subscribes the referred user, so a relationship
// that is already subscribed no longer attaches a referrer.
func (r *repository) ReferrerOf(
	ctx context.Context,
	userID string,
) (*string, error) {
	query := `
		SELECT referrer_id FROM referrals
		WHERE referred_user_id = $1 AND subscribed = FALSE`

	var referrerID string
	if err := r.db.GetContext(ctx, &referrerID, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get referrer: %w", err)
	}

	return &referrerID, nil
}
