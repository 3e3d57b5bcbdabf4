// GreatK Platform | 2026
// service.go

package order

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/greatk-dev/greatk-api/internal/core"
)

const (
	orderIDLength      = 12
	orderIDMaxAttempts = 5
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create opens a PENDING order for a paid video, snapshotting the
// current price and the purchaser's referrer (nil when the user was
// not referred).
func (s *Service) Create(
	ctx context.Context,
	userID, videoID string,
) (*Order, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("create order: user: %w", core.ErrNotFound)
	}

	price, err := s.repo.PaidVideoPrice(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("create order: video: %w", err)
	}

	referrerID, err := s.repo.ReferrerOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	orderID, err := s.newOrderID(ctx)
	if err != nil {
		return nil, err
	}

	o := &Order{
		OrderID:    orderID,
		UserID:     userID,
		VideoID:    videoID,
		Amount:     price,
		Status:     StatusPending,
		ReferrerID: referrerID,
	}

	if err := s.repo.Insert(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

func (s *Service) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// MarkPaid attempts the PENDING to PAID transition. The bool reports
// whether this call performed it: false with a non-nil order means the
// order was already PAID and the caller must skip side effects.
func (s *Service) MarkPaid(
	ctx context.Context,
	orderID string,
) (*Order, bool, error) {
	transitioned, err := s.repo.MarkPaid(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	return o, transitioned, nil
}

// MarkReferralPaid flips the payout flag exactly once; false means
// another delivery already flipped it.
func (s *Service) MarkReferralPaid(
	ctx context.Context,
	orderID string,
) (bool, error) {
	return s.repo.MarkReferralPaid(ctx, orderID)
}

// ResetReferralPaid releases the payout claim taken by
// MarkReferralPaid when the payout could not be completed.
func (s *Service) ResetReferralPaid(
	ctx context.Context,
	orderID string,
) (bool, error) {
	return s.repo.ResetReferralPaid(ctx, orderID)
}

// newOrderID derives a short id by hashing random bytes, retrying on
// the unlikely truncation collision.
func (s *Service) newOrderID(ctx context.Context) (string, error) {
	for range orderIDMaxAttempts {
		id, err := generateOrderID()
		if err != nil {
			return "", err
		}

		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check order id: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("generate order id: exhausted attempts")
}

func generateOrderID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order id: %w", err)
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])[:orderIDLength], nil
}
