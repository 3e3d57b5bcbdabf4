// GreatK Platform | 2026
// service.go

package referral

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/greatk-dev/greatk-api/internal/core"
)

// ReferrerShareRate is the referrer's cut of a referred purchase.
const ReferrerShareRate = 0.5

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record registers newUserID as referred by the owner of referrerCode.
// An unresolvable code returns core.ErrInvalidReferralCode; a repeat
// record for the same referred user is a silent no-op.
func (s *Service) Record(
	ctx context.Context,
	referrerCode, newUserID string,
) error {
	referrerID, err := s.repo.ReferrerIDByCode(ctx, referrerCode)
	if err != nil {
		return err
	}

	ref := &Referral{
		ID:             uuid.New().String(),
		ReferrerID:     referrerID,
		ReferredUserID: newUserID,
	}

	if err := s.repo.Create(ctx, ref); err != nil {
		return fmt.Errorf("record referral: %w", err)
	}

	return nil
}

// ValidateCode checks that a referral code resolves to a user without
// recording anything, returning core.ErrInvalidReferralCode otherwise.
func (s *Service) ValidateCode(ctx context.Context, code string) error {
	_, err := s.repo.ReferrerIDByCode(ctx, code)
	return err
}

// MarkSubscribed flips the relationship's subscribed flag exactly once.
// The bool reports whether this call performed the flip; false with a
// nil error means no matching unsubscribed relationship existed.
func (s *Service) MarkSubscribed(
	ctx context.Context,
	referrerID, referredUserID string,
) (bool, error) {
	return s.repo.MarkSubscribed(ctx, referrerID, referredUserID)
}

// Subscribed reports whether the relationship between referrerID and
// referredUserID exists and has already had its flag flipped. A missing
// relationship reads as false with no error.
func (s *Service) Subscribed(
	ctx context.Context,
	referrerID, referredUserID string,
) (bool, error) {
	ref, err := s.repo.GetByReferredUser(ctx, referredUserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return ref.ReferrerID == referrerID && ref.Subscribed, nil
}

// ListDetails builds the admin payout report with each referrer's share
// of the referred purchase amount.
func (s *Service) ListDetails(ctx context.Context) ([]Detail, error) {
	details, err := s.repo.ListDetails(ctx)
	if err != nil {
		return nil, err
	}

	for i := range details {
		details[i].ReferrerShare = details[i].Amount * ReferrerShareRate
	}

	return details, nil
}
