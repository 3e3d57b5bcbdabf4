// GreatK Platform | 2026
// service.go

package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/greatk-dev/greatk-api/internal/core"
	"github.com/greatk-dev/greatk-api/internal/order"
	"github.com/greatk-dev/greatk-api/internal/referral"
)

// OrderLedger is the slice of the order service settlement depends on.
// MarkPaid and the referral-paid flip must be atomic conditional
// updates so concurrent deliveries of the same event serialize.
type OrderLedger interface {
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	MarkPaid(ctx context.Context, orderID string) (*order.Order, bool, error)
	MarkReferralPaid(ctx context.Context, orderID string) (bool, error)
	ResetReferralPaid(ctx context.Context, orderID string) (bool, error)
}

type ReferralLedger interface {
	MarkSubscribed(
		ctx context.Context,
		referrerID, referredUserID string,
	) (bool, error)
	Subscribed(
		ctx context.Context,
		referrerID, referredUserID string,
	) (bool, error)
}

type EntitlementStore interface {
	GrantVideo(ctx context.Context, userID, videoID string) (bool, error)
}

type Outcome int

const (
	// OutcomeSettled: this delivery performed the Pending to Paid
	// transition and applied the side effects.
	OutcomeSettled Outcome = iota
	// OutcomeAlreadySettled: a prior delivery settled the order; this
	// one only re-checked what remained to do.
	OutcomeAlreadySettled
	// OutcomeSkipped: non-success payment status, nothing mutated.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeAlreadySettled:
		return "already_settled"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result reports what a single delivery did. Faults carries partial
// problems that did not abort settlement, for operator reconciliation.
type Result struct {
	Outcome      Outcome
	Status       Status
	Order        *order.Order
	PayoutIssued bool
	Faults       []string
}

// Service reacts to payment-confirmation events and drives all
// downstream effects at most once per order. Every step re-derives
// "already done" from persisted flags, so re-delivering the same event
// after a crash or partial failure is always safe.
type Service struct {
	orders       OrderLedger
	referrals    ReferralLedger
	entitlements EntitlementStore
	payout       PayoutClient
	logger       *slog.Logger
}

func NewService(
	orders OrderLedger,
	referrals ReferralLedger,
	entitlements EntitlementStore,
	payout PayoutClient,
	logger *slog.Logger,
) *Service {
	return &Service{
		orders:       orders,
		referrals:    referrals,
		entitlements: entitlements,
		payout:       payout,
		logger:       logger,
	}
}

// Settle processes one delivery of a payment-confirmation event.
//
// An unknown order returns core.ErrNotFound so the gateway's retry
// policy fires (order creation may not be durably visible yet). A
// non-success status is acknowledged without mutation. Otherwise the
// conditional MarkPaid transition only decides the reported outcome:
// every downstream effect re-derives "already applied" from persisted
// state on its own, so a delivery that committed MarkPaid and then
// died mid-settlement is completed by the next re-delivery.
func (s *Service) Settle(
	ctx context.Context,
	orderID, rawStatus, customerID string,
) (*Result, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("look up order %s: %w", orderID, err)
	}

	status := ParseStatus(rawStatus)
	if status != StatusSuccess {
		s.logger.InfoContext(ctx, "payment not successful, settlement skipped",
			"order_id", orderID,
			"payment_status", rawStatus,
			"mapped_status", status.String(),
		)
		return &Result{Outcome: OutcomeSkipped, Status: status, Order: o}, nil
	}

	o, transitioned, err := s.orders.MarkPaid(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}

	res := &Result{Status: status, Order: o}
	if transitioned {
		res.Outcome = OutcomeSettled
	} else {
		res.Outcome = OutcomeAlreadySettled
	}

	if customerID != "" && customerID != o.UserID {
		s.recordFault(ctx, res, fmt.Sprintf(
			"webhook customer %s does not match order user %s",
			customerID, o.UserID,
		))
	}

	// The grant and the subscribed flip run on the already-paid path
	// too: a prior delivery may have committed MarkPaid and then died
	// before either took effect. Both are conditional writes, so a
	// normal re-delivery changes nothing.
	if _, err := s.entitlements.GrantVideo(ctx, o.UserID, o.VideoID); err != nil {
		return nil, fmt.Errorf("grant entitlement: %w", err)
	}

	if o.HasReferrer() {
		flipped, err := s.referrals.MarkSubscribed(ctx, *o.ReferrerID, o.UserID)
		if err != nil {
			return nil, fmt.Errorf("mark subscribed: %w", err)
		}
		if !flipped {
			subscribed, err := s.referrals.Subscribed(ctx, *o.ReferrerID, o.UserID)
			if err != nil {
				return nil, fmt.Errorf("check subscribed: %w", err)
			}
			if !subscribed {
				// Missing relationship is a consistency fault, not a
				// reason to abort the rest of settlement.
				s.recordFault(ctx, res, fmt.Sprintf(
					"no referral relationship for referrer %s and user %s: %v",
					*o.ReferrerID, o.UserID, core.ErrConsistency,
				))
			}
		}
	}

	if err := s.settleReferralPayout(ctx, o, res); err != nil {
		return nil, err
	}

	return res, nil
}

// settleReferralPayout runs on every successful delivery, settled or
// not, because a prior delivery may have failed at exactly this step.
// The conditional referral_paid flip claims the payout: only the
// delivery that wins the flip invokes the payout client, and a failed
// payout releases the claim so the next delivery retries it.
func (s *Service) settleReferralPayout(
	ctx context.Context,
	o *order.Order,
	res *Result,
) error {
	if !o.HasReferrer() || o.ReferralPaid {
		return nil
	}

	share := o.Amount * referral.ReferrerShareRate
	if share <= 0 {
		return nil
	}

	claimed, err := s.orders.MarkReferralPaid(ctx, o.OrderID)
	if err != nil {
		return fmt.Errorf("claim referral payout: %w", err)
	}
	if !claimed {
		// A concurrent delivery holds the claim.
		return nil
	}

	if err := s.payout.Payout(ctx, *o.ReferrerID, share); err != nil {
		if _, resetErr := s.orders.ResetReferralPaid(ctx, o.OrderID); resetErr != nil {
			s.logger.ErrorContext(ctx, "failed to release payout claim",
				"order_id", o.OrderID,
				"error", resetErr,
			)
		}
		return fmt.Errorf("referral payout for order %s: %w: %w",
			o.OrderID, err, core.ErrExternalService)
	}

	res.PayoutIssued = true
	o.ReferralPaid = true

	return nil
}

func (s *Service) recordFault(ctx context.Context, res *Result, msg string) {
	s.logger.WarnContext(ctx, "settlement fault",
		"order_id", res.Order.OrderID,
		"fault", msg,
	)
	res.Faults = append(res.Faults, msg)
}
