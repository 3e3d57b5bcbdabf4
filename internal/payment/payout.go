// GreatK Platform | 2026
// payout.go

package payment

import (
	"context"
	"log/slog"
)

// PayoutClient moves the referrer's share to the referrer. The default
// implementation only records the instruction; a real payment rail
// slots in behind the same interface.
type PayoutClient interface {
	Payout(ctx context.Context, userID string, amount float64) error
}

type LogPayout struct {
	logger *slog.Logger
}

func NewLogPayout(logger *slog.Logger) *LogPayout {
	return &LogPayout{logger: logger}
}

func (p *LogPayout) Payout(
	ctx context.Context,
	userID string,
	amount float64,
) error {
	p.logger.InfoContext(ctx, "referral payout issued",
		"user_id", userID,
		"amount", amount,
	)
	return nil
}

var _ PayoutClient = (*LogPayout)(nil)
