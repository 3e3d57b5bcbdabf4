// GreatK Platform | 2026
// gateway.go

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/greatk-dev/greatk-api/internal/config"
	"github.com/greatk-dev/greatk-api/internal/core"
)

// Gateway creates payment sessions with the external processor.
// Outbound only; the webhook is the inbound half of the contract.
type Gateway interface {
	CreateSession(ctx context.Context, params SessionParams) (*Session, error)
}

type SessionParams struct {
	OrderID       string
	Amount        float64
	CustomerID    string
	CustomerEmail string
}

type Session struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
}

// CashfreeGateway talks to the Cashfree PG orders API.
type CashfreeGateway struct {
	client *http.Client
	cfg    config.CashfreeConfig
}

func NewCashfreeGateway(cfg config.CashfreeConfig) *CashfreeGateway {
	return &CashfreeGateway{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

type cashfreeOrderRequest struct {
	OrderID         string                  `json:"order_id"`
	OrderAmount     float64                 `json:"order_amount"`
	OrderCurrency   string                  `json:"order_currency"`
	CustomerDetails cashfreeCustomerDetails `json:"customer_details"`
}

type cashfreeCustomerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

func (g *CashfreeGateway) CreateSession(
	ctx context.Context,
	params SessionParams,
) (*Session, error) {
	body, err := json.Marshal(cashfreeOrderRequest{
		OrderID:       params.OrderID,
		OrderAmount:   params.Amount,
		OrderCurrency: g.cfg.Currency,
		CustomerDetails: cashfreeCustomerDetails{
			CustomerID:    params.CustomerID,
			CustomerEmail: params.CustomerEmail,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.cfg.BaseURL+"/pg/orders",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", g.cfg.ClientID)
	req.Header.Set("x-client-secret", g.cfg.ClientSecret)
	req.Header.Set("x-api-version", g.cfg.APIVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", core.ErrExternalService)
	}
	defer func() {
		//nolint:errcheck // body close on response
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		//nolint:errcheck // best-effort error body for the log line
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf(
			"gateway returned %d: %s: %w",
			resp.StatusCode,
			string(msg),
			core.ErrExternalService,
		)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	return &session, nil
}

var _ Gateway = (*CashfreeGateway)(nil)
