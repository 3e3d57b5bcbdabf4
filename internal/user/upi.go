// GreatK Platform | 2026
// upi.go

package user

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/greatk-dev/greatk-api/internal/config"
)

const razorpayValidateURL = "https://api.razorpay.com/v1/payments/validate/account"

// RazorpayValidator verifies virtual payment addresses against Razorpay's
// account validation endpoint.
type RazorpayValidator struct {
	client *http.Client
	keyID  string
}

func NewRazorpayValidator(cfg config.RazorpayConfig) *RazorpayValidator {
	return &RazorpayValidator{
		client: &http.Client{Timeout: cfg.Timeout},
		keyID:  cfg.KeyID,
	}
}

type vpaValidateRequest struct {
	Entity string `json:"entity"`
	Value  string `json:"value"`
}

type vpaValidateResponse struct {
	Success bool `json:"success"`
}

func (v *RazorpayValidator) ValidateVPA(
	ctx context.Context,
	vpa string,
) (bool, error) {
	payload, err := json.Marshal(vpaValidateRequest{
		Entity: "vpa",
		Value:  vpa,
	})
	if err != nil {
		return false, fmt.Errorf("marshal vpa request: %w", err)
	}

	endpoint := razorpayValidateURL + "?key_id=" + url.QueryEscape(v.keyID)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		bytes.NewReader(payload),
	)
	if err != nil {
		return false, fmt.Errorf("build vpa request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("validate vpa: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var result vpaValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode vpa response: %w", err)
	}

	return result.Success, nil
}

var _ UPIValidator = (*RazorpayValidator)(nil)
