// GreatK Platform | 2026
// dto.go

package payment

// WebhookRequest is the gateway's fixed body shape. Unexpected shapes
// are rejected with a structured 400, never a crash.
type WebhookRequest struct {
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			PaymentStatus string `json:"payment_status"`
		} `json:"payment"`
		CustomerDetails struct {
			CustomerID string `json:"customer_id"`
		} `json:"customer_details"`
	} `json:"data"`
}

type WebhookAck struct {
	Status string `json:"status"`
}

type SessionResponse struct {
	OrderID          string  `json:"order_id"`
	Amount           float64 `json:"amount"`
	PaymentSessionID string  `json:"payment_session_id"`
}
