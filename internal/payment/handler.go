// GreatK Platform | 2026
// handler.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greatk-dev/greatk-api/internal/auth"
	"github.com/greatk-dev/greatk-api/internal/core"
	"github.com/greatk-dev/greatk-api/internal/middleware"
	"github.com/greatk-dev/greatk-api/internal/order"
)

// CustomerDirectory resolves the purchaser's contact details for the
// gateway session.
type CustomerDirectory interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type Handler struct {
	orders     *order.Service
	gateway    Gateway
	settlement *Service
	customers  CustomerDirectory
}

func NewHandler(
	orders *order.Service,
	gateway Gateway,
	settlement *Service,
	customers CustomerDirectory,
) *Handler {
	return &Handler{
		orders:     orders,
		gateway:    gateway,
		settlement: settlement,
		customers:  customers,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/payments", func(r chi.Router) {
		// The gateway calls the webhook; it carries no user token.
		r.Post("/webhook", h.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/session", h.CreateSession)
		})
	})
}

// CreateSession opens a PENDING order for the requested video and asks
// the gateway for a checkout session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		core.BadRequest(w, "video_id is required")
		return
	}

	o, err := h.orders.Create(r.Context(), userID, videoID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "video")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	session, err := h.gateway.CreateSession(r.Context(), SessionParams{
		OrderID:       o.OrderID,
		Amount:        o.Amount,
		CustomerID:    customer.ID,
		CustomerEmail: customer.Email,
	})
	if err != nil {
		if errors.Is(err, core.ErrExternalService) {
			core.JSONError(w, core.ExternalServiceError("payment gateway"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SessionResponse{
		OrderID:          o.OrderID,
		Amount:           o.Amount,
		PaymentSessionID: session.PaymentSessionID,
	})
}

// Webhook ingests a payment-confirmation delivery. Fatal settlement
// errors return 500 so the gateway re-delivers; everything else (non-
// success statuses, repeats of an already-settled order) is ACKed.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid webhook body")
		return
	}

	orderID := req.Data.Order.OrderID
	status := req.Data.Payment.PaymentStatus
	customerID := req.Data.CustomerDetails.CustomerID

	if orderID == "" || status == "" || customerID == "" {
		core.BadRequest(w, "webhook body missing required fields")
		return
	}

	result, err := h.settlement.Settle(r.Context(), orderID, status, customerID)
	if err != nil {
		// 500 regardless of cause: the gateway's retry policy is the
		// recovery path for unknown orders and failed side effects.
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, WebhookAck{Status: result.Outcome.String()})
}
