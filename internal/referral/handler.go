// GreatK Platform | 2026
// handler.go

package referral

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the admin payout report.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/referrals", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListDetails)
	})
}

func (h *Handler) ListDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.ListDetails(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, DetailsResponse{Referrals: details})
}
