// GreatK Platform | 2026
// handler.go

package review

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/greatk-dev/greatk-api/internal/core"
	"github.com/greatk-dev/greatk-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/reviews", h.List)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/reviews", h.Post)
		r.Delete("/reviews/{reviewID}", h.Delete)
	})
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req PostReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	username := ""
	if middleware.IsAdmin(r.Context()) {
		username = req.Username
	}

	rev, err := h.service.Post(r.Context(), userID, username, req.Body)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToReviewResponse(rev))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ReviewsResponse{Reviews: ToReviewResponseList(reviews)})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	reviewID := chi.URLParam(r, "reviewID")
	if reviewID == "" {
		core.BadRequest(w, "review ID required")
		return
	}

	err := h.service.Delete(
		r.Context(),
		userID,
		middleware.IsAdmin(r.Context()),
		reviewID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "review")
			return
		}
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "cannot delete another user's review")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
