// GreatK Platform | 2026
// dto.go

package review

import (
	"time"
)

type PostReviewRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
	// Username is honored only for admin callers.
	Username string `json:"username" validate:"omitempty,min=1,max=100"`
}

type ReviewResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
}

func ToReviewResponse(rev *Review) ReviewResponse {
	return ReviewResponse{
		ID:        rev.ID,
		Username:  rev.Username,
		Body:      rev.Body,
		CreatedAt: rev.CreatedAt,
		UpdatedAt: rev.UpdatedAt,
	}
}

func ToReviewResponseList(reviews []Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, ToReviewResponse(&reviews[i]))
	}
	return out
}
