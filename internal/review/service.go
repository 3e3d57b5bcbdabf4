// GreatK Platform | 2026
// service.go

package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/greatk-dev/greatk-api/internal/auth"
	"github.com/greatk-dev/greatk-api/internal/core"
)

// UserDirectory resolves the poster's display name.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type Service struct {
	repo  Repository
	users UserDirectory
}

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// Post creates or replaces the caller's review. A non-empty username
// overrides the account name; the handler only allows that for admins.
func (s *Service) Post(
	ctx context.Context,
	userID, username, body string,
) (*Review, error) {
	if username == "" {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("resolve poster: %w", err)
		}
		username = user.Name
	}

	rev := &Review{
		ID:       uuid.New().String(),
		UserID:   userID,
		Username: username,
		Body:     body,
	}

	if err := s.repo.Upsert(ctx, rev); err != nil {
		return nil, err
	}

	return rev, nil
}

func (s *Service) List(ctx context.Context) ([]Review, error) {
	return s.repo.List(ctx)
}

// Delete removes a review; only its owner or an admin may.
func (s *Service) Delete(
	ctx context.Context,
	callerID string,
	isAdmin bool,
	reviewID string,
) error {
	rev, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}

	if rev.UserID != callerID && !isAdmin {
		return fmt.Errorf("delete review: %w", core.ErrForbidden)
	}

	return s.repo.Delete(ctx, reviewID)
}
