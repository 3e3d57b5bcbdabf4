// GreatK Platform | 2026
// repository.go

package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type Repository interface {
	Upsert(ctx context.Context, rev *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	List(ctx context.Context) ([]Review, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Upsert keeps one review per user, replacing body and display name
// on conflict.
func (r *repository) Upsert(ctx context.Context, rev *Review) error {
	query := `
		INSERT INTO reviews (id, user_id, username, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
			body = EXCLUDED.body,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		rev.ID,
		rev.UserID,
		rev.Username,
		rev.Body,
	); err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Review, error) {
	query := `SELECT id, user_id, username, body, created_at, updated_at
		FROM reviews WHERE id = $1`

	var rev Review
	if err := r.db.GetContext(ctx, &rev, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &rev, nil
}

func (r *repository) List(ctx context.Context) ([]Review, error) {
	query := `SELECT id, user_id, username, body, created_at, updated_at
		FROM reviews ORDER BY created_at DESC`

	reviews := []Review{}
	if err := r.db.SelectContext(ctx, &reviews, query); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if rows == 0 {
		return core.ErrNotFound
	}

	return nil
}
