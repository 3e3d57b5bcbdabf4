// GreatK Platform | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, v *Video) error
	GetByID(ctx context.Context, id string) (*Video, error)
	ListByCategory(ctx context.Context, category string) ([]Video, error)
	Delete(ctx context.Context, id string) error
	UpsertBanner(ctx context.Context, b *Banner) error
	GetBanner(ctx context.Context, slot int) (*Banner, error)
	ListBanners(ctx context.Context) ([]Banner, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const videoColumns = `id, category, title, price, hindi_key, hindi_url,
	english_key, english_url, thumbnail_key, thumbnail_url, created_at`

func (r *repository) Insert(ctx context.Context, v *Video) error {
	query := `
		INSERT INTO videos
			(id, category, title, price, hindi_key, hindi_url,
			english_key, english_url, thumbnail_key, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		v.ID,
		v.Category,
		v.Title,
		v.Price,
		v.HindiKey,
		v.HindiURL,
		v.EnglishKey,
		v.EnglishURL,
		v.ThumbnailKey,
		v.ThumbnailURL,
	); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	var v Video
	if err := r.db.GetContext(ctx, &v, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}

	return &v, nil
}

func (r *repository) ListByCategory(
	ctx context.Context,
	category string,
) ([]Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE category = $1
		ORDER BY created_at`

	videos := []Video{}
	if err := r.db.SelectContext(ctx, &videos, query, category); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	return videos, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
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

func (r *repository) UpsertBanner(ctx context.Context, b *Banner) error {
	query := `
		INSERT INTO banners (slot, object_key, url, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (slot) DO UPDATE
		SET object_key = EXCLUDED.object_key,
			url = EXCLUDED.url,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		b.Slot,
		b.ObjectKey,
		b.URL,
	); err != nil {
		return fmt.Errorf("upsert banner: %w", err)
	}

	return nil
}

func (r *repository) GetBanner(ctx context.Context, slot int) (*Banner, error) {
	query := `SELECT slot, object_key, url, updated_at
		FROM banners WHERE slot = $1`

	var b Banner
	if err := r.db.GetContext(ctx, &b, query, slot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get banner: %w", err)
	}

	return &b, nil
}

func (r *repository) ListBanners(ctx context.Context) ([]Banner, error) {
	query := `SELECT slot, object_key, url, updated_at
		FROM banners ORDER BY slot`

	banners := []Banner{}
	if err := r.db.SelectContext(ctx, &banners, query); err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}

	return banners, nil
}
