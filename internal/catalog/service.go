// GreatK Platform | 2026
// service.go

package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/greatk-dev/greatk-api/internal/core"
)

// ObjectStore is the slice of the storage layer the catalog needs.
type ObjectStore interface {
	Upload(
		ctx context.Context,
		key, contentType string,
		body io.Reader,
	) (string, error)
	Delete(ctx context.Context, key string) error
}

// Entitlements answers which paid videos a user has purchased.
type Entitlements interface {
	PurchasedVideoIDs(ctx context.Context, userID string) ([]string, error)
}

type FilePart struct {
	Reader      io.Reader
	ContentType string
	Filename    string
}

type UploadVideoParams struct {
	Category  string
	Title     string
	Price     *float64
	Hindi     FilePart
	English   FilePart
	Thumbnail *FilePart
}

type Service struct {
	repo         Repository
	store        ObjectStore
	entitlements Entitlements
	logger       *slog.Logger
}

func NewService(
	repo Repository,
	store ObjectStore,
	entitlements Entitlements,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		store:        store,
		entitlements: entitlements,
		logger:       logger,
	}
}

// UploadVideo stores both language files (and the optional thumbnail)
// and persists the catalog row. A price is required for the paid
// category and rejected elsewhere.
func (s *Service) UploadVideo(
	ctx context.Context,
	params UploadVideoParams,
) (*Video, error) {
	if !ValidCategory(params.Category) {
		return nil, fmt.Errorf("upload video: category: %w", core.ErrInvalidInput)
	}

	paid := params.Category == CategoryPaidBusiness
	if paid && (params.Price == nil || *params.Price <= 0) {
		return nil, fmt.Errorf(
			"upload video: paid videos need a positive price: %w",
			core.ErrInvalidInput,
		)
	}
	if !paid && params.Price != nil {
		return nil, fmt.Errorf(
			"upload video: free videos cannot carry a price: %w",
			core.ErrInvalidInput,
		)
	}

	id := uuid.New().String()

	hindiKey := objectKey("videos", id, "hindi", params.Hindi.Filename)
	hindiURL, err := s.store.Upload(
		ctx, hindiKey, params.Hindi.ContentType, params.Hindi.Reader,
	)
	if err != nil {
		return nil, fmt.Errorf("upload hindi file: %w", err)
	}

	englishKey := objectKey("videos", id, "english", params.English.Filename)
	englishURL, err := s.store.Upload(
		ctx, englishKey, params.English.ContentType, params.English.Reader,
	)
	if err != nil {
		s.cleanupObjects(ctx, hindiKey)
		return nil, fmt.Errorf("upload english file: %w", err)
	}

	v := &Video{
		ID:         id,
		Category:   params.Category,
		Title:      params.Title,
		Price:      params.Price,
		HindiKey:   hindiKey,
		HindiURL:   hindiURL,
		EnglishKey: englishKey,
		EnglishURL: englishURL,
	}

	if params.Thumbnail != nil {
		thumbKey := objectKey("videos", id, "thumbnail", params.Thumbnail.Filename)
		thumbURL, err := s.store.Upload(
			ctx, thumbKey, params.Thumbnail.ContentType, params.Thumbnail.Reader,
		)
		if err != nil {
			s.cleanupObjects(ctx, hindiKey, englishKey)
			return nil, fmt.Errorf("upload thumbnail: %w", err)
		}
		v.ThumbnailKey = &thumbKey
		v.ThumbnailURL = &thumbURL
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		keys := []string{hindiKey, englishKey}
		if v.ThumbnailKey != nil {
			keys = append(keys, *v.ThumbnailKey)
		}
		s.cleanupObjects(ctx, keys...)
		return nil, err
	}

	return v, nil
}

// ListVideos returns one category. For the paid category, file URLs
// are blanked on videos the caller has not purchased; admins and free
// categories are returned as stored.
func (s *Service) ListVideos(
	ctx context.Context,
	category, callerID string,
	isAdmin bool,
) ([]Video, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("list videos: category: %w", core.ErrInvalidInput)
	}

	videos, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	if category != CategoryPaidBusiness || isAdmin {
		return videos, nil
	}

	purchased, err := s.entitlements.PurchasedVideoIDs(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("load entitlements: %w", err)
	}

	owned := make(map[string]struct{}, len(purchased))
	for _, id := range purchased {
		owned[id] = struct{}{}
	}

	for i := range videos {
		if _, ok := owned[videos[i].ID]; !ok {
			videos[i].HindiURL = ""
			videos[i].EnglishURL = ""
		}
	}

	return videos, nil
}

func (s *Service) GetVideo(ctx context.Context, id string) (*Video, error) {
	return s.repo.GetByID(ctx, id)
}

// DeleteVideo removes the catalog row first, then best-effort deletes
// the stored objects. Orders referencing the video keep their snapshot.
func (s *Service) DeleteVideo(ctx context.Context, id string) error {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	keys := []string{v.HindiKey, v.EnglishKey}
	if v.ThumbnailKey != nil {
		keys = append(keys, *v.ThumbnailKey)
	}
	s.cleanupObjects(ctx, keys...)

	return nil
}

// SetBanner replaces the banner in a slot, removing the previous
// object once the new one is in place.
func (s *Service) SetBanner(
	ctx context.Context,
	slot int,
	file FilePart,
) (*Banner, error) {
	if slot < BannerSlotMin || slot > BannerSlotMax {
		return nil, fmt.Errorf("set banner: slot: %w", core.ErrInvalidInput)
	}

	var oldKey string
	if existing, err := s.repo.GetBanner(ctx, slot); err == nil {
		oldKey = existing.ObjectKey
	}

	key := objectKey("banners", uuid.New().String(), "banner", file.Filename)
	url, err := s.store.Upload(ctx, key, file.ContentType, file.Reader)
	if err != nil {
		return nil, fmt.Errorf("upload banner: %w", err)
	}

	b := &Banner{Slot: slot, ObjectKey: key, URL: url}
	if err := s.repo.UpsertBanner(ctx, b); err != nil {
		s.cleanupObjects(ctx, key)
		return nil, err
	}

	if oldKey != "" && oldKey != key {
		s.cleanupObjects(ctx, oldKey)
	}

	return b, nil
}

func (s *Service) ListBanners(ctx context.Context) ([]Banner, error) {
	return s.repo.ListBanners(ctx)
}

func (s *Service) cleanupObjects(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to delete stored object",
				"key", key,
				"error", err,
			)
		}
	}
}

func objectKey(prefix, id, variant, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", prefix, id, variant, ext)
}
