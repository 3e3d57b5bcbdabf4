// GreatK Platform | 2026
// dto.go

package catalog

import (
	"time"
)

type VideoResponse struct {
	ID           string   `json:"id"`
	Category     string   `json:"category"`
	Title        string   `json:"title"`
	Price        *float64 `json:"price,omitempty"`
	HindiURL     string   `json:"hindi_url"`
	EnglishURL   string   `json:"english_url"`
	ThumbnailURL *string  `json:"thumbnail_url,omitempty"`
	// Purchased is meaningful only in the paid listing: it mirrors
	// whether the file URLs are populated for this caller.
	Purchased bool      `json:"purchased"`
	CreatedAt time.Time `json:"created_at"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type BannerResponse struct {
	Slot      int       `json:"slot"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BannersResponse struct {
	Banners []BannerResponse `json:"banners"`
}

func ToVideoResponse(v *Video) VideoResponse {
	return VideoResponse{
		ID:           v.ID,
		Category:     v.Category,
		Title:        v.Title,
		Price:        v.Price,
		HindiURL:     v.HindiURL,
		EnglishURL:   v.EnglishURL,
		ThumbnailURL: v.ThumbnailURL,
		Purchased:    v.HindiURL != "",
		CreatedAt:    v.CreatedAt,
	}
}

func ToVideoResponseList(videos []Video) []VideoResponse {
	out := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		out = append(out, ToVideoResponse(&videos[i]))
	}
	return out
}

func ToBannerResponse(b *Banner) BannerResponse {
	return BannerResponse{Slot: b.Slot, URL: b.URL, UpdatedAt: b.UpdatedAt}
}

func ToBannerResponseList(banners []Banner) []BannerResponse {
	out := make([]BannerResponse, 0, len(banners))
	for i := range banners {
		out = append(out, ToBannerResponse(&banners[i]))
	}
	return out
}
