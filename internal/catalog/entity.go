// GreatK Platform | 2026
// entity.go

package catalog

import (
	"time"
)

const (
	CategoryFreeBusiness = "free_business"
	CategoryPaidBusiness = "paid_business"
	CategoryFreeGreatK   = "free_greatk"
)

func ValidCategory(c string) bool {
	switch c {
	case CategoryFreeBusiness, CategoryPaidBusiness, CategoryFreeGreatK:
		return true
	}
	return false
}

// Video carries both language variants of one lesson. Price is set
// only for the paid category; existing orders snapshot it, so edits
// here never affect past purchases.
type Video struct {
	ID           string    `db:"id"`
	Category     string    `db:"category"`
	Title        string    `db:"title"`
	Price        *float64  `db:"price"`
	HindiKey     string    `db:"hindi_key"`
	HindiURL     string    `db:"hindi_url"`
	EnglishKey   string    `db:"english_key"`
	EnglishURL   string    `db:"english_url"`
	ThumbnailKey *string   `db:"thumbnail_key"`
	ThumbnailURL *string   `db:"thumbnail_url"`
	CreatedAt    time.Time `db:"created_at"`
}

func (v *Video) IsPaid() bool {
	return v.Category == CategoryPaidBusiness
}

// Banner occupies one of three fixed home-screen slots.
type Banner struct {
	Slot      int       `db:"slot"`
	ObjectKey string    `db:"object_key"`
	URL       string    `db:"url"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	BannerSlotMin = 0
	BannerSlotMax = 2
)
