// GreatK Platform | 2026
// service_test.go

package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type fakeRepo struct {
	videos  map[string]*Video
	banners map[int]*Banner
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		videos:  make(map[string]*Video),
		banners: make(map[int]*Banner),
	}
}

func (f *fakeRepo) Insert(_ context.Context, v *Video) error {
	c := *v
	f.videos[v.ID] = &c
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (f *fakeRepo) ListByCategory(_ context.Context, category string) ([]Video, error) {
	out := []Video{}
	for _, v := range f.videos {
		if v.Category == category {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.videos[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.videos, id)
	return nil
}

func (f *fakeRepo) UpsertBanner(_ context.Context, b *Banner) error {
	c := *b
	f.banners[b.Slot] = &c
	return nil
}

func (f *fakeRepo) GetBanner(_ context.Context, slot int) (*Banner, error) {
	b, ok := f.banners[slot]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (f *fakeRepo) ListBanners(_ context.Context) ([]Banner, error) {
	out := []Banner{}
	for _, b := range f.banners {
		out = append(out, *b)
	}
	return out, nil
}

type fakeStore struct {
	objects map[string]string
	deleted []string
	failOn  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]string)}
}

func (f *fakeStore) Upload(_ context.Context, key, contentType string, _ io.Reader) (string, error) {
	if f.failOn != "" && strings.Contains(key, f.failOn) {
		return "", errors.New("upload failed")
	}
	f.objects[key] = contentType
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeEntitlements struct {
	owned map[string][]string
}

func (f *fakeEntitlements) PurchasedVideoIDs(_ context.Context, userID string) ([]string, error) {
	return f.owned[userID], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(v float64) *float64 { return &v }

func uploadParams(category string, price *float64) UploadVideoParams {
	return UploadVideoParams{
		Category: category,
		Title:    "Intro",
		Price:    price,
		Hindi:    FilePart{Reader: strings.NewReader("h"), ContentType: "video/mp4", Filename: "hindi.mp4"},
		English:  FilePart{Reader: strings.NewReader("e"), ContentType: "video/mp4", Filename: "english.mp4"},
	}
}

func TestUploadVideo(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, &fakeEntitlements{}, testLogger())

	params := uploadParams(CategoryPaidBusiness, floatPtr(499))
	params.Thumbnail = &FilePart{
		Reader:      strings.NewReader("t"),
		ContentType: "image/png",
		Filename:    "thumb.PNG",
	}

	v, err := svc.UploadVideo(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "videos/"+v.ID+"/hindi.mp4", v.HindiKey)
	assert.Equal(t, "https://cdn.test/"+v.EnglishKey, v.EnglishURL)
	require.NotNil(t, v.ThumbnailKey)
	assert.Equal(t, "videos/"+v.ID+"/thumbnail.png", *v.ThumbnailKey)
	assert.Len(t, store.objects, 3)

	_, err = repo.GetByID(context.Background(), v.ID)
	assert.NoError(t, err)
}

func TestUploadVideoRejectsBadCategory(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeStore(), &fakeEntitlements{}, testLogger())

	_, err := svc.UploadVideo(context.Background(), uploadParams("premium", nil))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUploadVideoPriceRules(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeStore(), &fakeEntitlements{}, testLogger())

	_, err := svc.UploadVideo(context.Background(), uploadParams(CategoryPaidBusiness, nil))
	assert.ErrorIs(t, err, core.ErrInvalidInput, "paid without price")

	_, err = svc.UploadVideo(context.Background(), uploadParams(CategoryPaidBusiness, floatPtr(0)))
	assert.ErrorIs(t, err, core.ErrInvalidInput, "paid with zero price")

	_, err = svc.UploadVideo(context.Background(), uploadParams(CategoryFreeBusiness, floatPtr(100)))
	assert.ErrorIs(t, err, core.ErrInvalidInput, "free with price")
}

func TestUploadVideoCleansUpOnPartialFailure(t *testing.T) {
	store := newFakeStore()
	store.failOn = "english"
	svc := NewService(newFakeRepo(), store, &fakeEntitlements{}, testLogger())

	_, err := svc.UploadVideo(context.Background(), uploadParams(CategoryPaidBusiness, floatPtr(499)))
	require.Error(t, err)
	assert.Empty(t, store.objects, "hindi object removed after english failed")
}

func TestListVideosMasksUnpurchasedPaidURLs(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["owned"] = &Video{
		ID: "owned", Category: CategoryPaidBusiness,
		HindiURL: "h-owned", EnglishURL: "e-owned",
	}
	repo.videos["locked"] = &Video{
		ID: "locked", Category: CategoryPaidBusiness,
		HindiURL: "h-locked", EnglishURL: "e-locked",
	}

	ents := &fakeEntitlements{owned: map[string][]string{"u1": {"owned"}}}
	svc := NewService(repo, newFakeStore(), ents, testLogger())

	videos, err := svc.ListVideos(context.Background(), CategoryPaidBusiness, "u1", false)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	byID := make(map[string]Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	assert.Equal(t, "h-owned", byID["owned"].HindiURL)
	assert.Empty(t, byID["locked"].HindiURL)
	assert.Empty(t, byID["locked"].EnglishURL)
}

func TestListVideosAdminSeesEverything(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["locked"] = &Video{
		ID: "locked", Category: CategoryPaidBusiness,
		HindiURL: "h", EnglishURL: "e",
	}

	svc := NewService(repo, newFakeStore(), &fakeEntitlements{}, testLogger())

	videos, err := svc.ListVideos(context.Background(), CategoryPaidBusiness, "admin", true)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "h", videos[0].HindiURL)
}

func TestListVideosFreeCategoryUnmasked(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["v"] = &Video{
		ID: "v", Category: CategoryFreeGreatK,
		HindiURL: "h", EnglishURL: "e",
	}

	svc := NewService(repo, newFakeStore(), &fakeEntitlements{}, testLogger())

	videos, err := svc.ListVideos(context.Background(), CategoryFreeGreatK, "u1", false)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "h", videos[0].HindiURL)
}

func TestListVideosRejectsUnknownCategory(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeStore(), &fakeEntitlements{}, testLogger())

	_, err := svc.ListVideos(context.Background(), "mystery", "u1", false)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestDeleteVideoRemovesObjects(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, &fakeEntitlements{}, testLogger())

	v, err := svc.UploadVideo(context.Background(), uploadParams(CategoryPaidBusiness, floatPtr(499)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVideo(context.Background(), v.ID))
	assert.Empty(t, store.objects)

	err = svc.DeleteVideo(context.Background(), v.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSetBannerReplacesSlot(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, &fakeEntitlements{}, testLogger())

	first, err := svc.SetBanner(context.Background(), 1, FilePart{
		Reader: strings.NewReader("a"), ContentType: "image/png", Filename: "a.png",
	})
	require.NoError(t, err)

	second, err := svc.SetBanner(context.Background(), 1, FilePart{
		Reader: strings.NewReader("b"), ContentType: "image/png", Filename: "b.png",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ObjectKey, second.ObjectKey)
	assert.Contains(t, store.deleted, first.ObjectKey, "previous object removed")

	banners, err := svc.ListBanners(context.Background())
	require.NoError(t, err)
	require.Len(t, banners, 1)
	assert.Equal(t, second.URL, banners[0].URL)
}

func TestSetBannerRejectsBadSlot(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeStore(), &fakeEntitlements{}, testLogger())

	for _, slot := range []int{-1, 3} {
		_, err := svc.SetBanner(context.Background(), slot, FilePart{
			Reader: strings.NewReader("a"), ContentType: "image/png", Filename: "a.png",
		})
		assert.ErrorIs(t, err, core.ErrInvalidInput, "slot %d", slot)
	}
}
