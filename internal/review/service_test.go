// GreatK Platform | 2026
// service_test.go

package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greatk-dev/greatk-api/internal/auth"
	"github.com/greatk-dev/greatk-api/internal/core"
)

type fakeRepo struct {
	byUser map[string]*Review
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byUser: make(map[string]*Review)}
}

func (f *fakeRepo) Upsert(_ context.Context, rev *Review) error {
	if existing, ok := f.byUser[rev.UserID]; ok {
		existing.Username = rev.Username
		existing.Body = rev.Body
		return nil
	}
	c := *rev
	f.byUser[rev.UserID] = &c
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Review, error) {
	for _, rev := range f.byUser {
		if rev.ID == id {
			c := *rev
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context) ([]Review, error) {
	out := []Review{}
	for _, rev := range f.byUser {
		out = append(out, *rev)
	}
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	for userID, rev := range f.byUser {
		if rev.ID == id {
			delete(f.byUser, userID)
			return nil
		}
	}
	return core.ErrNotFound
}

type fakeUsers struct {
	names map[string]string
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*auth.UserInfo, error) {
	name, ok := f.names[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &auth.UserInfo{ID: id, Name: name}, nil
}

func TestPostUsesAccountName(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUsers{names: map[string]string{"u1": "Asha"}})

	rev, err := svc.Post(context.Background(), "u1", "", "great course")
	require.NoError(t, err)
	assert.Equal(t, "Asha", rev.Username)
	assert.Equal(t, "great course", rev.Body)
}

func TestPostHonorsDisplayNameOverride(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUsers{})

	rev, err := svc.Post(context.Background(), "admin-1", "GreatK Team", "welcome")
	require.NoError(t, err)
	assert.Equal(t, "GreatK Team", rev.Username)
}

func TestPostReplacesExistingReview(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUsers{names: map[string]string{"u1": "Asha"}})

	_, err := svc.Post(context.Background(), "u1", "", "first take")
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), "u1", "", "second take")
	require.NoError(t, err)

	reviews, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "second take", reviews[0].Body)
}

func TestDeleteOwnerAndAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUsers{names: map[string]string{"u1": "Asha"}})

	rev, err := svc.Post(context.Background(), "u1", "", "mine")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "u2", false, rev.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), "u1", false, rev.ID))

	rev, err = svc.Post(context.Background(), "u1", "", "again")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), "admin", true, rev.ID))

	err = svc.Delete(context.Background(), "u1", false, rev.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
