// GreatK Platform | 2026
// service_test.go

package referral

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type fakeRepo struct {
	codes   map[string]string
	records map[string]*Referral
	details []Detail
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		codes:   make(map[string]string),
		records: make(map[string]*Referral),
	}
}

func (f *fakeRepo) Create(_ context.Context, ref *Referral) error {
	if _, ok := f.records[ref.ReferredUserID]; ok {
		return nil
	}
	c := *ref
	f.records[ref.ReferredUserID] = &c
	return nil
}

func (f *fakeRepo) ReferrerIDByCode(_ context.Context, code string) (string, error) {
	id, ok := f.codes[code]
	if !ok {
		return "", core.ErrInvalidReferralCode
	}
	return id, nil
}

func (f *fakeRepo) GetByReferredUser(_ context.Context, referredUserID string) (*Referral, error) {
	ref, ok := f.records[referredUserID]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *ref
	return &c, nil
}

func (f *fakeRepo) MarkSubscribed(_ context.Context, referrerID, referredUserID string) (bool, error) {
	ref, ok := f.records[referredUserID]
	if !ok || ref.ReferrerID != referrerID || ref.Subscribed {
		return false, nil
	}
	ref.Subscribed = true
	return true, nil
}

func (f *fakeRepo) ListDetails(_ context.Context) ([]Detail, error) {
	out := make([]Detail, len(f.details))
	copy(out, f.details)
	return out, nil
}

func TestRecordResolvesCode(t *testing.T) {
	repo := newFakeRepo()
	repo.codes["a1b2c3"] = "referrer-1"

	svc := NewService(repo)

	err := svc.Record(context.Background(), "a1b2c3", "new-user")
	require.NoError(t, err)

	ref, err := repo.GetByReferredUser(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Equal(t, "referrer-1", ref.ReferrerID)
	assert.NotEmpty(t, ref.ID)
	assert.False(t, ref.Subscribed)
}

func TestRecordInvalidCode(t *testing.T) {
	svc := NewService(newFakeRepo())

	err := svc.Record(context.Background(), "zzzzzz", "new-user")
	assert.ErrorIs(t, err, core.ErrInvalidReferralCode)
}

func TestRecordRepeatIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	repo.codes["a1b2c3"] = "referrer-1"
	repo.codes["d4e5f6"] = "referrer-2"

	svc := NewService(repo)

	require.NoError(t, svc.Record(context.Background(), "a1b2c3", "new-user"))
	require.NoError(t, svc.Record(context.Background(), "d4e5f6", "new-user"))

	ref, err := repo.GetByReferredUser(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Equal(t, "referrer-1", ref.ReferrerID, "first record wins")
}

func TestMarkSubscribedFlipsOnce(t *testing.T) {
	repo := newFakeRepo()
	repo.codes["a1b2c3"] = "referrer-1"

	svc := NewService(repo)
	require.NoError(t, svc.Record(context.Background(), "a1b2c3", "new-user"))

	flipped, err := svc.MarkSubscribed(context.Background(), "referrer-1", "new-user")
	require.NoError(t, err)
	assert.True(t, flipped)

	again, err := svc.MarkSubscribed(context.Background(), "referrer-1", "new-user")
	require.NoError(t, err)
	assert.False(t, again)
}

func TestMarkSubscribedUnknownRelationship(t *testing.T) {
	svc := NewService(newFakeRepo())

	flipped, err := svc.MarkSubscribed(context.Background(), "referrer-1", "nobody")
	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestSubscribed(t *testing.T) {
	repo := newFakeRepo()
	repo.codes["a1b2c3"] = "referrer-1"

	svc := NewService(repo)
	require.NoError(t, svc.Record(context.Background(), "a1b2c3", "new-user"))

	sub, err := svc.Subscribed(context.Background(), "referrer-1", "new-user")
	require.NoError(t, err)
	assert.False(t, sub, "not yet flipped")

	sub, err = svc.Subscribed(context.Background(), "referrer-1", "stranger")
	require.NoError(t, err)
	assert.False(t, sub, "missing relationship reads as false")

	_, err = svc.MarkSubscribed(context.Background(), "referrer-1", "new-user")
	require.NoError(t, err)

	sub, err = svc.Subscribed(context.Background(), "referrer-1", "new-user")
	require.NoError(t, err)
	assert.True(t, sub)

	sub, err = svc.Subscribed(context.Background(), "someone-else", "new-user")
	require.NoError(t, err)
	assert.False(t, sub, "referrer must match")
}

func TestListDetailsComputesShare(t *testing.T) {
	repo := newFakeRepo()
	repo.details = []Detail{
		{OrderID: "o1", Amount: 500, ReferralPaid: true},
		{OrderID: "o2", Amount: 199, ReferralPaid: false},
	}

	svc := NewService(repo)

	details, err := svc.ListDetails(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.InDelta(t, 250.0, details[0].ReferrerShare, 1e-9)
	assert.InDelta(t, 99.5, details[1].ReferrerShare, 1e-9)
}
