// GreatK Platform | 2026
// service_test.go

package order

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type fakeRepo struct {
	mu          sync.Mutex
	orders      map[string]*Order
	users       map[string]bool
	videoPrices map[string]float64
	referrers   map[string]string

	existsCollisions int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:      make(map[string]*Order),
		users:       make(map[string]bool),
		videoPrices: make(map[string]float64),
		referrers:   make(map[string]string),
	}
}

func (f *fakeRepo) Insert(_ context.Context, o *Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *o
	f.orders[o.OrderID] = &c
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (f *fakeRepo) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsCollisions > 0 {
		f.existsCollisions--
		return true, nil
	}
	_, ok := f.orders[id]
	return ok, nil
}

func (f *fakeRepo) MarkPaid(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != StatusPending {
		return false, nil
	}
	o.Status = StatusPaid
	return true, nil
}

func (f *fakeRepo) MarkReferralPaid(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.ReferralPaid {
		return false, nil
	}
	o.ReferralPaid = true
	return true, nil
}

func (f *fakeRepo) ResetReferralPaid(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || !o.ReferralPaid {
		return false, nil
	}
	o.ReferralPaid = false
	return true, nil
}

func (f *fakeRepo) UserExists(_ context.Context, id string) (bool, error) {
	return f.users[id], nil
}

func (f *fakeRepo) PaidVideoPrice(_ context.Context, id string) (float64, error) {
	price, ok := f.videoPrices[id]
	if !ok {
		return 0, core.ErrNotFound
	}
	return price, nil
}

func (f *fakeRepo) ReferrerOf(_ context.Context, userID string) (*string, error) {
	ref, ok := f.referrers[userID]
	if !ok {
		return nil, nil
	}
	return &ref, nil
}

var orderIDPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

func TestGenerateOrderIDShape(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		id, err := generateOrderID()
		require.NoError(t, err)
		assert.Regexp(t, orderIDPattern, id)

		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewOrderIDRetriesOnCollision(t *testing.T) {
	repo := newFakeRepo()
	repo.existsCollisions = 2
	svc := NewService(repo)

	id, err := svc.newOrderID(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, orderIDPattern, id)
}

func TestCreateSnapshotsPriceAndReferrer(t *testing.T) {
	repo := newFakeRepo()
	repo.users["u1"] = true
	repo.videoPrices["v1"] = 499
	repo.referrers["u1"] = "ref"

	svc := NewService(repo)

	o, err := svc.Create(context.Background(), "u1", "v1")
	require.NoError(t, err)

	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "v1", o.VideoID)
	assert.InDelta(t, 499.0, o.Amount, 1e-9)
	assert.Equal(t, StatusPending, o.Status)
	require.NotNil(t, o.ReferrerID)
	assert.Equal(t, "ref", *o.ReferrerID)
	assert.False(t, o.ReferralPaid)

	stored, err := repo.GetByID(context.Background(), o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderID, stored.OrderID)
}

func TestCreateWithoutReferrer(t *testing.T) {
	repo := newFakeRepo()
	repo.users["u1"] = true
	repo.videoPrices["v1"] = 100

	svc := NewService(repo)

	o, err := svc.Create(context.Background(), "u1", "v1")
	require.NoError(t, err)
	assert.Nil(t, o.ReferrerID)
}

func TestCreateUnknownUser(t *testing.T) {
	repo := newFakeRepo()
	repo.videoPrices["v1"] = 100

	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "ghost", "v1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateUnknownOrFreeVideo(t *testing.T) {
	repo := newFakeRepo()
	repo.users["u1"] = true

	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "u1", "not-paid")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.users["u1"] = true
	repo.videoPrices["v1"] = 100

	svc := NewService(repo)

	o, err := svc.Create(context.Background(), "u1", "v1")
	require.NoError(t, err)

	first, transitioned, err := svc.MarkPaid(context.Background(), o.OrderID)
	require.NoError(t, err)
	assert.True(t, transitioned)
	assert.Equal(t, StatusPaid, first.Status)

	second, transitioned, err := svc.MarkPaid(context.Background(), o.OrderID)
	require.NoError(t, err)
	assert.False(t, transitioned)
	assert.Equal(t, StatusPaid, second.Status)
	assert.Equal(t, first.OrderID, second.OrderID)
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, _, err := svc.MarkPaid(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMarkReferralPaidFlipsOnce(t *testing.T) {
	repo := newFakeRepo()
	repo.users["u1"] = true
	repo.videoPrices["v1"] = 100

	svc := NewService(repo)

	o, err := svc.Create(context.Background(), "u1", "v1")
	require.NoError(t, err)

	flipped, err := svc.MarkReferralPaid(context.Background(), o.OrderID)
	require.NoError(t, err)
	assert.True(t, flipped)

	again, err := svc.MarkReferralPaid(context.Background(), o.OrderID)
	require.NoError(t, err)
	assert.False(t, again)
}
