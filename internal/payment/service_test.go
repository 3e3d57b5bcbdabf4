// GreatK Platform | 2026
// service_test.go

package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greatk-dev/greatk-api/internal/core"
	"github.com/greatk-dev/greatk-api/internal/order"
)

// The fakes below honor the same conditional-update contract the SQL
// repositories implement: transitions and flag flips succeed at most
// once, even under concurrent callers.

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func newFakeOrders(orders ...*order.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[string]*order.Order)}
	for _, o := range orders {
		c := *o
		f.orders[o.OrderID] = &c
	}
	return f
}

func (f *fakeOrders) get(id string) *order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil
	}
	c := *o
	return &c
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	o := f.get(id)
	if o == nil {
		return nil, core.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) MarkPaid(
	_ context.Context,
	id string,
) (*order.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return nil, false, core.ErrNotFound
	}

	transitioned := o.Status == order.StatusPending
	if transitioned {
		o.Status = order.StatusPaid
	}

	c := *o
	return &c, transitioned, nil
}

func (f *fakeOrders) MarkReferralPaid(
	_ context.Context,
	id string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok || o.ReferralPaid {
		return false, nil
	}
	o.ReferralPaid = true
	return true, nil
}

func (f *fakeOrders) ResetReferralPaid(
	_ context.Context,
	id string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok || !o.ReferralPaid {
		return false, nil
	}
	o.ReferralPaid = false
	return true, nil
}

type fakeReferrals struct {
	mu         sync.Mutex
	subscribed map[string]bool // referrerID|referredUserID -> subscribed
}

func newFakeReferrals(pairs ...[2]string) *fakeReferrals {
	f := &fakeReferrals{subscribed: make(map[string]bool)}
	for _, p := range pairs {
		f.subscribed[p[0]+"|"+p[1]] = false
	}
	return f
}

func (f *fakeReferrals) MarkSubscribed(
	_ context.Context,
	referrerID, referredUserID string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := referrerID + "|" + referredUserID
	sub, ok := f.subscribed[key]
	if !ok || sub {
		return false, nil
	}
	f.subscribed[key] = true
	return true, nil
}

func (f *fakeReferrals) Subscribed(
	_ context.Context,
	referrerID, referredUserID string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed[referrerID+"|"+referredUserID], nil
}

func (f *fakeReferrals) isSubscribed(referrerID, referredUserID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed[referrerID+"|"+referredUserID]
}

type fakeEntitlements struct {
	mu           sync.Mutex
	granted      map[string]map[string]int
	missingUsers map[string]bool
	failures     int
}

func newFakeEntitlements() *fakeEntitlements {
	return &fakeEntitlements{
		granted:      make(map[string]map[string]int),
		missingUsers: make(map[string]bool),
	}
}

func (f *fakeEntitlements) GrantVideo(
	_ context.Context,
	userID, videoID string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.missingUsers[userID] {
		return false, core.ErrNotFound
	}

	if f.failures > 0 {
		f.failures--
		return false, errors.New("entitlement store unavailable")
	}

	if f.granted[userID] == nil {
		f.granted[userID] = make(map[string]int)
	}
	added := f.granted[userID][videoID] == 0
	f.granted[userID][videoID]++
	return added, nil
}

func (f *fakeEntitlements) has(userID, videoID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted[userID][videoID] > 0
}

type fakePayout struct {
	mu       sync.Mutex
	calls    int
	lastUser string
	lastAmt  float64
	failErr  error
}

func (f *fakePayout) Payout(
	_ context.Context,
	userID string,
	amount float64,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.failErr != nil {
		return f.failErr
	}
	f.lastUser = userID
	f.lastAmt = amount
	return nil
}

func (f *fakePayout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func pendingOrder(id, userID, videoID string, amount float64, referrerID *string) *order.Order {
	return &order.Order{
		OrderID:    id,
		UserID:     userID,
		VideoID:    videoID,
		Amount:     amount,
		Status:     order.StatusPending,
		ReferrerID: referrerID,
	}
}

func TestSettleWithoutReferrer(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 100, nil))
	referrals := newFakeReferrals()
	entitlements := newFakeEntitlements()
	payout := &fakePayout{}

	svc := NewService(orders, referrals, entitlements, payout, testLogger())

	res, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettled, res.Outcome)
	assert.True(t, entitlements.has("u1", "v1"))
	assert.Equal(t, 0, payout.count())
	assert.False(t, res.PayoutIssued)
	assert.Equal(t, order.StatusPaid, orders.get("ord1").Status)
	assert.Empty(t, res.Faults)
}

func TestSettleWithReferrer(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 200, strPtr("ref")))
	referrals := newFakeReferrals([2]string{"ref", "u1"})
	entitlements := newFakeEntitlements()
	payout := &fakePayout{}

	svc := NewService(orders, referrals, entitlements, payout, testLogger())

	res, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettled, res.Outcome)
	assert.True(t, entitlements.has("u1", "v1"))
	assert.True(t, referrals.isSubscribed("ref", "u1"))
	assert.Equal(t, 1, payout.count())
	assert.Equal(t, "ref", payout.lastUser)
	assert.InDelta(t, 100.0, payout.lastAmt, 1e-9)
	assert.True(t, res.PayoutIssued)
	assert.True(t, orders.get("ord1").ReferralPaid)
}

func TestSettleRepeatedDeliveryIsNoOp(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 200, strPtr("ref")))
	referrals := newFakeReferrals([2]string{"ref", "u1"})
	entitlements := newFakeEntitlements()
	payout := &fakePayout{}

	svc := NewService(orders, referrals, entitlements, payout, testLogger())

	first, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.NoError(t, err)
	require.Equal(t, OutcomeSettled, first.Outcome)

	second, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadySettled, second.Outcome)
	assert.Equal(t, 1, payout.count())
	assert.True(t, orders.get("ord1").ReferralPaid)
	assert.True(t, referrals.isSubscribed("ref", "u1"))
	assert.Empty(t, second.Faults, "already-flipped relationship is not a fault")
}

func TestSettleGrantFailureRecoveredOnRedelivery(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 200, strPtr("ref")))
	referrals := newFakeReferrals([2]string{"ref", "u1"})
	entitlements := newFakeEntitlements()
	entitlements.failures = 1
	payout := &fakePayout{}

	svc := NewService(orders, referrals, entitlements, payout, testLogger())

	_, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.Error(t, err)

	// MarkPaid committed before the grant failed, so nothing downstream
	// has happened yet.
	require.Equal(t, order.StatusPaid, orders.get("ord1").Status)
	assert.False(t, entitlements.has("u1", "v1"))
	assert.False(t, referrals.isSubscribed("ref", "u1"))
	assert.Equal(t, 0, payout.count())

	res, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadySettled, res.Outcome)
	assert.True(t, entitlements.has("u1", "v1"))
	assert.True(t, referrals.isSubscribed("ref", "u1"))
	assert.Equal(t, 1, payout.count())
	assert.True(t, res.PayoutIssued)
	assert.Empty(t, res.Faults)
}

func TestSettleConcurrentDeliveriesPayExactlyOnce(t *testing.T) {
	const deliveries = 8

	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 200, strPtr("ref")))
	referrals := newFakeReferrals([2]string{"ref", "u1"})
	entitlements := newFakeEntitlements()
	payout := &fakePayout{}

	svc := NewService(orders, referrals, entitlements, payout, testLogger())

	var wg sync.WaitGroup
	errs := make([]error, deliveries)
	for i := range deliveries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, payout.count())
	assert.True(t, entitlements.has("u1", "v1"))
	assert.Equal(t, order.StatusPaid, orders.get("ord1").Status)
	assert.True(t, orders.get("ord1").ReferralPaid)
}

func TestSettleUnknownOrder(t *testing.T) {
	svc := NewService(
		newFakeOrders(),
		newFakeReferrals(),
		newFakeEntitlements(),
		&fakePayout{},
		testLogger(),
	)

	_, err := svc.Settle(context.Background(), "missing", "SUCCESS", "u1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSettleNonSuccessStatus(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 100, strPtr("ref")))
	entitlements := newFakeEntitlements()
	payout := &fakePayout{}

	svc := NewService(
		orders,
		newFakeReferrals([2]string{"ref", "u1"}),
		entitlements,
		payout,
		testLogger(),
	)

	for _, status := range []string{"FAILED", "PENDING", "USER_DROPPED", "whatever"} {
		res, err := svc.Settle(context.Background(), "ord1", status, "u1")
		require.NoError(t, err, status)
		assert.Equal(t, OutcomeSkipped, res.Outcome, status)
	}

	assert.Equal(t, order.StatusPending, orders.get("ord1").Status)
	assert.False(t, entitlements.has("u1", "v1"))
	assert.Equal(t, 0, payout.count())
}

func TestSettleMissingPurchaserIsFatal(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "ghost", "v1", 100, nil))
	entitlements := newFakeEntitlements()
	entitlements.missingUsers["ghost"] = true

	svc := NewService(
		orders,
		newFakeReferrals(),
		entitlements,
		&fakePayout{},
		testLogger(),
	)

	_, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSettleMissingReferralRelationshipContinues(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 200, strPtr("ref")))
	entitlements := newFakeEntitlements()
	payout := &fakePayout{}

	// No relationship recorded: the flip has nothing to match.
	svc := NewService(orders, newFakeReferrals(), entitlements, payout, testLogger())

	res, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettled, res.Outcome)
	assert.NotEmpty(t, res.Faults)
	assert.True(t, entitlements.has("u1", "v1"))
	assert.Equal(t, 1, payout.count())
}

func TestSettlePayoutFailureRetriedOnRedelivery(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 200, strPtr("ref")))
	referrals := newFakeReferrals([2]string{"ref", "u1"})
	entitlements := newFakeEntitlements()
	payout := &fakePayout{failErr: errors.New("rail down")}

	svc := NewService(orders, referrals, entitlements, payout, testLogger())

	_, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.ErrorIs(t, err, core.ErrExternalService)

	// The claim is released so the next delivery retries the payout.
	assert.False(t, orders.get("ord1").ReferralPaid)
	assert.Equal(t, order.StatusPaid, orders.get("ord1").Status)

	payout.failErr = nil

	res, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "u1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadySettled, res.Outcome)
	assert.True(t, res.PayoutIssued)
	assert.True(t, orders.get("ord1").ReferralPaid)
	assert.Equal(t, 2, payout.count())
}

func TestSettleCustomerMismatchIsRecorded(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 100, nil))
	entitlements := newFakeEntitlements()

	svc := NewService(
		orders,
		newFakeReferrals(),
		entitlements,
		&fakePayout{},
		testLogger(),
	)

	res, err := svc.Settle(context.Background(), "ord1", "SUCCESS", "someone-else")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettled, res.Outcome)
	assert.NotEmpty(t, res.Faults)
	// The order, not the webhook, names the purchaser.
	assert.True(t, entitlements.has("u1", "v1"))
}
