// GreatK Platform | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greatk-dev/greatk-api/internal/core"
)

type fakeUsers struct {
	byEmail map[string]*UserInfo
	nextID  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*UserInfo)}
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeUsers) CreateUnverified(
	_ context.Context,
	params CreateUserParams,
	_ string,
	_ time.Time,
) (*UserInfo, error) {
	if _, ok := f.byEmail[params.Email]; ok {
		return nil, core.ErrDuplicateKey
	}

	f.nextID++
	u := &UserInfo{
		ID:    fmt.Sprintf("user-%d", f.nextID),
		Email: params.Email,
		Name:  params.Name,
	}
	f.byEmail[params.Email] = u

	c := *u
	return &c, nil
}

func (f *fakeUsers) SetOTP(_ context.Context, userID, _ string, _ time.Time, _ bool) error {
	if _, err := f.GetByID(context.Background(), userID); err != nil {
		return err
	}
	return nil
}

func (f *fakeUsers) CheckOTP(_ context.Context, _, _ string) error { return nil }

func (f *fakeUsers) Verify(_ context.Context, userID, passwordHash string) error {
	for _, u := range f.byEmail {
		if u.ID == userID {
			u.Verified = true
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeUsers) IncrementTokenVersion(_ context.Context, _ string) error { return nil }

func (f *fakeUsers) UpdatePassword(_ context.Context, _, _ string) error { return nil }

type fakeRecorder struct {
	codes   map[string]bool
	records map[string]string // userID -> code, first record wins
}

func newFakeRecorder(codes ...string) *fakeRecorder {
	f := &fakeRecorder{
		codes:   make(map[string]bool),
		records: make(map[string]string),
	}
	for _, c := range codes {
		f.codes[c] = true
	}
	return f
}

func (f *fakeRecorder) ValidateCode(_ context.Context, code string) error {
	if !f.codes[code] {
		return core.ErrInvalidReferralCode
	}
	return nil
}

func (f *fakeRecorder) Record(_ context.Context, code, userID string) error {
	if !f.codes[code] {
		return core.ErrInvalidReferralCode
	}
	if _, ok := f.records[userID]; ok {
		return nil
	}
	f.records[userID] = code
	return nil
}

type fakeMailer struct {
	sent int
}

func (f *fakeMailer) SendOTP(_ context.Context, _, _ string) error {
	f.sent++
	return nil
}

func signupService(users *fakeUsers, recorder *fakeRecorder, mailer *fakeMailer) *Service {
	return NewService(nil, nil, users, recorder, mailer, nil, 5*time.Minute)
}

func signupRequest(email string, code *string) SignupRequest {
	return SignupRequest{
		Name:         "Asha",
		Age:          28,
		Gender:       "female",
		Address:      "Pune",
		Email:        email,
		ReferralCode: code,
	}
}

func TestSignupRecordsReferral(t *testing.T) {
	users := newFakeUsers()
	recorder := newFakeRecorder("a1b2c3")
	mailer := &fakeMailer{}
	svc := signupService(users, recorder, mailer)

	code := "a1b2c3"
	res, err := svc.Signup(context.Background(), signupRequest("asha@example.com", &code))
	require.NoError(t, err)

	assert.False(t, res.AlreadyRegistered)
	assert.Equal(t, 1, mailer.sent)

	u, err := users.GetByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3", recorder.records[u.ID])
}

func TestSignupInvalidReferralCodeCreatesNoUser(t *testing.T) {
	users := newFakeUsers()
	recorder := newFakeRecorder()
	mailer := &fakeMailer{}
	svc := signupService(users, recorder, mailer)

	code := "zzzzzz"
	_, err := svc.Signup(context.Background(), signupRequest("asha@example.com", &code))
	require.ErrorIs(t, err, core.ErrInvalidReferralCode)

	assert.Empty(t, users.byEmail, "rejected sign-up must not persist an account")
	assert.Zero(t, mailer.sent)
}

func TestSignupRetryAttachesReferral(t *testing.T) {
	users := newFakeUsers()
	recorder := newFakeRecorder("a1b2c3")
	mailer := &fakeMailer{}
	svc := signupService(users, recorder, mailer)

	first, err := svc.Signup(context.Background(), signupRequest("asha@example.com", nil))
	require.NoError(t, err)
	require.False(t, first.AlreadyRegistered)

	u, err := users.GetByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	require.Empty(t, recorder.records[u.ID])

	code := "a1b2c3"
	second, err := svc.Signup(context.Background(), signupRequest("asha@example.com", &code))
	require.NoError(t, err)

	assert.True(t, second.AlreadyRegistered)
	assert.Equal(t, "a1b2c3", recorder.records[u.ID],
		"code supplied on the repeat sign-up must be recorded")
	assert.Equal(t, 2, mailer.sent)
}

func TestSignupRetryKeepsFirstReferral(t *testing.T) {
	users := newFakeUsers()
	recorder := newFakeRecorder("a1b2c3", "d4e5f6")
	mailer := &fakeMailer{}
	svc := signupService(users, recorder, mailer)

	first := "a1b2c3"
	_, err := svc.Signup(context.Background(), signupRequest("asha@example.com", &first))
	require.NoError(t, err)

	other := "d4e5f6"
	_, err = svc.Signup(context.Background(), signupRequest("asha@example.com", &other))
	require.NoError(t, err)

	u, err := users.GetByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3", recorder.records[u.ID], "first record wins")
}

func TestSignupVerifiedEmailRejected(t *testing.T) {
	users := newFakeUsers()
	svc := signupService(users, newFakeRecorder(), &fakeMailer{})

	_, err := svc.Signup(context.Background(), signupRequest("asha@example.com", nil))
	require.NoError(t, err)

	u, err := users.GetByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	require.NoError(t, users.Verify(context.Background(), u.ID, "hash"))

	_, err = svc.Signup(context.Background(), signupRequest("asha@example.com", nil))
	assert.ErrorIs(t, err, ErrEmailExists)
}
