package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/cocoiru/internal/db"
	"github.com/Skotchmaster/cocoiru/internal/hash"
	"github.com/Skotchmaster/cocoiru/internal/models"
	"github.com/Skotchmaster/cocoiru/internal/mykafka"
	"github.com/Skotchmaster/cocoiru/internal/repo"
	"github.com/Skotchmaster/cocoiru/internal/tokens"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []mykafka.AuthEvent
}

func (r *recorder) PublishEvent(_ context.Context, _, _ string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev, ok := event.(mykafka.AuthEvent); ok {
		r.events = append(r.events, ev)
	}
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	svc    *AuthService
	repo   *repo.GormRepo
	clock  *clock
	events *recorder
	cfg    tokens.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	hasher := hash.Hasher{Cost: bcrypt.MinCost}
	rp := &repo.GormRepo{DB: gdb, Hasher: hasher}
	c := &clock{now: time.Now().Truncate(time.Second)}
	cfg := tokens.Config{
		Secret:    []byte("test-jwt-secret"),
		Algorithm: "HS256",
		TTL:       3 * time.Hour,
		Now:       c.Now,
	}

	svc := NewAuthService(rp, rp, cfg, hasher)
	rec := &recorder{}
	svc.Events = rec

	return &testEnv{svc: svc, repo: rp, clock: c, events: rec, cfg: cfg}
}

func (env *testEnv) registerCommunity(t *testing.T, password string) *models.Community {
	t.Helper()
	c, err := env.svc.RegisterCommunity(context.Background(), CommunityInput{Name: "Shelter", Password: password, MemberCount: 12})
	require.NoError(t, err)
	return c
}

func (env *testEnv) registerGov(t *testing.T, username, password string, active bool) {
	t.Helper()
	_, err := env.svc.RegisterGovUser(context.Background(), GovUserInput{Username: username, Password: password, IsActive: &active})
	require.NoError(t, err)
}

// untouchedStore fails the test on any storage access.
type untouchedStore struct{ t *testing.T }

func (s untouchedStore) fail() { s.t.Errorf("storage must not be touched") }

func (s untouchedStore) VerifyCredential(context.Context, uint, string) (bool, error) {
	s.fail()
	return false, nil
}
func (s untouchedStore) CreateCommunity(context.Context, *models.Community, string) error {
	s.fail()
	return nil
}
func (s untouchedStore) GetCommunity(context.Context, uint) (*models.Community, error) {
	s.fail()
	return nil, nil
}
func (s untouchedStore) ListCommunities(context.Context, int, int) ([]models.Community, error) {
	s.fail()
	return nil, nil
}
func (s untouchedStore) CreateGovUser(context.Context, *models.GovUser, string) error {
	s.fail()
	return nil
}
func (s untouchedStore) GetGovUserByUsername(context.Context, string) (*models.GovUser, error) {
	s.fail()
	return nil, nil
}
func (s untouchedStore) Revoke(context.Context, string, time.Time) error {
	s.fail()
	return nil
}
func (s untouchedStore) IsRevoked(context.Context, string) (bool, error) {
	s.fail()
	return false, nil
}
func (s untouchedStore) Sweep(context.Context, time.Time) (int64, error) {
	s.fail()
	return 0, nil
}

type failingRevocation struct{ err error }

func (f failingRevocation) Revoke(context.Context, string, time.Time) error { return f.err }
func (f failingRevocation) IsRevoked(context.Context, string) (bool, error) { return false, f.err }
func (f failingRevocation) Sweep(context.Context, time.Time) (int64, error) { return 0, f.err }

func TestLogin_DiscriminantRejectedBeforeStorage(t *testing.T) {
	t.Parallel()

	store := untouchedStore{t: t}
	svc := NewAuthService(store, store, tokens.Config{Secret: []byte("s")}, hash.Hasher{Cost: bcrypt.MinCost})

	tests := []struct {
		name    string
		req     LoginRequest
		wantErr error
	}{
		{name: "no user_type", req: LoginRequest{Password: "pw"}, wantErr: ErrMissingDiscriminant},
		{name: "community without id", req: LoginRequest{UserType: "community", Password: "pw"}, wantErr: ErrMissingDiscriminant},
		{name: "gov without username", req: LoginRequest{UserType: "gov", Password: "pw"}, wantErr: ErrMissingDiscriminant},
		{name: "gov blank username", req: LoginRequest{UserType: "gov", Username: "  ", Password: "pw"}, wantErr: ErrMissingDiscriminant},
		{name: "unknown user_type", req: LoginRequest{UserType: "admin", Username: "x", Password: "pw"}, wantErr: ErrValidation},
		{name: "empty password", req: LoginRequest{UserType: "community", CommunityID: 1}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := svc.Login(context.Background(), tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)

			ok, err := svc.ValidateCredentials(context.Background(), tt.req)
			assert.False(t, ok)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin_Community(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	c := env.registerCommunity(t, "Secret123")

	res, err := env.svc.Login(ctx, LoginRequest{UserType: "community", CommunityID: c.ID, Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.EqualValues(t, 10800, res.ExpiresIn)
	assert.Equal(t, "community", res.Role)
	assert.Equal(t, CommunitySubject(c.ID), res.Subject)

	id, err := env.svc.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, CommunitySubject(c.ID), id.Subject)
	assert.Equal(t, "community", id.Role)
	assert.WithinDuration(t, env.clock.Now().Add(3*time.Hour), id.ExpiresAt, 0)

	_, wrongPwErr := env.svc.Login(ctx, LoginRequest{UserType: "community", CommunityID: c.ID, Password: "nope"})
	_, unknownErr := env.svc.Login(ctx, LoginRequest{UserType: "community", CommunityID: c.ID + 100, Password: "Secret123"})
	assert.ErrorIs(t, wrongPwErr, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.Equal(t, wrongPwErr.Error(), unknownErr.Error())

	assert.Equal(t, []string{
		mykafka.EventCommunityRegistered,
		mykafka.EventLoggedIn,
		mykafka.EventLoginFailed,
		mykafka.EventLoginFailed,
	}, env.events.types())
}

func TestLogin_Gov(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.registerGov(t, "officer", "Secret123", true)
	env.registerGov(t, "retired", "Secret123", false)

	res, err := env.svc.Login(ctx, LoginRequest{UserType: "gov", Username: "officer", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "gov", res.Role)
	assert.Equal(t, "gov:officer", res.Subject)

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{name: "inactive account", req: LoginRequest{UserType: "gov", Username: "retired", Password: "Secret123"}},
		{name: "wrong password", req: LoginRequest{UserType: "gov", Username: "officer", Password: "secret123"}},
		{name: "unknown username", req: LoginRequest{UserType: "gov", Username: "ghost", Password: "Secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.svc.Login(ctx, tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLogin_RepeatedLoginsIssueDistinctTokens(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.registerGov(t, "officer", "Secret123", true)
	req := LoginRequest{UserType: "gov", Username: "officer", Password: "Secret123"}

	first, err := env.svc.Login(ctx, req)
	require.NoError(t, err)
	second, err := env.svc.Login(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	_, err = env.svc.Authenticate(ctx, first.AccessToken)
	require.NoError(t, err)
	_, err = env.svc.Authenticate(ctx, second.AccessToken)
	require.NoError(t, err)
}

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	c := env.registerCommunity(t, "Secret123")

	ok, err := env.svc.ValidateCredentials(ctx, LoginRequest{UserType: "community", CommunityID: c.ID, Password: "Secret123"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.svc.ValidateCredentials(ctx, LoginRequest{UserType: "community", CommunityID: c.ID, Password: "bad"})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NotContains(t, env.events.types(), mykafka.EventLoggedIn)
}

func TestAuthenticate_Failures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.registerGov(t, "officer", "Secret123", true)
	res, err := env.svc.Login(ctx, LoginRequest{UserType: "gov", Username: "officer", Password: "Secret123"})
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokens.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "gov:officer",
			ExpiresAt: jwt.NewNumericDate(env.clock.Now().Add(time.Hour)),
		},
	}).SignedString(env.cfg.Secret)
	require.NoError(t, err)

	_, err = env.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = env.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = env.svc.Authenticate(ctx, noRole)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	env.clock.Advance(3 * time.Hour)
	_, err = env.svc.Authenticate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RevokesUntilExpiry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.registerGov(t, "officer", "Secret123", true)
	req := LoginRequest{UserType: "gov", Username: "officer", Password: "Secret123"}

	res, err := env.svc.Login(ctx, req)
	require.NoError(t, err)
	require.NoError(t, env.svc.Logout(ctx, res.AccessToken))

	_, err = env.svc.Authenticate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrRevoked)
	assert.True(t, IsUnauthenticated(err))

	err = env.svc.Logout(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrRevoked)

	var row models.RevokedToken
	require.NoError(t, env.repo.DB.First(&row).Error)
	assert.Equal(t, res.ExpiresAt.Unix(), row.ExpiresAt)

	fresh, err := env.svc.Login(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, res.AccessToken, fresh.AccessToken)
	_, err = env.svc.Authenticate(ctx, fresh.AccessToken)
	require.NoError(t, err)

	assert.Contains(t, env.events.types(), mykafka.EventLoggedOut)
}

func TestLogout_InvalidTokenRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	err := env.svc.Logout(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	var n int64
	require.NoError(t, env.repo.DB.Model(&models.RevokedToken{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAuthenticate_StorageErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	cfg := tokens.Config{Secret: []byte("s")}
	svc := NewAuthService(untouchedStore{t: t}, failingRevocation{err: boom}, cfg, hash.Hasher{})

	token, _, err := svc.Issuer.Issue("gov:officer", "gov", 0)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsUnauthenticated(err))
}

func TestSweepRevoked(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.registerGov(t, "officer", "Secret123", true)

	res, err := env.svc.Login(ctx, LoginRequest{UserType: "gov", Username: "officer", Password: "Secret123"})
	require.NoError(t, err)
	require.NoError(t, env.svc.Logout(ctx, res.AccessToken))

	n, err := env.svc.SweepRevoked(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock.Advance(3*time.Hour + time.Second)
	n, err = env.svc.SweepRevoked(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = env.svc.Authenticate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequire(t *testing.T) {
	t.Parallel()

	gov := &Identity{Subject: "gov:officer", Role: "gov"}
	community := &Identity{Subject: "community:3", Role: "community"}

	id, err := Require(gov, "gov")
	require.NoError(t, err)
	assert.Same(t, gov, id)

	_, err = Require(community, "gov")
	assert.ErrorIs(t, err, ErrInsufficientRole)

	_, err = Require(community, "gov", "community")
	require.NoError(t, err)

	_, err = Require(nil, "gov")
	assert.ErrorIs(t, err, ErrMissingToken)
}
