package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/apperror"
	"github.com/goliatone/go-pos-console/form"
)

var epoch = time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "superadmin"}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type fakeAuth struct {
	result api.LoginResult
	err    error
	calls  int
}

func (f *fakeAuth) Login(ctx context.Context, creds form.Credentials) (api.LoginResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeValidator struct{ err error }

func (f fakeValidator) ValidateToken(ctx context.Context) error { return f.err }

func TestExpiresAt(t *testing.T) {
	exp := epoch.Add(time.Hour)
	s := Session{Token: signedToken(t, exp)}

	got, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
	assert.False(t, s.Expired(epoch))
	assert.True(t, s.Expired(exp))

	_, ok = Session{Token: "not-a-jwt"}.ExpiresAt()
	assert.False(t, ok)
	assert.False(t, Session{Token: "not-a-jwt"}.Expired(epoch), "opaque tokens never expire locally")

	_, ok = Session{Token: signedToken(t, time.Time{})}.ExpiresAt()
	assert.False(t, ok)
}

func TestHasRole(t *testing.T) {
	s := Session{Roles: []string{"ROLE_ADMIN", "ROLE_SUPER_ADMIN"}}
	assert.True(t, s.HasRole("ROLE_ADMIN"))
	assert.False(t, s.HasRole("ROLE_CUSTOMER"))
}

func TestLoginStoresSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, WithClock(func() time.Time { return epoch }))
	events, cancel := m.Subscribe()
	defer cancel()

	token := signedToken(t, epoch.Add(time.Hour))
	auth := &fakeAuth{result: api.LoginResult{Username: "superadmin", Roles: []api.Role{"ROLE_SUPER_ADMIN"}, Token: token}}

	s, err := m.Login(ctx, auth, form.Credentials{Username: "superadmin", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, Session{Username: "superadmin", Roles: []string{"ROLE_SUPER_ADMIN"}, Token: token}, s)
	assert.Equal(t, token, m.Token())

	stored, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s, stored)

	select {
	case e := <-events:
		assert.Equal(t, SignedIn, e.Kind)
		assert.Equal(t, "superadmin", e.Session.Username)
	default:
		t.Fatal("expected a signed in event")
	}
}

func TestLoginValidatesBeforeCallingAPI(t *testing.T) {
	m := NewManager(NewMemoryStore())
	auth := &fakeAuth{}

	_, err := m.Login(context.Background(), auth, form.Credentials{Username: "admin", Password: "short"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 0, auth.calls)
}

func TestLoginFailureKeepsSignedOut(t *testing.T) {
	m := NewManager(NewMemoryStore())
	auth := &fakeAuth{err: apperror.FromStatus(401, "bad credentials")}

	_, err := m.Login(context.Background(), auth, form.Credentials{Username: "admin", Password: "password"})
	assert.True(t, apperror.IsUnauthorized(err))
	_, ok := m.Current()
	assert.False(t, ok)
	assert.Empty(t, m.Token())
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, Session{Username: "kasir", Token: "opaque"}))

	m := NewManager(store)
	_, ok, err := m.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	events, cancel := m.Subscribe()
	defer cancel()

	require.NoError(t, m.Logout(ctx))
	_, ok = m.Current()
	assert.False(t, ok)

	_, stored, _ := store.Load(ctx)
	assert.False(t, stored)
	assert.Equal(t, SignedOut, (<-events).Kind)
}

func TestRestoreDiscardsExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, Session{Username: "kasir", Token: signedToken(t, epoch.Add(-time.Minute))}))

	m := NewManager(store, WithClock(func() time.Time { return epoch }))
	_, ok, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, stored, _ := store.Load(ctx)
	assert.False(t, stored)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	now := epoch
	live := signedToken(t, epoch.Add(time.Hour))

	t.Run("no session", func(t *testing.T) {
		m := NewManager(NewMemoryStore())
		assert.ErrorIs(t, m.Validate(ctx, fakeValidator{}), ErrNoSession)
	})

	t.Run("accepted", func(t *testing.T) {
		store := NewMemoryStore()
		store.Save(ctx, Session{Username: "a", Token: live})
		m := NewManager(store, WithClock(func() time.Time { return now }))
		m.Restore(ctx)

		assert.NoError(t, m.Validate(ctx, fakeValidator{}))
		_, ok := m.Current()
		assert.True(t, ok)
	})

	t.Run("expired locally", func(t *testing.T) {
		store := NewMemoryStore()
		store.Save(ctx, Session{Username: "a", Token: live})
		clock := now
		m := NewManager(store, WithClock(func() time.Time { return clock }))
		m.Restore(ctx)
		events, cancel := m.Subscribe()
		defer cancel()

		clock = epoch.Add(2 * time.Hour)
		assert.ErrorIs(t, m.Validate(ctx, fakeValidator{}), ErrExpired)
		_, ok := m.Current()
		assert.False(t, ok)
		assert.Equal(t, Invalidated, (<-events).Kind)
	})

	t.Run("rejected by api", func(t *testing.T) {
		store := NewMemoryStore()
		store.Save(ctx, Session{Username: "a", Token: live})
		m := NewManager(store, WithClock(func() time.Time { return now }))
		m.Restore(ctx)

		rejected := apperror.FromStatus(401, "invalid token")
		assert.ErrorIs(t, m.Validate(ctx, fakeValidator{err: rejected}), apperror.ErrUnauthorized)
		_, ok := m.Current()
		assert.False(t, ok)
		_, stored, _ := store.Load(ctx)
		assert.False(t, stored)
	})
}

func TestHandleUnauthorized(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Save(ctx, Session{Username: "a", Token: "opaque"})
	m := NewManager(store)
	m.Restore(ctx)

	m.HandleUnauthorized(ctx, errors.New("401"))
	assert.Empty(t, m.Token())

	m.HandleUnauthorized(ctx, errors.New("401"))
}

func TestSubscribeCancel(t *testing.T) {
	m := NewManager(NewMemoryStore())
	events, cancel := m.Subscribe()
	cancel()
	cancel()

	_, open := <-events
	assert.False(t, open)
}

func openTestBunStore(t *testing.T) *BunStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "session.db")
	store, err := OpenBunStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBunStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestBunStore(t)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	first := Session{Username: "superadmin", Roles: []string{"ROLE_SUPER_ADMIN", "ROLE_ADMIN"}, Token: "t1"}
	require.NoError(t, store.Save(ctx, first))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got)

	second := Session{Username: "kasir", Token: "t2"}
	require.NoError(t, store.Save(ctx, second))
	got, _, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got, "saving replaces the single session row")

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBunStoreKeepsSingleRow(t *testing.T) {
	ctx := context.Background()
	store := openTestBunStore(t)

	require.NoError(t, store.Clear(ctx), "clearing an empty store is not an error")

	for _, name := range []string{"superadmin", "kasir", "pelayan"} {
		require.NoError(t, store.Save(ctx, Session{Username: name, Token: name + "-token"}))
	}

	records, total, err := store.repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, recordID, records[0].ID)
	assert.Equal(t, "pelayan", records[0].Username)

	require.NoError(t, store.Clear(ctx))
	_, total, err = store.repo.List(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestManagerWithBunStore(t *testing.T) {
	ctx := context.Background()
	store := openTestBunStore(t)
	token := signedToken(t, epoch.Add(time.Hour))
	clock := WithClock(func() time.Time { return epoch })

	m := NewManager(store, clock)
	_, err := m.Login(ctx, &fakeAuth{result: api.LoginResult{Username: "superadmin", Token: token}}, form.Credentials{Username: "superadmin", Password: "password"})
	require.NoError(t, err)

	restarted := NewManager(store, clock)
	s, ok, err := restarted.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "superadmin", s.Username)
	assert.Nil(t, s.Roles)
}
