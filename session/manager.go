package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/form"
)

// EventKind says what changed.
type EventKind int

const (
	SignedIn EventKind = iota
	SignedOut
	// Invalidated means the session was dropped because the token expired or
	// the API rejected it.
	Invalidated
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Event is published on every session change.
type Event struct {
	Kind    EventKind
	Session Session
}

// Authenticator logs in against the API.
type Authenticator interface {
	Login(ctx context.Context, creds form.Credentials) (api.LoginResult, error)
}

// TokenValidator asks the API whether the current token is still accepted.
type TokenValidator interface {
	ValidateToken(ctx context.Context) error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager holds the current session.
type Manager struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger

	mu      sync.RWMutex
	current Session
	active  bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewManager creates a Manager backed by store. Call Restore to load a
// persisted session.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
		subs:   make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "session"))
	return m
}

// Restore loads the persisted session. An expired session is discarded.
func (m *Manager) Restore(ctx context.Context) (Session, bool, error) {
	s, ok, err := m.store.Load(ctx)
	if err != nil || !ok {
		return Session{}, false, err
	}
	if s.Expired(m.now()) {
		m.logger.InfoContext(ctx, "stored session expired", slog.String("username", s.Username))
		return Session{}, false, m.store.Clear(ctx)
	}

	m.mu.Lock()
	m.current, m.active = s, true
	m.mu.Unlock()
	return s, true, nil
}

// Login validates creds, authenticates and stores the new session.
func (m *Manager) Login(ctx context.Context, auth Authenticator, creds form.Credentials) (Session, error) {
	if err := form.Check(creds); err != nil {
		return Session{}, err
	}

	res, err := auth.Login(ctx, creds)
	if err != nil {
		m.logger.InfoContext(ctx, "login failed", slog.String("username", creds.Username), slog.String("error", err.Error()))
		return Session{}, err
	}

	roles := make([]string, len(res.Roles))
	for i, r := range res.Roles {
		roles[i] = string(r)
	}
	s := Session{Username: res.Username, Roles: roles, Token: res.Token}

	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	m.current, m.active = s, true
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "signed in", slog.String("username", s.Username))
	m.publish(Event{Kind: SignedIn, Session: s})
	return s, nil
}

// Logout clears the session.
func (m *Manager) Logout(ctx context.Context) error {
	return m.drop(ctx, SignedOut)
}

// Current returns the session. ok is false when nobody is signed in.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.active
}

// Token returns the bearer token, "" when signed out. It makes a Manager an
// api.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.active {
		return ""
	}
	return m.current.Token
}

// Validate checks the session locally and then against the API. Any failure
// clears the session.
func (m *Manager) Validate(ctx context.Context, validator TokenValidator) error {
	s, ok := m.Current()
	if !ok {
		return ErrNoSession
	}
	if s.Expired(m.now()) {
		if err := m.drop(ctx, Invalidated); err != nil {
			return err
		}
		return ErrExpired
	}
	if validator == nil {
		return nil
	}
	if err := validator.ValidateToken(ctx); err != nil {
		m.logger.InfoContext(ctx, "token rejected", slog.String("username", s.Username), slog.String("error", err.Error()))
		if dropErr := m.drop(ctx, Invalidated); dropErr != nil {
			return dropErr
		}
		return err
	}
	return nil
}

// HandleUnauthorized drops the session. Pass it to api.WithUnauthorizedHook.
func (m *Manager) HandleUnauthorized(ctx context.Context, err error) {
	if _, ok := m.Current(); !ok {
		return
	}
	if dropErr := m.drop(ctx, Invalidated); dropErr != nil {
		m.logger.ErrorContext(ctx, "clear session failed", slog.String("error", dropErr.Error()))
	}
}

// Subscribe returns a channel receiving every later change. Slow subscribers
// miss events rather than block the Manager. cancel closes the channel.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Event, 8)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

func (m *Manager) drop(ctx context.Context, kind EventKind) error {
	m.mu.Lock()
	prev, was := m.current, m.active
	m.current, m.active = Session{}, false
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	if was {
		m.logger.InfoContext(ctx, "session cleared", slog.String("username", prev.Username), slog.String("reason", kind.String()))
		m.publish(Event{Kind: kind, Session: prev})
	}
	return nil
}

func (m *Manager) publish(e Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- e:
		default:
			m.logger.Warn("session event dropped", slog.String("event", e.Kind.String()))
		}
	}
}
