// Package console is the presentation core of the POS admin console: the route
// table, the session guard, the render boundary and the list, order and export
// screens built on the cached resources.
//
// A path is opened in three steps:
//
//	resolve route -> guard -> render screen inside the boundary
//
// Screens never talk to the API directly; reads go through the list and detail
// caches and writes through the mutator.
package console

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-pos-console/apperror"
	"github.com/goliatone/go-pos-console/form"
	"github.com/goliatone/go-pos-console/mutation"
	"github.com/goliatone/go-pos-console/session"
)

// Notices of the session screens.
const (
	NoticeLoginSuccess = "Login successfully, welcome back !"
	NoticeLoginFailed  = "Username or password is incorrect !"
	NoticeLogout       = "Logout success !"
)

// Screen renders the route in m.
type Screen func(ctx context.Context, m Match) (View, error)

// Option configures an App.
type Option func(*App)

// WithNotifier sets the notifier. Defaults to a LogNotifier.
func WithNotifier(n Notifier) Option {
	return func(a *App) {
		if n != nil {
			a.notifier = n
		}
	}
}

// WithValidator makes the guard check tokens against the API.
func WithValidator(v session.TokenValidator) Option {
	return func(a *App) { a.validator = v }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRouter replaces the default router.
func WithRouter(r *Router) Option {
	return func(a *App) {
		if r != nil {
			a.router = r
		}
	}
}

// App ties routing, the guard and the screens together.
type App struct {
	router    *Router
	guard     *Guard
	boundary  *Boundary
	sessions  *session.Manager
	auth      session.Authenticator
	validator session.TokenValidator
	notifier  Notifier
	logger    *slog.Logger
	screens   map[string]Screen
}

// New creates an App over sessions, signing in through auth.
func New(sessions *session.Manager, auth session.Authenticator, opts ...Option) *App {
	a := &App{
		router:   NewRouter(),
		sessions: sessions,
		auth:     auth,
		logger:   slog.Default(),
		screens:  make(map[string]Screen),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.notifier == nil {
		a.notifier = LogNotifier{Logger: a.logger}
	}
	a.guard = NewGuard(sessions, a.validator, a.logger)
	a.boundary = NewBoundary(a.logger)
	a.logger = a.logger.With(slog.String("component", "console"))
	return a
}

// Router returns the router.
func (a *App) Router() *Router {
	return a.router
}

// Notifier returns the notifier.
func (a *App) Notifier() Notifier {
	return a.notifier
}

// Handle registers the screen rendering the named route.
func (a *App) Handle(route string, s Screen) {
	a.screens[route] = s
}

// Open resolves path, applies the guard and renders the matching screen.
func (a *App) Open(ctx context.Context, path string) View {
	m := a.router.Resolve(path)

	d := a.guard.Check(ctx, m)
	notify(ctx, a.notifier, d.Notice)
	if !d.Allow {
		return View{Name: m.Route.Name, Redirect: d.Redirect}
	}

	screen, ok := a.screens[m.Route.Name]
	if m.NotFound() || !ok {
		return View{Name: ViewNotFound, Data: m.Path}
	}

	a.logger.DebugContext(ctx, "open", slog.String("route", m.Route.Name), slog.String("path", m.Path))
	return a.boundary.Render(ctx, func(ctx context.Context) (View, error) {
		return screen(ctx, m)
	})
}

// Login signs in and reports the outcome. Invalid input is rejected before
// reaching the API.
func (a *App) Login(ctx context.Context, creds form.Credentials) (session.Session, mutation.Outcome, error) {
	s, err := a.sessions.Login(ctx, a.auth, creds)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindValidation {
			return session.Session{}, mutation.Outcome{Status: mutation.Rejected}, err
		}
		out := mutation.Outcome{
			Status: mutation.Failed,
			Notice: &mutation.Notice{Level: mutation.LevelError, Message: NoticeLoginFailed},
		}
		notify(ctx, a.notifier, out.Notice)
		return session.Session{}, out, err
	}

	out := mutation.Outcome{
		Status:   mutation.Succeeded,
		Navigate: PathDashboard,
		Notice:   &mutation.Notice{Level: mutation.LevelSuccess, Message: NoticeLoginSuccess},
	}
	notify(ctx, a.notifier, out.Notice)
	return s, out, nil
}

// Logout clears the session and returns to the login screen.
func (a *App) Logout(ctx context.Context) (mutation.Outcome, error) {
	if err := a.sessions.Logout(ctx); err != nil {
		return mutation.Outcome{Status: mutation.Failed}, err
	}
	out := mutation.Outcome{
		Status:   mutation.Succeeded,
		Navigate: PathLogin,
		Notice:   &mutation.Notice{Level: mutation.LevelSuccess, Message: NoticeLogout},
	}
	notify(ctx, a.notifier, out.Notice)
	return out, nil
}
