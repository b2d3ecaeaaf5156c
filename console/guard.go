package console

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goliatone/go-pos-console/mutation"
	"github.com/goliatone/go-pos-console/session"
)

// NoticeUnauthorized is shown when a protected screen is opened without a
// valid session.
const NoticeUnauthorized = "Unauthorized, please login first !"

// Decision is the guard's verdict on a route.
type Decision struct {
	Allow    bool
	Redirect string
	Notice   *mutation.Notice
}

// Guard gates protected routes on the session.
type Guard struct {
	sessions  *session.Manager
	validator session.TokenValidator
	logger    *slog.Logger
}

// NewGuard returns a guard checking sessions against validator. A nil
// validator only checks the token locally.
func NewGuard(sessions *session.Manager, validator session.TokenValidator, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		sessions:  sessions,
		validator: validator,
		logger:    logger.With(slog.String("component", "guard")),
	}
}

// Check validates the session for m. A protected route without a valid session
// redirects to the login screen; the login screen with a valid session
// redirects to the dashboard.
func (g *Guard) Check(ctx context.Context, m Match) Decision {
	switch {
	case m.Route.Name == RouteLogin:
		if _, ok := g.sessions.Current(); ok && g.sessions.Validate(ctx, g.validator) == nil {
			return Decision{Redirect: PathDashboard}
		}
		return Decision{Allow: true}

	case !m.Route.Protected:
		return Decision{Allow: true}
	}

	err := g.sessions.Validate(ctx, g.validator)
	if err == nil {
		return Decision{Allow: true}
	}

	if !errors.Is(err, session.ErrNoSession) {
		g.logger.InfoContext(ctx, "session rejected", slog.String("path", m.Path), slog.String("error", err.Error()))
	}
	return Decision{
		Redirect: PathLogin,
		Notice:   &mutation.Notice{Level: mutation.LevelError, Message: NoticeUnauthorized},
	}
}
