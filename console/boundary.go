package console

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// View names rendered by the console itself.
const (
	ViewInternalError = "internal_error"
	ViewNotFound      = "not_found"
)

// InternalErrorMessage is the text of the internal error view.
const InternalErrorMessage = "Something went wrong, please try again later."

// View is what a screen renders. A non empty Redirect replaces the view with
// a navigation.
type View struct {
	Name     string
	Data     any
	Redirect string
}

// ViewFunc renders a view.
type ViewFunc func(ctx context.Context) (View, error)

// Boundary is the last catch for view errors: nothing escapes Render.
type Boundary struct {
	logger *slog.Logger
}

// NewBoundary returns a boundary logging to logger.
func NewBoundary(logger *slog.Logger) *Boundary {
	if logger == nil {
		logger = slog.Default()
	}
	return &Boundary{logger: logger.With(slog.String("component", "boundary"))}
}

// Render runs fn. An error or panic is logged and replaced by the internal
// error view.
func (b *Boundary) Render(ctx context.Context, fn ViewFunc) (view View) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "view panicked",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
			view = InternalErrorView()
		}
	}()

	view, err := fn(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "view failed", slog.String("error", err.Error()))
		return InternalErrorView()
	}
	return view
}

// InternalErrorView is the fallback view.
func InternalErrorView() View {
	return View{Name: ViewInternalError, Data: InternalErrorMessage}
}
