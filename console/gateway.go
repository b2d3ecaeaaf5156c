package console

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goliatone/go-pos-console/mutation"
)

// Notifier shows a notice to the user.
type Notifier interface {
	Notify(ctx context.Context, n mutation.Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n mutation.Notice)

func (f NotifierFunc) Notify(ctx context.Context, n mutation.Notice) { f(ctx, n) }

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n mutation.Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Level == mutation.LevelError {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, n.Message, slog.String("component", "notice"), slog.String("level", string(n.Level)))
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []mutation.Notice
}

func (r *Recorder) Notify(ctx context.Context, n mutation.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the received notices.
func (r *Recorder) Notices() []mutation.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mutation.Notice(nil), r.notices...)
}

// Last returns the latest notice.
func (r *Recorder) Last() (mutation.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return mutation.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// StaticConfirmer answers every prompt the same way.
type StaticConfirmer struct {
	Answer bool
}

func (s StaticConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	return s.Answer, nil
}

// ConfirmerFunc adapts a function to mutation.Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

var (
	_ mutation.Confirmer = StaticConfirmer{}
	_ mutation.Confirmer = ConfirmerFunc(nil)
)

func notify(ctx context.Context, n Notifier, notice *mutation.Notice) {
	if n == nil || notice == nil {
		return
	}
	n.Notify(ctx, *notice)
}
