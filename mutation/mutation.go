// Package mutation runs create, update and delete calls against the remote API
// and invalidates the cached lists of the affected resource once a call succeeds.
//
// Every mutation goes through the same steps:
//
//	validate -> confirm -> call -> invalidate (success only) -> outcome
//
// A rejected or declined mutation never reaches the remote call. A failed call
// never invalidates. Concurrent mutations invalidate independently.
package mutation

import (
	"context"
	"errors"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pos-console/form"
)

// Operation is the kind of write.
type Operation string

const (
	Create Operation = "create"
	Update Operation = "update"
	Delete Operation = "delete"
)

// Status is how a mutation ended.
type Status int

const (
	Succeeded Status = iota
	Failed
	// Cancelled means the user declined the confirmation prompt.
	Cancelled
	// Rejected means local validation failed.
	Rejected
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Level is the severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a user facing notification.
type Notice struct {
	Level   Level
	Message string
}

// Outcome is what the presentation layer does after a mutation. An empty
// Navigate keeps the current view (e.g. the form stays open).
type Outcome struct {
	Status   Status
	Navigate string
	Notice   *Notice
}

// Invalidator discards cached data of a resource.
type Invalidator interface {
	Invalidate(ctx context.Context, resource string) error
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, resource string) error

func (f InvalidatorFunc) Invalidate(ctx context.Context, resource string) error {
	return f(ctx, resource)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Request describes one mutation.
type Request[T any] struct {
	Resource  string
	Operation Operation
	// Input is validated before anything else when set.
	Input validation.Validatable
	// Prompt asks for confirmation when set.
	Prompt string
	Call   func(ctx context.Context) (T, error)

	SuccessMessage string
	// FailureMessage may be replaced per error by FailureNotice.
	FailureMessage string
	FailureNotice  func(err error) string
	// ReturnTo is the route shown after the mutation.
	ReturnTo string
	// KeepOpenOnFailure keeps the current view when the call fails instead of
	// navigating to ReturnTo.
	KeepOpenOnFailure bool
}

// Result carries the call's value and error with the outcome.
type Result[T any] struct {
	Value   T
	Err     error
	Outcome Outcome
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithInvalidators registers invalidators run after every successful mutation.
func WithInvalidators(inv ...Invalidator) Option {
	return func(m *Mutator) { m.invalidators = append(m.invalidators, inv...) }
}

// WithConfirmer sets the confirmation gateway. Without one, prompts are accepted.
func WithConfirmer(c Confirmer) Option {
	return func(m *Mutator) { m.confirmer = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mutator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Mutator runs mutations.
type Mutator struct {
	invalidators []Invalidator
	confirmer    Confirmer
	logger       *slog.Logger
}

// New creates a Mutator.
func New(opts ...Option) *Mutator {
	m := &Mutator{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "mutation"))
	return m
}

// Register adds invalidators.
func (m *Mutator) Register(inv ...Invalidator) {
	m.invalidators = append(m.invalidators, inv...)
}

// ErrNoCall is returned when a Request has no Call.
var ErrNoCall = errors.New("mutation: request has no call")

// Mutate runs req. Methods cannot take type parameters, hence the function.
func Mutate[T any](ctx context.Context, m *Mutator, req Request[T]) Result[T] {
	var res Result[T]
	log := m.logger.With(slog.String("resource", req.Resource), slog.String("operation", string(req.Operation)))

	if req.Call == nil {
		res.Err = ErrNoCall
		res.Outcome = Outcome{Status: Failed}
		return res
	}

	if req.Input != nil {
		if err := form.Check(req.Input); err != nil {
			log.DebugContext(ctx, "mutation rejected", slog.String("error", err.Error()))
			res.Err = err
			res.Outcome = Outcome{Status: Rejected}
			return res
		}
	}

	if req.Prompt != "" && m.confirmer != nil {
		ok, err := m.confirmer.Confirm(ctx, req.Prompt)
		if err != nil || !ok {
			log.DebugContext(ctx, "mutation cancelled")
			res.Err = err
			res.Outcome = Outcome{Status: Cancelled}
			return res
		}
	}

	value, err := req.Call(ctx)
	if err != nil {
		log.WarnContext(ctx, "mutation failed", slog.String("error", err.Error()))
		res.Err = err
		res.Outcome = Outcome{Status: Failed, Notice: failureNotice(req, err)}
		if !req.KeepOpenOnFailure {
			res.Outcome.Navigate = req.ReturnTo
		}
		return res
	}

	res.Value = value
	m.invalidate(ctx, log, req.Resource)
	res.Outcome = Outcome{Status: Succeeded, Navigate: req.ReturnTo}
	if req.SuccessMessage != "" {
		res.Outcome.Notice = &Notice{Level: LevelSuccess, Message: req.SuccessMessage}
	}
	return res
}

// invalidate runs every invalidator once. An invalidation error does not turn
// a successful write into a failure.
func (m *Mutator) invalidate(ctx context.Context, log *slog.Logger, resource string) {
	for _, inv := range m.invalidators {
		if err := inv.Invalidate(ctx, resource); err != nil {
			log.ErrorContext(ctx, "invalidation failed", slog.String("error", err.Error()))
		}
	}
	log.DebugContext(ctx, "mutation succeeded", slog.Int("invalidators", len(m.invalidators)))
}

func failureNotice[T any](req Request[T], err error) *Notice {
	msg := req.FailureMessage
	if req.FailureNotice != nil {
		if custom := req.FailureNotice(err); custom != "" {
			msg = custom
		}
	}
	if msg == "" {
		return nil
	}
	return &Notice{Level: LevelError, Message: msg}
}
