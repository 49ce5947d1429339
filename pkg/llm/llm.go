// Package llm adapts text-completion backends to a single Completer
// capability: given a prompt, return a completion, or fail.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable indicates the completion backend cannot be reached or
// refused the request.
var ErrUnavailable = errors.New("completion capability unavailable")

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 60 * time.Second

// Completer is the external natural-language capability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Completer.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Unavailable is a Completer that always fails. It stands in when no backend
// is configured, so the pipeline exercises its fallback path.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: no backend configured", ErrUnavailable)
}

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout bounds every call to next with a wall-clock deadline. An
// expired deadline is reported as ErrUnavailable.
func WithTimeout(next Completer, timeout time.Duration) Completer {
	if timeout <= 0 {
		return next
	}
	return &timeoutCompleter{next: next, timeout: timeout}
}

func (t *timeoutCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := t.next.Complete(ctx, prompt)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: no completion within %s", ErrUnavailable, t.timeout)
	}
	return out, err
}

// Observe calls observe with the outcome of every completion.
func Observe(next Completer, observe func(error)) Completer {
	return Func(func(ctx context.Context, prompt string) (string, error) {
		out, err := next.Complete(ctx, prompt)
		observe(err)
		return out, err
	})
}
