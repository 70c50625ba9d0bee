// Package besteffort is the single "log and continue" policy applied at external boundaries
// (AI services, notifications, media downloads). A failed step is logged and counted; callers
// get a fallback value and carry on.
package besteffort

import (
	"context"
	"fmt"
	"log/slog"

	"outreach-agent/pkg/logger"
)

// FailureRecorder receives one call per failed step. Implementations must be safe for
// concurrent use.
type FailureRecorder interface {
	IncStepFailure(step string)
}

type recorderKey struct{}

// WithRecorder returns a copy of ctx whose failed steps are counted by r.
func WithRecorder(ctx context.Context, r FailureRecorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

func recorderFrom(ctx context.Context) FailureRecorder {
	r, _ := ctx.Value(recorderKey{}).(FailureRecorder)
	return r
}

// Do runs fn and reports whether it succeeded. Errors and panics are logged, never returned.
func Do(ctx context.Context, step string, fn func(ctx context.Context) error) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			fail(ctx, step, fmt.Errorf("panic: %v", p))
			ok = false
		}
	}()

	if err := fn(ctx); err != nil {
		fail(ctx, step, err)
		return false
	}
	return true
}

// Value runs fn and returns its result, or fallback when fn fails.
func Value[T any](ctx context.Context, step string, fallback T, fn func(ctx context.Context) (T, error)) T {
	out := fallback
	Do(ctx, step, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out
}

func fail(ctx context.Context, step string, err error) {
	logger.From(ctx).Warn("best-effort step failed", slog.String("step", step), logger.Err(err))
	if r := recorderFrom(ctx); r != nil {
		r.IncStepFailure(step)
	}
}
