package besteffort

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *countingRecorder) IncStepFailure(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func TestDo(t *testing.T) {
	rq := require.New(t)
	rec := &countingRecorder{}
	ctx := WithRecorder(context.Background(), rec)

	rq.True(Do(ctx, "ok", func(context.Context) error { return nil }))
	rq.False(Do(ctx, "transcribe", func(context.Context) error { return errors.New("boom") }))
	rq.False(Do(ctx, "notify", func(context.Context) error { panic("nil bot") }))

	rq.Equal([]string{"transcribe", "notify"}, rec.steps)
}

func TestRecorderIsScopedToContext(t *testing.T) {
	rq := require.New(t)
	a, b := &countingRecorder{}, &countingRecorder{}
	boom := func(context.Context) error { return errors.New("boom") }

	Do(WithRecorder(context.Background(), a), "fetch", boom)
	Do(context.WithoutCancel(WithRecorder(context.Background(), b)), "summarize", boom)
	rq.False(Do(context.Background(), "uncounted", boom))

	rq.Equal([]string{"fetch"}, a.steps)
	rq.Equal([]string{"summarize"}, b.steps)
}

func TestValueFallsBack(t *testing.T) {
	rq := require.New(t)

	got := Value(context.Background(), "summarize", "fallback", func(context.Context) (string, error) {
		return "", errors.New("rate limited")
	})
	rq.Equal("fallback", got)

	got = Value(context.Background(), "summarize", "fallback", func(context.Context) (string, error) {
		return "two sentences", nil
	})
	rq.Equal("two sentences", got)
}
