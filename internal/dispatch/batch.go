package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"outreach-agent/internal/organizations"
	"outreach-agent/pkg/logger"
)

type QueueBuilder interface {
	BuildQueue(ctx context.Context, limit int) ([]organizations.Organization, error)
}

type CallPlacer interface {
	PlaceCall(ctx context.Context, orgID int64) Outcome
}

// BatchResult counts outcomes of one call batch.
type BatchResult struct {
	Placed        int `json:"placed"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
	NotConfigured int `json:"not_configured"`
}

func (r *BatchResult) add(k OutcomeKind) {
	switch k {
	case OutcomePlaced:
		r.Placed++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	case OutcomeNotConfigured:
		r.NotConfigured++
	}
}

// Batch ranks the registry and dials the queue one entry at a time.
type Batch struct {
	queue  QueueBuilder
	placer CallPlacer
	limit  int
}

func NewBatch(queue QueueBuilder, placer CallPlacer, limit int) *Batch {
	if limit <= 0 {
		limit = 20
	}
	return &Batch{queue: queue, placer: placer, limit: limit}
}

// Run dials sequentially. One failing entry never stops the rest; only a
// failure to build the queue is returned.
func (b *Batch) Run(ctx context.Context) (BatchResult, error) {
	var res BatchResult

	queue, err := b.queue.BuildQueue(ctx, b.limit)
	if err != nil {
		return res, fmt.Errorf("build queue: %w", err)
	}

	for _, org := range queue {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if strings.TrimSpace(org.Phone) == "" {
			res.Skipped++
			continue
		}
		res.add(b.placer.PlaceCall(ctx, org.ID).Kind)
	}

	logger.From(ctx).Info("call batch finished",
		slog.Int("queued", len(queue)),
		slog.Int("placed", res.Placed),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Int("not_configured", res.NotConfigured),
	)
	return res, nil
}
