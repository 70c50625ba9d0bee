// Package worker moves recording enrichment onto an asynq queue so webhook
// handlers return immediately and enrichment survives a process restart.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"outreach-agent/internal/lifecycle"
	"outreach-agent/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	TypeEnrichRecording = "recording:enrich"
	QueueEnrich         = "enrich"
)

// TaskClient is the subset of *asynq.Client used here.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueEnqueuer satisfies lifecycle.Enqueuer by publishing one task per job.
// Enrichment steps are individually best-effort, so tasks are not retried.
type QueueEnqueuer struct {
	client  TaskClient
	timeout time.Duration
}

func NewQueueEnqueuer(client TaskClient, timeout time.Duration) *QueueEnqueuer {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &QueueEnqueuer{client: client, timeout: timeout}
}

func NewEnrichTask(job lifecycle.Job) (*asynq.Task, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal enrich job: %w", err)
	}
	return asynq.NewTask(TypeEnrichRecording, payload), nil
}

func (q *QueueEnqueuer) Enqueue(ctx context.Context, job lifecycle.Job) error {
	task, err := NewEnrichTask(job)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueEnrich),
		asynq.MaxRetry(0),
		asynq.Timeout(q.timeout),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeEnrichRecording, err)
	}
	logger.From(ctx).Info("enrichment queued",
		slog.String("task_id", info.ID),
		slog.Int64("record_id", job.RecordID),
	)
	return nil
}

type Enricher interface {
	Enrich(ctx context.Context, job lifecycle.Job)
}

// EnrichHandler consumes TypeEnrichRecording tasks.
func EnrichHandler(enricher Enricher) AsynqHandler {
	return AsynqHandler{
		Pattern: TypeEnrichRecording,
		Handle: func(ctx context.Context, t *asynq.Task) error {
			var job lifecycle.Job
			if err := json.Unmarshal(t.Payload(), &job); err != nil {
				return fmt.Errorf("decode enrich payload: %v: %w", err, asynq.SkipRetry)
			}
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("enrich record %d: %w", job.RecordID, err)
			}
			log := logger.From(ctx).With(slog.Int64("record_id", job.RecordID))
			enricher.Enrich(logger.With(ctx, log), job)
			return nil
		},
	}
}
