package calls

import (
	"context"
	"time"
)

const DefaultListLimit = 200

// Repository is the call log. Each method is a single commit.
type Repository interface {
	Append(ctx context.Context, rec CallRecord) (CallRecord, error)
	Get(ctx context.Context, id int64) (CallRecord, error)

	// LatestByPhone returns the most recently created record for phone.
	// A zero since means no lower bound.
	LatestByPhone(ctx context.Context, phone string, since time.Time) (CallRecord, error)

	// ListRecent returns records newest first. limit <= 0 means DefaultListLimit.
	ListRecent(ctx context.Context, limit int) ([]CallRecord, error)
	// ListBetween returns records with from <= created_at < to.
	ListBetween(ctx context.Context, from, to time.Time) ([]CallRecord, error)

	SetRecording(ctx context.Context, id int64, url string, durationSeconds int) error
	SetTranscript(ctx context.Context, id int64, text string) error
	SetSummary(ctx context.Context, id int64, text string) error
}
