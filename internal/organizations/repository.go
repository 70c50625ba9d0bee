package organizations

import (
	"context"
	"time"
)

// Repository is the organization registry. Every method is a single atomic
// statement against the store.
type Repository interface {
	Get(ctx context.Context, id int64) (Organization, error)
	FindByPhone(ctx context.Context, phone string) (Organization, error)

	// ListVerified returns verified organizations ordered by id ascending.
	ListVerified(ctx context.Context) ([]Organization, error)
	// List returns all organizations ordered by score descending.
	List(ctx context.Context) ([]Organization, error)

	Create(ctx context.Context, org Organization) (Organization, error)
	MarkCalled(ctx context.Context, id int64, at time.Time) error

	// AdjustScore applies score = clamp(score + delta) and returns the new score.
	AdjustScore(ctx context.Context, id int64, delta float64) (float64, error)
}
