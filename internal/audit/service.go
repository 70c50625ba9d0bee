package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"outreach-agent/internal/auth"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var ErrInvalidEvent = errors.New("audit: invalid event")

// Repository is append-only. No Update/Delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Action == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.Metadata == "" {
		e.Metadata = "{}"
	}
	return s.repo.Append(ctx, e)
}

// Record appends an event for the operator found in ctx.
func (s *Service) Record(ctx context.Context, action Action, ip, target string, details map[string]any) error {
	e := Event{Action: action, IPAddress: ip, Target: target}
	e.Operator, _ = auth.Operator(ctx)
	e.Role, _ = auth.Role(ctx)

	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("audit metadata: %w", err)
		}
		e.Metadata = string(b)
	}
	return s.Append(ctx, e)
}
