package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"outreach-agent/internal/notify"
	"outreach-agent/internal/organizations"
	"outreach-agent/pkg/besteffort"
	"outreach-agent/pkg/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip

// Result counts one ingestion run. Found includes entries that were skipped.
type Result struct {
	Found int `json:"found"`
	Added int `json:"added"`
}

type Registry interface {
	FindByPhone(ctx context.Context, phone string) (organizations.Organization, error)
	Create(ctx context.Context, org organizations.Organization) (organizations.Organization, error)
}

type Ingestor struct {
	source        Source
	orgs          Registry
	notifier      notify.Notifier
	countryPrefix string
}

func NewIngestor(source Source, orgs Registry, notifier notify.Notifier, countryPrefix string) *Ingestor {
	return &Ingestor{
		source:        source,
		orgs:          orgs,
		notifier:      notifier,
		countryPrefix: countryPrefix,
	}
}

// Run discovers entries and inserts the ones whose phone is new as verified
// organizations with score 0.
func (i *Ingestor) Run(ctx context.Context) (Result, error) {
	log := logger.From(ctx)

	entries, err := i.source.Discover(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("discover: %w", err)
	}

	res := Result{Found: len(entries)}
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		if strings.TrimSpace(e.Phone) == "" {
			continue
		}
		e.Name = strings.TrimSpace(e.Name)
		e.City = strings.TrimSpace(e.City)
		e.Category = strings.TrimSpace(e.Category)
		e.Phone = organizations.NormalizePhone(e.Phone, i.countryPrefix)

		if err := validate.StructCtx(ctx, e); err != nil {
			log.Warn("directory entry rejected", slog.String("name", e.Name), slog.String("phone", e.Phone), logger.Err(err))
			continue
		}
		if _, dup := seen[e.Phone]; dup {
			continue
		}
		seen[e.Phone] = struct{}{}

		_, err := i.orgs.FindByPhone(ctx, e.Phone)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, organizations.ErrNotFound):
			return res, fmt.Errorf("find organization %s: %w", e.Phone, err)
		}

		_, err = i.orgs.Create(ctx, organizations.Organization{
			Name:     e.Name,
			Phone:    e.Phone,
			City:     e.City,
			Category: e.Category,
			Verified: true,
		})
		switch {
		case errors.Is(err, organizations.ErrDuplicatePhone):
			// Inserted concurrently by another writer.
			continue
		case err != nil:
			return res, fmt.Errorf("create organization %s: %w", e.Phone, err)
		}
		res.Added++
	}

	log.Info("directory ingestion finished",
		slog.String("source", i.source.Name()),
		slog.Int("found", res.Found),
		slog.Int("added", res.Added),
	)
	besteffort.Do(ctx, "notify_ingestion", func(ctx context.Context) error {
		return i.notifier.Send(ctx, notify.IngestionComplete(res.Found, res.Added))
	})
	return res, nil
}
