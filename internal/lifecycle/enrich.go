package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"sync"
	"time"

	"outreach-agent/internal/ai"
	"outreach-agent/internal/calls"
	"outreach-agent/internal/notify"
	"outreach-agent/internal/organizations"
	"outreach-agent/pkg/besteffort"
	"outreach-agent/pkg/logger"
)

const SummaryFallback = "Summary generation failed."

// Fetcher downloads recording media.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Learner interface {
	UpdateFromTranscript(ctx context.Context, org *organizations.Organization, transcript string) error
}

type OrganizationGetter interface {
	Get(ctx context.Context, id int64) (organizations.Organization, error)
}

// Enricher runs fetch, transcribe, summarize, notify and learn for one recording.
type Enricher struct {
	calls       calls.Repository
	orgs        OrganizationGetter
	fetcher     Fetcher
	transcriber ai.Transcriber
	summarizer  ai.Summarizer
	notifier    notify.Notifier
	learner     Learner
}

func NewEnricher(
	callRepo calls.Repository,
	orgs OrganizationGetter,
	fetcher Fetcher,
	transcriber ai.Transcriber,
	summarizer ai.Summarizer,
	notifier notify.Notifier,
	learner Learner,
) *Enricher {
	return &Enricher{
		calls:       callRepo,
		orgs:        orgs,
		fetcher:     fetcher,
		transcriber: transcriber,
		summarizer:  summarizer,
		notifier:    notifier,
		learner:     learner,
	}
}

// Enrich never fails. Each step degrades to a fallback and the next step runs.
func (e *Enricher) Enrich(ctx context.Context, job Job) {
	log := logger.From(ctx).With(slog.Int64("record_id", job.RecordID))
	ctx = logger.With(ctx, log)

	audio := besteffort.Value(ctx, "fetch_recording", []byte(nil), func(ctx context.Context) ([]byte, error) {
		return e.fetcher.Fetch(ctx, job.MediaURL)
	})

	transcript := ""
	if len(audio) > 0 {
		transcript = besteffort.Value(ctx, "transcribe", "", func(ctx context.Context) (string, error) {
			return e.transcriber.Transcribe(ctx, audio, path.Base(job.MediaURL))
		})
	}
	besteffort.Do(ctx, "store_transcript", func(ctx context.Context) error {
		return e.calls.SetTranscript(ctx, job.RecordID, transcript)
	})

	summary := besteffort.Value(ctx, "summarize", SummaryFallback, func(ctx context.Context) (string, error) {
		return e.summarizer.Summarize(ctx, transcript)
	})
	besteffort.Do(ctx, "store_summary", func(ctx context.Context) error {
		return e.calls.SetSummary(ctx, job.RecordID, summary)
	})

	besteffort.Do(ctx, "notify_summary", func(ctx context.Context) error {
		return e.notifier.Send(ctx, notify.CallSummary(job.OrganizationName, summary))
	})
	besteffort.Do(ctx, "notify_audio", func(ctx context.Context) error {
		return e.notifier.SendAudio(ctx, job.MediaURL, notify.RecordingCaption(job.OrganizationName))
	})

	besteffort.Do(ctx, "learn", func(ctx context.Context) error {
		return e.learner.UpdateFromTranscript(ctx, e.organization(ctx, job), transcript)
	})

	log.Info("recording enriched", slog.Int("transcript_len", len(transcript)))
}

func (e *Enricher) organization(ctx context.Context, job Job) *organizations.Organization {
	if job.OrganizationID == nil {
		return nil
	}
	org, err := e.orgs.Get(ctx, *job.OrganizationID)
	if err != nil {
		if !errors.Is(err, organizations.ErrNotFound) {
			logger.From(ctx).Warn("organization lookup failed", logger.Err(err))
		}
		return nil
	}
	return &org
}

// Enqueuer hands a Job to whatever runs enrichment.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// InlineEnqueuer runs enrichment in a detached goroutine so the webhook can
// acknowledge immediately.
type InlineEnqueuer struct {
	enricher *Enricher
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewInlineEnqueuer(enricher *Enricher, timeout time.Duration) *InlineEnqueuer {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &InlineEnqueuer{enricher: enricher, timeout: timeout}
}

func (q *InlineEnqueuer) Enqueue(ctx context.Context, job Job) error {
	detached := context.WithoutCancel(ctx)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(detached, q.timeout)
		defer cancel()
		q.enricher.Enrich(ctx, job)
	}()
	return nil
}

// Wait blocks until every enrichment started so far has finished.
func (q *InlineEnqueuer) Wait() {
	q.wg.Wait()
}
