package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory call log for tests and early development.
type MemoryRepo struct {
	mu      sync.Mutex
	records []CallRecord

	Now func() time.Time
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{Now: time.Now} }

func (r *MemoryRepo) Append(_ context.Context, rec CallRecord) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = int64(len(r.records) + 1)
	if rec.DurationSeconds < 0 {
		rec.DurationSeconds = 0
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.Now().UTC()
	}
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *MemoryRepo) Get(_ context.Context, id int64) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index(id)
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return r.records[i], nil
}

func (r *MemoryRepo) LatestByPhone(_ context.Context, phone string, since time.Time) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		best  CallRecord
		found bool
	)
	for _, rec := range r.records {
		if rec.Phone != phone {
			continue
		}
		if !since.IsZero() && rec.CreatedAt.Before(since) {
			continue
		}
		// Later ids win ties so the newest append is returned.
		if !found || !rec.CreatedAt.Before(best.CreatedAt) {
			best, found = rec, true
		}
	}
	if !found {
		return CallRecord{}, ErrNotFound
	}
	return best, nil
}

func (r *MemoryRepo) ListRecent(_ context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, 0, min(limit, len(r.records)))
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

func (r *MemoryRepo) ListBetween(_ context.Context, from, to time.Time) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, 0)
	for _, rec := range r.records {
		if rec.CreatedAt.Before(from) || !rec.CreatedAt.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *MemoryRepo) SetRecording(_ context.Context, id int64, url string, durationSeconds int) error {
	return r.mutate(id, func(rec *CallRecord) {
		rec.RecordingURL = &url
		rec.DurationSeconds = max(durationSeconds, 0)
	})
}

func (r *MemoryRepo) SetTranscript(_ context.Context, id int64, text string) error {
	return r.mutate(id, func(rec *CallRecord) { rec.Transcript = &text })
}

func (r *MemoryRepo) SetSummary(_ context.Context, id int64, text string) error {
	return r.mutate(id, func(rec *CallRecord) { rec.Summary = &text })
}

func (r *MemoryRepo) mutate(id int64, fn func(rec *CallRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index(id)
	if !ok {
		return ErrNotFound
	}
	fn(&r.records[i])
	return nil
}

func (r *MemoryRepo) index(id int64) (int, bool) {
	i := int(id - 1)
	if i < 0 || i >= len(r.records) {
		return 0, false
	}
	return i, true
}
