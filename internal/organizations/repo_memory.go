package organizations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory registry for tests and local runs without Postgres.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]Organization

	Now func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[int64]Organization{}, Now: time.Now}
}

func (r *MemoryRepo) Get(_ context.Context, id int64) (Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepo) FindByPhone(_ context.Context, phone string) (Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.byID {
		if o.Phone == phone {
			return o, nil
		}
	}
	return Organization{}, ErrNotFound
}

func (r *MemoryRepo) ListVerified(_ context.Context) ([]Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Organization, 0, len(r.byID))
	for _, o := range r.byID {
		if o.Verified {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) List(_ context.Context) ([]Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Organization, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Create(_ context.Context, org Organization) (Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.byID {
		if o.Phone == org.Phone {
			return Organization{}, ErrDuplicatePhone
		}
	}
	r.nextID++
	org.ID = r.nextID
	org.Score = ClampScore(org.Score)
	if org.CreatedAt.IsZero() {
		org.CreatedAt = r.Now().UTC()
	}
	r.byID[org.ID] = org
	return org, nil
}

func (r *MemoryRepo) MarkCalled(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	o.LastCalledAt = &at
	r.byID[id] = o
	return nil
}

func (r *MemoryRepo) AdjustScore(_ context.Context, id int64, delta float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	o.Score = ClampScore(o.Score + delta)
	r.byID[id] = o
	return o.Score, nil
}
