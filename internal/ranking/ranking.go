package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"outreach-agent/internal/organizations"
)

const (
	RecencyWindow  = 48 * time.Hour
	RecencyPenalty = -1.5
)

// Lister is the registry read the engine needs.
type Lister interface {
	ListVerified(ctx context.Context) ([]organizations.Organization, error)
}

// Entry pairs an organization with the score it was ranked by.
type Entry struct {
	Organization   organizations.Organization `json:"organization"`
	EffectiveScore float64                    `json:"effective_score"`
}

// Engine computes the call queue from scratch on every invocation. It holds no
// state between calls so score updates are visible immediately.
type Engine struct {
	orgs Lister
	now  func() time.Time
}

func NewEngine(orgs Lister) *Engine {
	return &Engine{orgs: orgs, now: time.Now}
}

// WithClock replaces the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// EffectiveScore is the stored score plus the recency penalty.
func EffectiveScore(o organizations.Organization, now time.Time) float64 {
	if o.LastCalledAt != nil && now.Sub(*o.LastCalledAt) < RecencyWindow {
		return o.Score + RecencyPenalty
	}
	return o.Score
}

// Rank orders verified organizations by effective score, highest first. Equal
// scores keep the input order. limit <= 0 means no truncation.
func Rank(orgs []organizations.Organization, now time.Time, limit int) []Entry {
	entries := lo.FilterMap(orgs, func(o organizations.Organization, _ int) (Entry, bool) {
		return Entry{Organization: o, EffectiveScore: EffectiveScore(o, now)}, o.Verified
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].EffectiveScore > entries[j].EffectiveScore
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Preview returns the ranked entries with their effective scores.
func (e *Engine) Preview(ctx context.Context, limit int) ([]Entry, error) {
	orgs, err := e.orgs.ListVerified(ctx)
	if err != nil {
		return nil, fmt.Errorf("list verified organizations: %w", err)
	}
	return Rank(orgs, e.now(), limit), nil
}

// BuildQueue returns at most limit organizations in call order.
func (e *Engine) BuildQueue(ctx context.Context, limit int) ([]organizations.Organization, error) {
	entries, err := e.Preview(ctx, limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(en Entry, _ int) organizations.Organization { return en.Organization }), nil
}
