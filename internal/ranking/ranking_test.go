package ranking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"outreach-agent/internal/organizations"
)

var now = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func TestRank_ExcludesUnverified(t *testing.T) {
	orgs := []organizations.Organization{
		{ID: 1, Verified: false, Score: 40},
		{ID: 2, Verified: true, Score: 1},
	}
	got := Rank(orgs, now, 10)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].Organization.ID)
}

func TestRank_RecencyPenalty(t *testing.T) {
	rq := require.New(t)

	rq.Equal(8.5, EffectiveScore(organizations.Organization{Score: 10, LastCalledAt: at(time.Hour)}, now))
	rq.Equal(8.5, EffectiveScore(organizations.Organization{Score: 10, LastCalledAt: at(47 * time.Hour)}, now))
	rq.Equal(10.0, EffectiveScore(organizations.Organization{Score: 10, LastCalledAt: at(49 * time.Hour)}, now))
	rq.Equal(10.0, EffectiveScore(organizations.Organization{Score: 10}, now))

	// A recent call drops A below B even though its stored score is higher.
	orgs := []organizations.Organization{
		{ID: 1, Name: "A", Verified: true, Score: 5, LastCalledAt: at(time.Hour)},
		{ID: 2, Name: "B", Verified: true, Score: 4},
	}
	got := Rank(orgs, now, 0)
	rq.Equal("B", got[0].Organization.Name)
	rq.Equal(3.5, got[1].EffectiveScore)
}

func TestRank_StableForEqualScores(t *testing.T) {
	orgs := make([]organizations.Organization, 0, 6)
	for i := 1; i <= 6; i++ {
		orgs = append(orgs, organizations.Organization{ID: int64(i), Verified: true, Score: 2})
	}
	got := Rank(orgs, now, 0)
	for i, e := range got {
		require.Equal(t, int64(i+1), e.Organization.ID)
	}
}

func TestEngine_BuildQueueTruncatesToLimit(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	repo := organizations.NewMemoryRepo()
	for i := 0; i < 25; i++ {
		_, err := repo.Create(ctx, organizations.Organization{
			Name:     fmt.Sprintf("org-%d", i),
			Phone:    fmt.Sprintf("+968%08d", i),
			Verified: true,
			Score:    float64(i),
		})
		rq.NoError(err)
	}

	engine := NewEngine(repo).WithClock(func() time.Time { return now })
	queue, err := engine.BuildQueue(ctx, 20)
	rq.NoError(err)
	rq.Len(queue, 20)
	rq.Equal("org-24", queue[0].Name)
	for i := 1; i < len(queue); i++ {
		rq.GreaterOrEqual(queue[i-1].Score, queue[i].Score)
	}
}

func TestEngine_SeesScoreUpdatesImmediately(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	repo := organizations.NewMemoryRepo()
	a, err := repo.Create(ctx, organizations.Organization{Name: "A", Phone: "1", Verified: true, Score: 1})
	rq.NoError(err)
	_, err = repo.Create(ctx, organizations.Organization{Name: "B", Phone: "2", Verified: true, Score: 2})
	rq.NoError(err)

	engine := NewEngine(repo).WithClock(func() time.Time { return now })
	queue, err := engine.BuildQueue(ctx, 1)
	rq.NoError(err)
	rq.Equal("B", queue[0].Name)

	_, err = repo.AdjustScore(ctx, a.ID, 5)
	rq.NoError(err)

	queue, err = engine.BuildQueue(ctx, 1)
	rq.NoError(err)
	rq.Equal("A", queue[0].Name)
}
