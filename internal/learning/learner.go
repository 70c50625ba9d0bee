package learning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"outreach-agent/internal/organizations"
	"outreach-agent/pkg/logger"
)

const (
	sponsorshipDelta = 5.0
	noVacancyDelta   = -2.0
	verboseDelta     = 1.5

	verboseWordCount = 40
)

var (
	sponsorshipKeywords = []string{"visa", "sponsor", "sponsorship"}
	noVacancyPhrases    = []string{"no vacancy", "no vacancies", "no openings", "not available"}
)

// ScoreDelta scores a transcript. Rules are additive; clamping is left to the store.
func ScoreDelta(transcript string) float64 {
	text := strings.ToLower(transcript)

	var delta float64
	if containsAny(text, sponsorshipKeywords) {
		delta += sponsorshipDelta
	}
	if containsAny(text, noVacancyPhrases) {
		delta += noVacancyDelta
	}
	if len(strings.Fields(text)) > verboseWordCount {
		delta += verboseDelta
	}
	return delta
}

// ScoreAdjuster applies score = clamp(score + delta) atomically.
type ScoreAdjuster interface {
	AdjustScore(ctx context.Context, id int64, delta float64) (float64, error)
}

type Learner struct {
	orgs ScoreAdjuster
}

func NewLearner(orgs ScoreAdjuster) *Learner {
	return &Learner{orgs: orgs}
}

// UpdateFromTranscript adjusts org's score from what was said on the call.
// A nil org is a no-op.
func (l *Learner) UpdateFromTranscript(ctx context.Context, org *organizations.Organization, transcript string) error {
	if org == nil {
		return nil
	}
	delta := ScoreDelta(transcript)
	score, err := l.orgs.AdjustScore(ctx, org.ID, delta)
	if err != nil {
		return fmt.Errorf("adjust score for organization %d: %w", org.ID, err)
	}
	logger.From(ctx).Info("organization score updated",
		slog.Int64("organization_id", org.ID),
		slog.Float64("delta", delta),
		slog.Float64("score", score),
	)
	return nil
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
