package organizations

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("organization not found")
	ErrDuplicatePhone = errors.New("organization with this phone already exists")
)

// Score bounds. Every stored score stays inside [MinScore, MaxScore].
const (
	MinScore = -20.0
	MaxScore = 50.0
)

const DefaultCountryPrefix = "+968"

// Organization is a callable target (hospital, elderly home, clinic).
//
// Phone is the identity used to match provider webhooks back to the registry,
// so it must be unique and normalized before it is stored.
type Organization struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Phone    string `json:"phone" db:"phone"`
	City     string `json:"city" db:"city"`
	Category string `json:"category" db:"category"`
	Verified bool   `json:"verified" db:"verified"`

	Score        float64    `json:"score" db:"score"`
	LastCalledAt *time.Time `json:"last_called_at,omitempty" db:"last_called_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ClampScore bounds v to [MinScore, MaxScore].
func ClampScore(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "\u00a0", "") //nolint:gochecknoglobals // skip

// NormalizePhone drops spacing and punctuation from raw and rewrites a
// national leading "0" to countryPrefix, so stored numbers compare equal to
// the E.164 numbers Twilio reports.
func NormalizePhone(raw, countryPrefix string) string {
	p := phoneSeparators.Replace(strings.TrimSpace(raw))
	if countryPrefix == "" {
		countryPrefix = DefaultCountryPrefix
	}
	if strings.HasPrefix(p, "0") {
		return countryPrefix + p[1:]
	}
	return p
}
