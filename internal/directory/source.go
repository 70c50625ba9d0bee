// Package directory discovers callable organizations and ingests them into
// the registry.
package directory

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Entry is one discovered organization before normalization.
type Entry struct {
	Name     string `json:"name" yaml:"name" validate:"required,max=200"`
	Phone    string `json:"phone" yaml:"phone" validate:"required,e164"`
	City     string `json:"city" yaml:"city" validate:"max=100"`
	Category string `json:"category" yaml:"category" validate:"max=100"`
}

type Source interface {
	Name() string
	Discover(ctx context.Context) ([]Entry, error)
}

// SampleEntries seed a fresh install.
var SampleEntries = []Entry{
	{Name: "Royal Hospital", Phone: "+96824123456", City: "Muscat", Category: "Hospital"},
	{Name: "Al Hayat Hospital", Phone: "+96825123456", City: "Sohar", Category: "Hospital"},
	{Name: "Nizwa Elderly Home", Phone: "+96826123456", City: "Nizwa", Category: "Elderly Home"},
}

// StaticSource returns a fixed list.
type StaticSource struct {
	Entries []Entry
}

func (StaticSource) Name() string { return "static" }

func (s StaticSource) Discover(context.Context) ([]Entry, error) {
	return append([]Entry(nil), s.Entries...), nil
}

// MultiSource queries every source concurrently and concatenates results in
// source order. Any failing source fails the whole discovery.
type MultiSource []Source

func (MultiSource) Name() string { return "multi" }

func (m MultiSource) Discover(ctx context.Context) ([]Entry, error) {
	results := make([][]Entry, len(m))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range m {
		g.Go(func() error {
			entries, err := src.Discover(ctx)
			if err != nil {
				return fmt.Errorf("%s source: %w", src.Name(), err)
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Entry
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
