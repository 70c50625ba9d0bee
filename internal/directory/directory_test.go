package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"outreach-agent/internal/organizations"
)

type captureNotifier struct{ texts []string }

func (n *captureNotifier) Send(_ context.Context, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

func (n *captureNotifier) SendAudio(context.Context, string, string) error { return nil }

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Discover(context.Context) ([]Entry, error) {
	return nil, errors.New("directory site unreachable")
}

func TestIngestor_SampleRun(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	repo := organizations.NewMemoryRepo()
	n := &captureNotifier{}

	ing := NewIngestor(StaticSource{Entries: SampleEntries}, repo, n, "+968")
	res, err := ing.Run(ctx)
	rq.NoError(err)
	rq.Equal(Result{Found: 3, Added: 3}, res)

	all, err := repo.ListVerified(ctx)
	rq.NoError(err)
	rq.Len(all, 3)
	rq.Equal("Royal Hospital", all[0].Name)
	rq.Equal(0.0, all[0].Score)
	rq.True(all[0].Verified)

	res, err = ing.Run(ctx)
	rq.NoError(err)
	rq.Equal(Result{Found: 3, Added: 0}, res)
	rq.Len(n.texts, 2)
	rq.Contains(n.texts[1], "3 results, 0 added")
}

func TestIngestor_NormalizesDedupesAndValidates(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	repo := organizations.NewMemoryRepo()

	src := StaticSource{Entries: []Entry{
		{Name: "Sur Clinic", Phone: "025555555", City: "Sur"},
		{Name: "Sur Clinic again", Phone: "+96825555555"},
		{Name: "No Phone"},
		{Name: "", Phone: "+96821111111"},
		{Name: "Bad Phone", Phone: "call us"},
	}}
	res, err := NewIngestor(src, repo, &captureNotifier{}, "+968").Run(ctx)
	rq.NoError(err)
	rq.Equal(Result{Found: 5, Added: 1}, res)

	org, err := repo.FindByPhone(ctx, "+96825555555")
	rq.NoError(err)
	rq.Equal("Sur Clinic", org.Name)
}

func TestIngestor_AcceptsFormattedNumbers(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	repo := organizations.NewMemoryRepo()
	n := &captureNotifier{}

	src := StaticSource{Entries: []Entry{
		{Name: "Muscat Care", Phone: "+968 2412 3456"},
		{Name: "Seeb Home", Phone: "024 123 457"},
		{Name: "Sohar Clinic", Phone: "+968-2412-3458"},
		{Name: "Muscat Care duplicate", Phone: "(024) 123456"},
	}}
	res, err := NewIngestor(src, repo, n, "+968").Run(ctx)
	rq.NoError(err)
	rq.Equal(Result{Found: 4, Added: 3}, res)
	rq.Contains(n.texts[0], "4 results, 3 added")

	for _, phone := range []string{"+96824123456", "+96824123457", "+96824123458"} {
		_, err := repo.FindByPhone(ctx, phone)
		rq.NoError(err, phone)
	}
}

func TestIngestor_SourceFailure(t *testing.T) {
	n := &captureNotifier{}
	_, err := NewIngestor(failingSource{}, organizations.NewMemoryRepo(), n, "+968").Run(context.Background())
	require.Error(t, err)
	require.Empty(t, n.texts)
}

func TestFileSourceAndMultiSource(t *testing.T) {
	rq := require.New(t)
	path := filepath.Join(t.TempDir(), "directory.yaml")
	rq.NoError(os.WriteFile(path, []byte(`
entries:
  - name: Salalah Care Home
    phone: "023000000"
    city: Salalah
    category: Elderly Home
`), 0o600))

	entries, err := MultiSource{StaticSource{Entries: SampleEntries}, FileSource{Path: path}}.Discover(context.Background())
	rq.NoError(err)
	rq.Len(entries, 4)
	rq.Equal("Salalah Care Home", entries[3].Name)
	rq.Equal("023000000", entries[3].Phone)

	_, err = MultiSource{StaticSource{}, failingSource{}}.Discover(context.Background())
	rq.ErrorContains(err, "broken source")

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Discover(context.Background())
	rq.Error(err)
}

func TestParseYAML_Empty(t *testing.T) {
	entries, err := ParseYAML([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, entries)
}
