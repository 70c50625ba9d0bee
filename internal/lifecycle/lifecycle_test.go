package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"outreach-agent/internal/calls"
	"outreach-agent/internal/learning"
	"outreach-agent/internal/organizations"
)

type recordingNotifier struct {
	mu     sync.Mutex
	texts  []string
	audios []string
	fail   bool
}

func (n *recordingNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("telegram down")
	}
	n.texts = append(n.texts, text)
	return nil
}

func (n *recordingNotifier) SendAudio(_ context.Context, url, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("telegram down")
	}
	n.audios = append(n.audios, url)
	return nil
}

type fakeFetcher struct {
	data []byte
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) ([]byte, error) { return f.data, f.err }

type fakeAI struct {
	transcript    string
	transcribeErr error
	summary       string
	summarizeErr  error
}

func (f fakeAI) Transcribe(context.Context, []byte, string) (string, error) {
	return f.transcript, f.transcribeErr
}

func (f fakeAI) Summarize(context.Context, string) (string, error) {
	return f.summary, f.summarizeErr
}

type fixture struct {
	orgs     *organizations.MemoryRepo
	calls    *calls.MemoryRepo
	notifier *recordingNotifier
	tracker  *Tracker
	org      organizations.Organization
}

func newFixture(t *testing.T, opts ...TrackerOption) fixture {
	t.Helper()
	orgs := organizations.NewMemoryRepo()
	org, err := orgs.Create(context.Background(), organizations.Organization{
		Name: "Royal Hospital", Phone: "+96824123456", Verified: true, Score: 10,
	})
	require.NoError(t, err)

	callRepo := calls.NewMemoryRepo()
	n := &recordingNotifier{}
	return fixture{
		orgs:     orgs,
		calls:    callRepo,
		notifier: n,
		tracker:  NewTracker(orgs, callRepo, n, opts...),
		org:      org,
	}
}

func TestHandleStatus_KnownOrganization(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)

	rec, err := f.tracker.HandleStatus(context.Background(), StatusEvent{
		CallID: "CA1", To: "+96824123456", Status: calls.CallStatusCompleted, DurationSeconds: 42, HungUpBy: "callee",
	})
	rq.NoError(err)
	rq.NotNil(rec.OrganizationID)
	rq.Equal(f.org.ID, *rec.OrganizationID)
	rq.Equal("Royal Hospital", rec.OrganizationName)
	rq.Equal(42, rec.DurationSeconds)
	rq.Equal("callee", *rec.HungUpBy)
	rq.Len(f.notifier.texts, 1)
	rq.Contains(f.notifier.texts[0], "Duration: 42s")
}

func TestHandleStatus_UnknownNumberNoAnswer(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)

	rec, err := f.tracker.HandleStatus(context.Background(), StatusEvent{
		CallID: "CA2", To: "+96899999999", Status: calls.CallStatusNoAnswer,
	})
	rq.NoError(err)
	rq.Nil(rec.OrganizationID)
	rq.Equal("+96899999999", rec.OrganizationName)
	rq.Contains(f.notifier.texts[0], "failed or unanswered")
}

func TestHandleStatus_AlwaysAppends(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	for _, s := range []calls.CallStatus{calls.CallStatusRinging, calls.CallStatusInProgress, calls.CallStatusCompleted} {
		_, err := f.tracker.HandleStatus(ctx, StatusEvent{To: "+96824123456", Status: s})
		rq.NoError(err)
	}
	all, err := f.calls.ListRecent(ctx, 0)
	rq.NoError(err)
	rq.Len(all, 3)
	rq.Contains(f.notifier.texts[0], "status update")
}

func TestHandleStatus_NotificationFailureIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = true
	_, err := f.tracker.HandleStatus(context.Background(), StatusEvent{To: "+96824123456", Status: calls.CallStatusBusy})
	require.NoError(t, err)
}

func TestHandleStatus_MissingStatusStillAppends(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.tracker.HandleStatus(ctx, StatusEvent{CallID: "CA9", To: "+96824123456"})
	rq.NoError(err)
	rq.Equal(calls.CallStatus(""), rec.Status)
	rq.Equal("Royal Hospital", rec.OrganizationName)

	all, err := f.calls.ListRecent(ctx, 0)
	rq.NoError(err)
	rq.Len(all, 1)
}

func TestHandleRecording_CreatesRecordedEntryWhenMissing(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.tracker.HandleRecording(ctx, RecordingEvent{
		RecordingURL: "https://api.twilio.com/Recordings/RE1", To: "+96824123456", DurationSeconds: 30,
	})
	rq.NoError(err)
	rq.Equal("https://api.twilio.com/Recordings/RE1.mp3", job.MediaURL)
	rq.Equal("Royal Hospital", job.OrganizationName)
	rq.Equal(f.org.ID, *job.OrganizationID)

	rec, err := f.calls.Get(ctx, job.RecordID)
	rq.NoError(err)
	rq.Equal(calls.CallStatusRecorded, rec.Status)
	rq.Equal(30, rec.DurationSeconds)
	rq.Equal(job.MediaURL, *rec.RecordingURL)
}

func TestHandleRecording_IsIdempotent(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.tracker.HandleStatus(ctx, StatusEvent{To: "+96824123456", Status: calls.CallStatusCompleted, DurationSeconds: 12})
	rq.NoError(err)

	ev := RecordingEvent{RecordingURL: "https://media/RE2", To: "+96824123456", DurationSeconds: 11}
	first, err := f.tracker.HandleRecording(ctx, ev)
	rq.NoError(err)
	second, err := f.tracker.HandleRecording(ctx, ev)
	rq.NoError(err)

	rq.Equal(status.ID, first.RecordID)
	rq.Equal(first.RecordID, second.RecordID)

	all, err := f.calls.ListRecent(ctx, 0)
	rq.NoError(err)
	rq.Len(all, 1)
}

func TestHandleRecording_MatchWindow(t *testing.T) {
	rq := require.New(t)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, WithMatchWindow(time.Hour), WithTrackerClock(func() time.Time { return now }))
	ctx := context.Background()

	old, err := f.calls.Append(ctx, calls.CallRecord{Phone: "+96824123456", Status: calls.CallStatusCompleted, CreatedAt: now.Add(-3 * time.Hour)})
	rq.NoError(err)

	job, err := f.tracker.HandleRecording(ctx, RecordingEvent{RecordingURL: "https://media/RE3", To: "+96824123456"})
	rq.NoError(err)
	rq.NotEqual(old.ID, job.RecordID)
}

func TestHandleRecording_KeepsLinkedNameWhenPhoneNoLongerResolves(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	linked, err := f.calls.Append(ctx, calls.CallRecord{
		OrganizationID:   &f.org.ID,
		OrganizationName: "Royal Hospital",
		Phone:            "+96899999999",
		Status:           calls.CallStatusCompleted,
	})
	rq.NoError(err)

	job, err := f.tracker.HandleRecording(ctx, RecordingEvent{RecordingURL: "https://media/RE7", To: "+96899999999"})
	rq.NoError(err)
	rq.Equal(linked.ID, job.RecordID)
	rq.Equal(f.org.ID, *job.OrganizationID)
	rq.Equal("Royal Hospital", job.OrganizationName)
}

func TestHandleRecording_RequiresURL(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.HandleRecording(context.Background(), RecordingEvent{To: "+96824123456"})
	require.ErrorIs(t, err, ErrInvalidEvent)
}

func TestEnrich_HappyPath(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.tracker.HandleRecording(ctx, RecordingEvent{RecordingURL: "https://media/RE4", To: "+96824123456"})
	rq.NoError(err)

	e := NewEnricher(f.calls, f.orgs, fakeFetcher{data: []byte("mp3")},
		fakeAI{transcript: "We do offer visa sponsorship for caregivers, thank you for calling."},
		fakeAI{summary: "They sponsor visas."},
		f.notifier, learning.NewLearner(f.orgs))
	e.Enrich(ctx, job)

	rec, err := f.calls.Get(ctx, job.RecordID)
	rq.NoError(err)
	rq.Equal("They sponsor visas.", *rec.Summary)
	rq.Contains(*rec.Transcript, "visa sponsorship")
	rq.Contains(f.notifier.texts, "📋 Call Summary - Royal Hospital\nThey sponsor visas.")
	rq.Equal([]string{job.MediaURL}, f.notifier.audios)

	org, err := f.orgs.Get(ctx, f.org.ID)
	rq.NoError(err)
	rq.Equal(15.0, org.Score)
}

func TestEnrich_DegradesOnEveryFailure(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.tracker.HandleRecording(ctx, RecordingEvent{RecordingURL: "https://media/RE5", To: "+96824123456"})
	rq.NoError(err)

	f.notifier.fail = true
	e := NewEnricher(f.calls, f.orgs, fakeFetcher{data: []byte("mp3")},
		fakeAI{transcribeErr: errors.New("whisper 503")},
		fakeAI{summarizeErr: errors.New("rate limited")},
		f.notifier, learning.NewLearner(f.orgs))
	e.Enrich(ctx, job)

	rec, err := f.calls.Get(ctx, job.RecordID)
	rq.NoError(err)
	rq.Equal("", *rec.Transcript)
	rq.Equal(SummaryFallback, *rec.Summary)

	org, err := f.orgs.Get(ctx, f.org.ID)
	rq.NoError(err)
	rq.Equal(10.0, org.Score)
}

func TestEnrich_FetchFailureSkipsTranscription(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.tracker.HandleRecording(ctx, RecordingEvent{RecordingURL: "https://media/RE6", To: "+96800000000"})
	rq.NoError(err)
	rq.Nil(job.OrganizationID)

	e := NewEnricher(f.calls, f.orgs, fakeFetcher{err: errors.New("404")},
		fakeAI{transcript: "should not be used"},
		fakeAI{summary: "No audio."},
		f.notifier, learning.NewLearner(f.orgs))
	e.Enrich(ctx, job)

	rec, err := f.calls.Get(ctx, job.RecordID)
	rq.NoError(err)
	rq.Equal("", *rec.Transcript)
	rq.Equal("No audio.", *rec.Summary)
}

func TestInlineEnqueuer_RunsDetached(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t)

	job, err := f.tracker.HandleRecording(context.Background(), RecordingEvent{RecordingURL: "https://media/RE7", To: "+96824123456"})
	rq.NoError(err)

	e := NewEnricher(f.calls, f.orgs, fakeFetcher{data: []byte("mp3")},
		fakeAI{transcript: "no openings"}, fakeAI{summary: "No openings."},
		f.notifier, learning.NewLearner(f.orgs))
	q := NewInlineEnqueuer(e, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	rq.NoError(q.Enqueue(ctx, job))
	cancel()
	q.Wait()

	rec, err := f.calls.Get(context.Background(), job.RecordID)
	rq.NoError(err)
	rq.Equal("No openings.", *rec.Summary)
}
