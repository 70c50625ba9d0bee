package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/require"

	"outreach-agent/pkg/logger"
)

const testToken = "123456:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func TestLogNotifier(t *testing.T) {
	rq := require.New(t)
	var buf bytes.Buffer
	ctx := logger.With(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	n := LogNotifier{}
	rq.NoError(n.Send(ctx, "Calling: Royal Hospital"))
	rq.NoError(n.SendAudio(ctx, "https://media/RE1.mp3", "Recording - Royal Hospital"))

	out := buf.String()
	rq.Contains(out, "Calling: Royal Hospital")
	rq.Contains(out, "https://media/RE1.mp3")
}

func TestMessages(t *testing.T) {
	rq := require.New(t)
	rq.Equal("📞 Calling: Royal Hospital (+96824123456)", Calling("Royal Hospital", "+96824123456"))
	rq.Contains(CallCompleted("Royal Hospital", "+968", 42), "Duration: 42s")
	rq.Contains(CallFailedToStart("A", "1", errors.New("401")), "Error: 401")
	rq.Contains(IngestionComplete(3, 2), "3 results, 2 added")
	rq.Equal("📋 Call Summary - A\nThey sponsor.", CallSummary("A", "They sponsor."))

	text := MorningNotice(8, 17, Motivator())
	rq.Contains(text, "begin at 8:00")
	rq.Contains(text, "approx 17 contacts")

	line := Motivator()
	found := false
	for _, m := range motivators {
		if m == line {
			found = true
		}
	}
	rq.True(found)
}

func TestTelegramNotifier(t *testing.T) {
	rq := require.New(t)

	var (
		mu      sync.Mutex
		methods []string
		bodies  []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		methods = append(methods, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		bodies = append(bodies, string(body))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(testToken, 42,
		telego.WithAPIServer(srv.URL),
		telego.WithHTTPClient(srv.Client()),
		telego.WithDiscardLogger(),
	)
	rq.NoError(err)

	ctx := context.Background()
	rq.NoError(n.Send(ctx, "Calling: Royal Hospital"))
	rq.NoError(n.SendAudio(ctx, "https://media/RE1.mp3", "Recording - Royal Hospital"))

	mu.Lock()
	defer mu.Unlock()
	rq.Equal([]string{"sendMessage", "sendAudio"}, methods)
	rq.Contains(bodies[0], "Calling: Royal Hospital")
	rq.Contains(bodies[1], "https://media/RE1.mp3")
}

func TestNewTelegramNotifierRejectsBadToken(t *testing.T) {
	_, err := NewTelegramNotifier("not-a-token", 1)
	require.Error(t, err)
}
