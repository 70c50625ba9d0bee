package httpx_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"outreach-agent/pkg/httpx"
	"outreach-agent/pkg/logger"
)

func TestLoggingRoundTripper(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"sid":"CA123"}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := logger.With(context.Background(), log)

	client := httpx.NewClient(5*time.Second, httpx.WithBodies(), httpx.WithLogFieldMaxLen(4096))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/calls", bytes.NewBufferString("To=%2B968"))
	rq.NoError(err)

	resp, err := client.Do(req)
	rq.NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	rq.NoError(err)
	rq.Equal(`{"sid":"CA123"}`, string(body))
	rq.Equal(http.StatusAccepted, resp.StatusCode)

	out := buf.String()
	rq.Contains(out, "http request")
	rq.Contains(out, "http response")
	rq.Contains(out, "outbound_id=")
	rq.Contains(out, "status=202")
}

func TestLoggingRoundTripperTransportError(t *testing.T) {
	rq := require.New(t)

	client := httpx.NewClient(time.Second)
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1/unreachable", nil)
	rq.NoError(err)

	_, err = client.Do(req)
	rq.Error(err)
}
