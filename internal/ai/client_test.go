package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

func TestClient_Transcribe(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal("/audio/transcriptions", r.URL.Path)
		rq.Equal("Bearer sk-test", r.Header.Get("Authorization"))
		rq.NoError(r.ParseMultipartForm(1 << 20))
		rq.Equal("whisper-1", r.FormValue("model"))

		f, hdr, err := r.FormFile("file")
		rq.NoError(err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		rq.Equal("recording.mp3", hdr.Filename)
		rq.Equal("ID3-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"We sponsor visas."}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", TranscribeModel: "whisper-1"})
	text, err := c.Transcribe(context.Background(), []byte("ID3-bytes"), "recording.mp3")
	rq.NoError(err)
	rq.Equal("We sponsor visas.", text)
}

func TestClient_Summarize(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal("/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		rq.NoError(json.NewDecoder(r.Body).Decode(&req))
		rq.Equal("gpt-4o-mini", req.Model)
		rq.Equal(200, req.MaxTokens)
		rq.Len(req.Messages, 2)
		rq.Equal(openai.ChatMessageRoleSystem, req.Messages[0].Role)
		rq.Equal(SummaryInstruction+"hello", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  They sponsor visas.  "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, SummaryModel: "gpt-4o-mini"})
	summary, err := c.Summarize(context.Background(), "hello")
	rq.NoError(err)
	rq.Equal("They sponsor visas.", summary)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := c.Summarize(context.Background(), "x")
	require.Error(t, err)

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.Transcribe(context.Background(), nil, "a.mp3")
	require.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.Summarize(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotConfigured)
}
