package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/rs/xid"

	"outreach-agent/pkg/logger"
)

const defaultLogFieldMaxLen = 2048

// LoggingRoundTripper implements http.RoundTripper and logs outbound requests and responses.
// Bodies are dumped only when DumpBodies is set; audio downloads and multipart uploads would
// otherwise flood the log.
type LoggingRoundTripper struct {
	next           http.RoundTripper
	dumpBodies     bool
	logFieldMaxLen int
}

type Option func(*LoggingRoundTripper)

func WithBodies() Option {
	return func(rt *LoggingRoundTripper) {
		rt.dumpBodies = true
	}
}

func WithLogFieldMaxLen(n int) Option {
	return func(rt *LoggingRoundTripper) {
		rt.logFieldMaxLen = n
	}
}

func NewLoggingRoundTripper(next http.RoundTripper, opts ...Option) LoggingRoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	rt := LoggingRoundTripper{
		next:           next,
		logFieldMaxLen: defaultLogFieldMaxLen,
	}
	for _, opt := range opts {
		opt(&rt)
	}
	return rt
}

// NewClient returns an *http.Client with logging and the given overall timeout.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewLoggingRoundTripper(http.DefaultTransport, opts...),
	}
}

// RoundTrip implements http.RoundTripper interface.
func (rt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	log := logger.From(ctx).With(slog.String("outbound_id", xid.New().String()))

	attrs := []any{
		slog.String("method", req.Method),
		slog.String("host", req.URL.Host),
		slog.String("path", req.URL.Path),
	}
	if rt.dumpBodies {
		if dump, err := httputil.DumpRequestOut(req, true); err == nil {
			attrs = append(attrs, slog.String("request_body", rt.truncate(dump)))
		}
	}
	log.Debug("http request", attrs...)

	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		log.Warn("http request failed", logger.Err(err), slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("next.RoundTrip: %w", err)
	}

	attrs = []any{
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if rt.dumpBodies {
		if dump, err := httputil.DumpResponse(resp, true); err == nil {
			attrs = append(attrs, slog.String("response_body", rt.truncate(dump)))
		}
	}
	log.Debug("http response", attrs...)

	return resp, nil
}

func (rt LoggingRoundTripper) truncate(b []byte) string {
	if rt.logFieldMaxLen > 0 && len(b) > rt.logFieldMaxLen {
		b = b[:rt.logFieldMaxLen]
	}
	return string(b)
}
