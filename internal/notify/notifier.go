// Package notify delivers operator notifications (the side channel): plain
// texts and playable recordings. Delivery is fire-and-forget for callers; they
// wrap every send in the best-effort policy.
package notify

import (
	"context"
	"log/slog"

	"outreach-agent/pkg/logger"
)

type Notifier interface {
	Send(ctx context.Context, text string) error
	SendAudio(ctx context.Context, url, caption string) error
}

// LogNotifier writes notifications to the structured log. Used when no chat
// transport is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, text string) error {
	logger.From(ctx).Info("notification", slog.String("text", text))
	return nil
}

func (LogNotifier) SendAudio(ctx context.Context, url, caption string) error {
	logger.From(ctx).Info("notification audio", slog.String("url", url), slog.String("caption", caption))
	return nil
}
