// Package ai talks to an OpenAI-compatible API for call transcription and
// summarization.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"outreach-agent/pkg/httpx"
)

const (
	SummaryInstruction = "Summarize this caregiver job inquiry call in 2 short sentences and include whether visa sponsorship was mentioned:\n\n"
	summarySystemRole  = "You are a concise assistant summarizing call transcripts."
	summaryMaxTokens   = 200
)

var ErrNotConfigured = errors.New("ai client not configured")

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

type Config struct {
	APIKey          string
	BaseURL         string
	TranscribeModel string
	SummaryModel    string
	Timeout         time.Duration
}

type Client struct {
	cfg Config
	api *openai.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.TranscribeModel == "" {
		cfg.TranscribeModel = openai.Whisper1
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		oc.BaseURL = base
	}
	oc.HTTPClient = httpx.NewClient(cfg.Timeout)

	return &Client{
		cfg: cfg,
		api: openai.NewClientWithConfig(oc),
	}
}

// Transcribe uploads audio and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.TranscribeModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("create transcription: %w", err)
	}
	return resp.Text, nil
}

// Summarize asks for a two sentence summary that notes whether sponsorship came up.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.SummaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemRole},
			{Role: openai.ChatMessageRoleUser, Content: SummaryInstruction + transcript},
		},
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
