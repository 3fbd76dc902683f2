// Package llm produces the assistant's spoken replies through a hosted
// chat-completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"foreclosure-voice/internal/conversation"
	"foreclosure-voice/pkg/logger"
)

const (
	DefaultModel     = "gpt-4-turbo-preview"
	DefaultMaxTokens = 150
	DefaultTimeout   = 4 * time.Second
	DefaultWindow    = 16
)

// ErrUnavailable means the model could not be reached in time. The caller is
// expected to hand the call to a person rather than retry.
var ErrUnavailable = errors.New("llm: unavailable")

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// HistoryWindow caps how many stored messages are sent; <= 0 sends all.
	HistoryWindow int
}

// Reply is the assistant's next utterance.
type Reply struct {
	Text     string
	Model    string
	Fallback bool
	Latency  time.Duration
}

type Client struct {
	api *openai.Client
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{cfg: cfg}
	if cfg.APIKey == "" {
		return c
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	c.api = openai.NewClientWithConfig(oc)
	return c
}

func (c *Client) Model() string { return c.cfg.Model }

// Reply asks the model for the next assistant utterance given the ordered
// history, which must already end with the caller's latest words.
//
// Missing credentials, an error status from the API, or an empty completion
// all yield the fallback utterance with a nil error. Only transport failures
// and timeouts return ErrUnavailable.
func (c *Client) Reply(ctx context.Context, history []conversation.Message) (Reply, error) {
	log := logger.From(ctx)
	fallback := Reply{Text: FallbackUtterance, Model: c.cfg.Model, Fallback: true}

	if c.api == nil {
		log.Error("llm credentials not configured")
		return fallback, nil
	}

	prompt := buildPrompt(history, c.cfg.HistoryWindow)
	msgs := make([]openai.ChatCompletionMessage, 0, len(prompt))
	for _, m := range prompt {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            c.cfg.Model,
		Messages:         msgs,
		MaxTokens:        c.cfg.MaxTokens,
		Temperature:      0.7,
		TopP:             1,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.3,
	})
	latency := time.Since(start)
	fallback.Latency = latency

	if err != nil {
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			log.Error("llm api error", "status", apiErr.HTTPStatusCode, "error", apiErr.Message)
			return fallback, nil
		case errors.As(err, &reqErr):
			log.Error("llm request rejected", "status", reqErr.HTTPStatusCode, "error", reqErr.Error())
			return fallback, nil
		}
		log.Error("llm unreachable", "error", err, "duration_ms", float64(latency.Milliseconds()))
		return Reply{Model: c.cfg.Model, Latency: latency}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		log.Error("llm returned no choices")
		return fallback, nil
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		log.Error("llm returned empty message")
		return fallback, nil
	}

	log.Debug("llm reply", "messages", len(msgs), "duration_ms", float64(latency.Milliseconds()))
	return Reply{Text: text, Model: c.cfg.Model, Latency: latency}, nil
}
