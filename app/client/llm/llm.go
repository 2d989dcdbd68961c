package llm

import (
	"assistbot/app/config"
	"assistbot/app/service/history"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/do"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var ErrEmptyCompletion = errors.New("completion returned no choices")

type model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client produces assistant replies through an OpenAI-compatible endpoint.
type Client struct {
	model       model
	modelName   string
	temperature float64
	timeout     time.Duration
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	llm, err := openai.New(
		openai.WithToken(cfg.LLM.Token),
		openai.WithBaseURL(cfg.LLM.BaseURL),
		openai.WithModel(cfg.LLM.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}),
		openai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return newClient(llm, cfg.LLM), nil
}

func newClient(m model, cfg config.LLM) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		model:       m,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}
}

// Complete returns the assistant text for the given prompt sequence.
func (c *Client) Complete(ctx context.Context, messages []history.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	resp, err := c.model.GenerateContent(ctx, toMessageContent(messages), llms.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	result := strings.TrimSpace(resp.Choices[0].Content)

	slog.Debug("Completion done",
		"model", c.modelName,
		"messages", len(messages),
		"reply_length", len(result),
		"duration", time.Since(start))

	return result, nil
}

func toMessageContent(messages []history.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		result = append(result, llms.TextParts(chatRole(msg.Role), msg.Content))
	}

	return result
}

func chatRole(role history.Role) llms.ChatMessageType {
	switch role {
	case history.RoleSystem:
		return llms.ChatMessageTypeSystem
	case history.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
