package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/domain"
	"github.com/nabla-works/ragd/internal/metrics"
)

// ChatClient generates answers via the OpenAI chat completion API.
type ChatClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// ChatConfig holds the completion provider settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

// NewChatClient creates an OpenAI chat completion client.
func NewChatClient(cfg *ChatConfig) *ChatClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &ChatClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// Complete runs a single chat completion.
// A non-nil temperature overrides the configured default.
func (c *ChatClient) Complete(ctx context.Context, messages []domain.ChatMessage, temperature *float32) (domain.Completion, error) {
	req := c.request(messages, temperature)

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(c.model, "sync", "error").Inc()
		return domain.Completion{}, completionError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues(c.model, "sync", "error").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.ChatRequestsTotal.WithLabelValues(c.model, "sync", "success").Inc()
	metrics.ChatDuration.WithLabelValues(c.model, "sync").Observe(time.Since(start).Seconds())
	recordTokens(c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return domain.Completion{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// Stream runs a streaming chat completion, invoking fn for every content
// delta. The returned completion holds the full text and token usage.
func (c *ChatClient) Stream(ctx context.Context, messages []domain.ChatMessage, temperature *float32, fn func(delta string) error) (domain.Completion, error) {
	req := c.request(messages, temperature)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	start := time.Now()

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(c.model, "stream", "error").Inc()
		return domain.Completion{}, completionError(err)
	}
	defer stream.Close()

	var sb strings.Builder
	out := domain.Completion{Model: c.model}

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.ChatRequestsTotal.WithLabelValues(c.model, "stream", "error").Inc()
			return domain.Completion{}, completionError(err)
		}

		if chunk.Model != "" {
			out.Model = chunk.Model
		}
		// Usage arrives in the final chunk when include_usage is set.
		if chunk.Usage != nil {
			out.PromptTokens = chunk.Usage.PromptTokens
			out.CompletionTokens = chunk.Usage.CompletionTokens
			out.TotalTokens = chunk.Usage.TotalTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if err := fn(delta); err != nil {
			return domain.Completion{}, fmt.Errorf("stream consumer: %w", err)
		}
	}

	metrics.ChatRequestsTotal.WithLabelValues(c.model, "stream", "success").Inc()
	metrics.ChatDuration.WithLabelValues(c.model, "stream").Observe(time.Since(start).Seconds())
	recordTokens(c.model, out.PromptTokens, out.CompletionTokens)

	out.Content = sb.String()
	return out, nil
}

func (c *ChatClient) request(messages []domain.ChatMessage, temperature *float32) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	temp := c.temperature
	if temperature != nil {
		temp = *temperature
	}

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   c.maxTokens,
	}
}

func recordTokens(model string, prompt, completion int) {
	if prompt > 0 {
		metrics.ChatTokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		metrics.ChatTokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
	}
}

func completionError(err error) error {
	return fmt.Errorf("completion API: %v: %w", parseAPIError(err), domain.ErrCompletionProviderError)
}
