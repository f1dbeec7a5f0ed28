package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sort"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

const (
	DefaultChatModel  = "gpt-4o-mini"
	DefaultEmbedModel = string(goopenai.SmallEmbedding3)
)

// Client is the embedding gateway plus the completion service used for
// thought extraction.
type Client interface {
	// Embed returns one vector per input, in input order.
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	// ExtractThoughts returns the main ideas of text as self-contained strings.
	ExtractThoughts(ctx context.Context, text string) ([]string, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	EmbedModel string
	// Dimensions requests shortened embeddings when > 0.
	Dimensions int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

type client struct {
	api        *goopenai.Client
	chatModel  string
	embedModel string
	dimensions int
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	log        *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		apiCfg.BaseURL = strings.TrimRight(base, "/")
	}
	c := &client{
		api:        goopenai.NewClientWithConfig(apiCfg),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		dimensions: cfg.Dimensions,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		log:        log.With("client", "OpenAI"),
	}
	if c.chatModel == "" {
		c.chatModel = DefaultChatModel
	}
	if c.embedModel == "" {
		c.embedModel = DefaultEmbedModel
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.retryDelay <= 0 {
		c.retryDelay = 2 * time.Second
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}
	return c, nil
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	req := goopenai.EmbeddingRequestStrings{
		Input:      inputs,
		Model:      goopenai.EmbeddingModel(c.embedModel),
		Dimensions: c.dimensions,
	}
	var resp goopenai.EmbeddingResponse
	err := c.withRetry(ctx, "embeddings", func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateEmbeddings(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float32, 0, len(data))
	for _, d := range data {
		out = append(out, d.Embedding)
	}
	if len(out) != len(inputs) {
		c.log.Warn("Embedding count differs from input count", "requested", len(inputs), "returned", len(out), "model", c.embedModel)
	}
	return out, nil
}

const extractSystemPrompt = `Given a text, identify and list its main thoughts or core ideas.
Each thought must be self-contained: include enough context (key subjects and concepts from the text) to be understood on its own.
Focus only on the most significant concepts and reuse key terminology or phrasing from the source text where it preserves meaning.
Respond with a JSON object of the form {"thoughts": ["...", "..."]} and nothing else.`

type extractResponse struct {
	Thoughts []string `json:"thoughts"`
}

func (c *client) ExtractThoughts(ctx context.Context, text string) ([]string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: extractSystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject},
	}
	var resp goopenai.ChatCompletionResponse
	err := c.withRetry(ctx, "chat", func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: completion returned no choices")
	}
	return ParseThoughts(resp.Choices[0].Message.Content)
}

// ParseThoughts decodes the extraction payload, dropping blank entries.
func ParseThoughts(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	var parsed extractResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return nil, fmt.Errorf("openai: decode thoughts: %w", err)
	}
	out := make([]string, 0, len(parsed.Thoughts))
	for _, t := range parsed.Thoughts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *client) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := Backoff(c.retryDelay, attempt)
			c.log.Warn("Retrying openai call", "op", op, "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("openai %s: %w", op, lastErr)
}

func retryable(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// Backoff doubles base per attempt, caps at 30s and adds +/-25% jitter.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt))
	if d > 30*time.Second || d <= 0 {
		d = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
	return d + jitter
}
