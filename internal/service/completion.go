package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/set-night/leadbot/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// CompletionClient talks to an OpenAI-compatible Chat Completions endpoint.
type CompletionClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature *float64
	httpClient  *http.Client
}

type CompletionOption func(*CompletionClient)

func WithBaseURL(baseURL string) CompletionOption {
	return func(c *CompletionClient) {
		if u := strings.TrimSpace(baseURL); u != "" {
			c.baseURL = u
		}
	}
}

func WithModel(model string) CompletionOption {
	return func(c *CompletionClient) { c.model = model }
}

func WithMaxTokens(n int) CompletionOption {
	return func(c *CompletionClient) { c.maxTokens = n }
}

func WithTemperature(t float64) CompletionOption {
	return func(c *CompletionClient) { c.temperature = &t }
}

func WithHTTPClient(hc *http.Client) CompletionOption {
	return func(c *CompletionClient) { c.httpClient = hc }
}

func NewCompletionClient(apiKey string, opts ...CompletionOption) *CompletionClient {
	c := &CompletionClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      "gpt-4o",
		maxTokens:  500,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []domain.Turn `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// HTTPStatusError is a non-2xx answer from the provider.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return "rate limited by provider (429)"
	case http.StatusServiceUnavailable:
		return "provider unavailable (503)"
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Complete sends turns and returns the first choice. Every failure wraps
// domain.ErrProvider.
func (c *CompletionClient) Complete(ctx context.Context, turns []domain.Turn) (string, error) {
	reply, err := c.complete(ctx, turns)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	return reply, nil
}

func (c *CompletionClient) complete(ctx context.Context, turns []domain.Turn) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    turns,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatURL(c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty completion")
	}
	return content, nil
}
