// Package llm wraps the Anthropic-style messages endpoint used for
// summary adjudication, rewrite briefs, and story reranking. The client
// degrades explicitly: a missing key disables it, and auth failures trip
// a breaker for the remainder of the run.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	anthropicVersion = "2023-06-01"
	requestTimeout   = 45 * time.Second
	defaultMaxTokens = 1024
	messagesEndpoint = "/v1/messages"
)

// Client talks to the configured model list in order. All methods are
// safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	models     []string
	logger     zerolog.Logger

	mu       sync.Mutex
	disabled bool
}

// NewClient builds a client. An empty API key or model list yields a
// permanently disabled client; callers check Enabled before budgeting
// AI work.
func NewClient(baseURL, apiKey string, models []string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		models:     models,
		logger:     logger,
	}
}

// Enabled reports whether the client can serve requests right now.
func (c *Client) Enabled() bool {
	if c == nil || c.apiKey == "" || len(c.models) == 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.disabled
}

// disable trips the breaker; it stays tripped for the process lifetime
// of this client (one ingest run constructs one client).
func (c *Client) disable(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.disabled {
		c.disabled = true
		c.logger.Warn().Str("reason", reason).Msg("llm client disabled for remainder of run")
	}
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// complete runs one prompt through the model fallback chain and returns
// the text of the first successful completion.
func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("llm client is disabled")
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var lastErr error
	for _, model := range c.models {
		text, status, err := c.completeWithModel(ctx, model, system, user, temperature, maxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err

		switch status {
		case http.StatusNotFound:
			// Model not available on this account, try the next one.
			c.logger.Debug().Str("model", model).Msg("model unavailable, trying fallback")
			continue
		case http.StatusUnauthorized, http.StatusForbidden:
			c.disable(fmt.Sprintf("auth failure (%d)", status))
			return "", fmt.Errorf("llm auth failure: %w", err)
		default:
			return "", err
		}
	}
	return "", fmt.Errorf("all models exhausted: %w", lastErr)
}

func (c *Client) completeWithModel(ctx context.Context, model, system, user string, temperature float64, maxTokens int) (string, int, error) {
	payload, err := json.Marshal(messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      system,
		Messages:    []chatMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", 0, fmt.Errorf("marshal messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("build messages request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("call model %s: %w", model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read model %s response: %w", model, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, fmt.Errorf("model %s returned status %d", model, resp.StatusCode)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode model %s response: %w", model, err)
	}
	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", resp.StatusCode, fmt.Errorf("model %s returned empty content", model)
	}
	return text, resp.StatusCode, nil
}
