package prose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultURL   = "https://aiapi-prod.stanford.edu/v1/chat/completions"
	DefaultModel = "gemini-2.5-pro"

	maxResponseSize = 1 << 20
	maxErrorBody    = 200
)

// Options configures a Client.
type Options struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	// Timeout bounds each HTTP attempt. Default 60s.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first transient failure.
	MaxRetries uint64
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	opts Options
	http *http.Client
	log  *slog.Logger
}

// NewClient builds a Client. An empty APIKey is allowed; Generate then
// fails with ErrNotConfigured.
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{opts: opts, http: hc, log: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate renders the prompt for req and asks the model for wiki text.
// Rate limits and server errors are retried with exponential backoff.
func (c *Client) Generate(ctx context.Context, req Request) (Text, error) {
	if c.opts.APIKey == "" {
		return Text{}, ErrNotConfigured
	}
	prompt, err := Prompt(req)
	if err != nil {
		return Text{}, err
	}
	body, err := json.Marshal(chatRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Text{}, fmt.Errorf("encode request: %w", err)
	}

	var content string
	attempt := 0
	op := func() error {
		attempt++
		var err error
		content, err = c.complete(ctx, body)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Transient() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		c.log.Debug("completion failed, retrying", "attempt", attempt, "error", err)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.opts.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return Text{}, err
	}

	return ParseText(content)
}

func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		text := string(data)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return "", &APIError{Status: resp.StatusCode, Body: text}
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if len(cr.Choices) == 0 {
		return "", backoff.Permanent(errors.New("response has no choices"))
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

var (
	openFence  = regexp.MustCompile("^```(?:json)?\\s*")
	closeFence = regexp.MustCompile("\\s*```$")
)

// ParseText decodes the model's JSON answer, tolerating a ```json fence.
func ParseText(content string) (Text, error) {
	content = strings.TrimSpace(content)
	content = openFence.ReplaceAllString(content, "")
	content = closeFence.ReplaceAllString(content, "")

	var t Text
	if err := json.Unmarshal([]byte(content), &t); err != nil {
		return Text{}, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return t, nil
}
