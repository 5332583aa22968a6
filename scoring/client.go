/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package scoring talks to an Ollama server through its OpenAI-compatible chat
// completion endpoint to score condition risk and suggest conditions.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/humaidq/labrisk/matcher"
	"github.com/humaidq/labrisk/tasks"
)

const (
	riskSystemPrompt = "You are a medical assistant calculating risk scores."

	maxErrorBody = 4096
)

// OpenAI-compatible request/response structures
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// BreakerConfig controls when the circuit breaker opens.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the breaker settings used by NewClient.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Client scores conditions with a chat model. It is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

var _ tasks.Scorer = (*Client)(nil)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	breaker    BreakerConfig
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithBreaker replaces the circuit breaker settings.
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *clientOptions) {
		o.breaker = cfg
	}
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	o := clientOptions{breaker: DefaultBreakerConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	breakerCfg := o.breaker
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ollama",
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerCfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{config: cfg, httpClient: o.httpClient, breaker: breaker}, nil
}

// ScoreCondition asks the model for a risk score. It makes a single request.
func (c *Client) ScoreCondition(ctx context.Context, prompt string) (tasks.Scored, error) {
	content, err := c.complete(ctx, riskSystemPrompt, prompt)
	if err != nil {
		return tasks.Scored{}, err
	}

	return ParseScore(content)
}

// SuggestConditions asks the model which of conditionIDs the analysis points to.
func (c *Client) SuggestConditions(ctx context.Context, analysis string, conditionIDs []string) ([]matcher.Candidate, error) {
	quoted, err := json.Marshal(conditionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode condition ids: %w", err)
	}

	system := "You are a medical reasoning assistant. " +
		"Given a blood analysis, predict likely conditions ONLY from this list of IDs: " + string(quoted) + ". " +
		`Return only JSON like: [{"condition_id": "hypothyroidism", "level_of_risk": "High", "explanation": "..."}].`

	content, err := c.complete(ctx, system, "Here is the analysis:\n\n"+analysis)
	if err != nil {
		return nil, err
	}

	return ParseSuggestions(content)
}

// complete runs one non-streaming chat completion through the breaker.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, system, user)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logger.Warn("scoring request rejected", "model", c.config.Model, "error", err)
		return "", fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	case err != nil:
		logger.Error("scoring request failed", "model", c.config.Model, "duration", time.Since(start), "error", err)
		return "", err
	}

	logger.Debug("scoring request finished", "model", c.config.Model, "duration", time.Since(start))

	content, _ := out.(string)

	return content, nil
}

func (c *Client) post(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.config.URL, "/") + "/v1/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUnexpectedStatus, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return chatResp.Choices[0].Message.Content, nil
}
