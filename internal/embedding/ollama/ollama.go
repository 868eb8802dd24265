// Package ollama embeds text through a local Ollama server's /api/embed
// endpoint.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	defaultHost  = "http://localhost:11434"
	defaultModel = "nomic-embed-text"
)

// Config configures the Ollama embeddings client.
type Config struct {
	// Host is the server base URL; OLLAMA_HOST is used when empty.
	Host       string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client implements the Embedder interface on top of the Ollama API client.
type Client struct {
	api        *api.Client
	model      string
	maxRetries int
	backoff    time.Duration
	dimension  int
}

func NewClient(cfg Config) (*Client, error) {
	host := cfg.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultHost
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Client{
		api:        api.NewClient(base, &http.Client{Timeout: timeout}),
		model:      cfg.Model,
		maxRetries: retries,
		backoff:    time.Second,
	}, nil
}

func (c *Client) Name() string { return "ollama" }

// Prepare is a no-op; the model is pre-trained.
func (c *Client) Prepare(corpus []string) error { return nil }

// Dimension is known after the first successful Embed.
func (c *Client) Dimension() int { return c.dimension }

// Embed sends all texts in one /api/embed request and returns vectors in
// input order. Server errors and rate limits are retried with backoff.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, errors.New("no input texts")
	}
	req := &api.EmbedRequest{Model: c.model, Input: texts}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
		resp, err := c.api.Embed(ctx, req)
		if err == nil {
			return c.vectors(resp, len(texts))
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("ollama embed: %w", lastErr)
}

func (c *Client) vectors(resp *api.EmbedResponse, want int) ([][]float64, error) {
	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(resp.Embeddings))
	}
	out := make([][]float64, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if len(e) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		v := make([]float64, len(e))
		for j, x := range e {
			v[j] = float64(x)
		}
		out[i] = v
	}
	if c.dimension == 0 {
		c.dimension = len(out[0])
	}
	return out, nil
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.backoff << (attempt - 1))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable reports whether err is a rate limit, a server error or a
// transport failure.
func retryable(err error) bool {
	var se api.StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}
