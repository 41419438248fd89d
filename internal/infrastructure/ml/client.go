package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"RigorScore/internal/config"
	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

// Client talks to an external verdict service that answers oracle requests over JSON.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
}

var _ ports.Oracle = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.VerdictSvcConfig) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 60 * time.Second},
		limiter:  limiter,
	}
}

// Evaluate posts the request to /v1/verdict and decodes the structured answer.
func (c *Client) Evaluate(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error) {
	if c.endpoint == "" {
		return domain.Verdict{}, fmt.Errorf("verdict service endpoint not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Verdict{}, fmt.Errorf("rate limit wait: %w", err)
	}

	var verdict domain.Verdict
	if err := c.post(ctx, "/v1/verdict", req, &verdict); err != nil {
		return domain.Verdict{}, err
	}
	return verdict, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
