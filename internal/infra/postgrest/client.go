// Package postgrest persists the ledger through a PostgREST API
// (Supabase-compatible). It is the production LedgerStore.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/veconta/contable-go/internal/infra/resilience"
)

var tracer = otel.Tracer("postgrest")

// Client wraps HTTP calls to the PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a PostgREST client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

func (c *Client) setHeaders(req *http.Request, prefer string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
}

// doGet executes an authenticated GET with retry and circuit breaker.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	var body []byte

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			c.setHeaders(req, "")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Error("postgrest: GET failed", zap.String("path", path), zap.Error(err))
				return err
			}
			defer resp.Body.Close()

			body, err = readBody(resp)
			if err != nil {
				return err
			}

			if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
				body = nil
				return nil
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				c.logger.Warn("postgrest: GET non-2xx",
					zap.String("path", path),
					zap.Int("status", resp.StatusCode),
					zap.String("body", string(body)),
				)
				return fmt.Errorf("postgrest returned status %d: %s", resp.StatusCode, string(body))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// doPost inserts a row and returns its representation.
func (c *Client) doPost(ctx context.Context, table string, data any) ([]byte, error) {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var body []byte
	_, err = c.cb.Execute(func() (any, error) {
		url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, "return=representation")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("postgrest: POST failed", zap.String("table", table), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		body, err = readBody(resp)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.logger.Warn("postgrest: POST non-2xx",
				zap.String("table", table),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)),
			)
			return nil, fmt.Errorf("postgrest POST %s returned %d: %s", table, resp.StatusCode, string(body))
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// doPatch updates rows matching the path filter.
func (c *Client) doPatch(ctx context.Context, path string, data any) error {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = c.cb.Execute(func() (any, error) {
		url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, "return=minimal")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("postgrest: PATCH failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := readBody(resp)
			c.logger.Warn("postgrest: PATCH non-2xx",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)),
			)
			return nil, fmt.Errorf("postgrest PATCH returned %d: %s", resp.StatusCode, string(body))
		}
		return nil, nil
	})
	return err
}

// doDelete removes rows matching the path filter.
func (c *Client) doDelete(ctx context.Context, path string) error {
	_, err := c.cb.Execute(func() (any, error) {
		url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, "")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("postgrest: DELETE failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := readBody(resp)
			c.logger.Warn("postgrest: DELETE non-2xx",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)),
			)
			return nil, fmt.Errorf("postgrest DELETE returned %d: %s", resp.StatusCode, string(body))
		}
		return nil, nil
	})
	return err
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
