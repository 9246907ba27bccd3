// Package ratesapi fetches USD/VES quotes from an external provider.
// The provider exposes one entry per market (oficial, paralelo) with the
// current ask price in bolívares.
package ratesapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"

	"github.com/veconta/contable-go/internal/domain"
	"github.com/veconta/contable-go/internal/infra/resilience"
)

var tracer = otel.Tracer("ratesapi")

// Client fetches USD/VES quotes with retry, circuit breaker, and tracing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewClient creates a new rates API client.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

type quote struct {
	Fuente   string          `json:"fuente"`
	Promedio decimal.Decimal `json:"promedio"`
}

// FetchRates returns the current official (BCV) and parallel USD/VES rates.
func (c *Client) FetchRates(ctx context.Context) (bcv, parallel decimal.Decimal, err error) {
	ctx, span := tracer.Start(ctx, "ratesapi.FetchRates")
	defer span.End()

	var quotes []quote

	_, err = c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("rates API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&quotes)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return quotes, nil
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, &domain.ErrExternalService{Service: "rates", Err: err}
	}

	for _, q := range quotes {
		switch q.Fuente {
		case "oficial":
			bcv = q.Promedio
		case "paralelo":
			parallel = q.Promedio
		}
	}

	if bcv.IsZero() && parallel.IsZero() {
		return decimal.Zero, decimal.Zero, &domain.ErrExternalService{
			Service: "rates",
			Err:     fmt.Errorf("no usable quotes in response"),
		}
	}

	// Some providers only publish the official market; mirror it so callers
	// always get both kinds.
	if parallel.IsZero() {
		parallel = bcv
	}
	if bcv.IsZero() {
		bcv = parallel
	}

	return bcv, parallel, nil
}
