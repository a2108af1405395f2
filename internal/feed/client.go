// Package feed fetches point-in-time listing snapshots for a market from
// the listing feed service.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/evcraddock/safety-report/internal/listing"
)

const (
	userAgent      = "safety-report/1.0"
	maxBodyBytes   = 64 << 20
	defaultTimeout = 30 * time.Second
)

// Client fetches market snapshots over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a feed client. apiKey is optional and sent as
// X-API-Key. reqPerSec bounds the request rate against the feed.
func NewClient(baseURL, apiKey string, reqPerSec float64) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("feed base URL is required")
	}
	if reqPerSec <= 0 {
		reqPerSec = 2
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}, nil
}

// Snapshot returns every listing in a market. Records that cannot be
// decoded are skipped and counted in the log. The returned slice is never
// mutated by the client after return.
func (c *Client) Snapshot(ctx context.Context, market string) ([]listing.Listing, error) {
	if market == "" {
		return nil, fmt.Errorf("market is required")
	}
	raw, err := c.fetch(ctx, market)
	if err != nil {
		return nil, err
	}

	listings, skipped, err := listing.DecodeAll(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s snapshot: %w", market, err)
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "skipped undecodable feed records",
			"market", market, "skipped", skipped, "kept", len(listings))
	}
	return listings, nil
}

func (c *Client) fetch(ctx context.Context, market string) (body []byte, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	endpoint := c.baseURL + "/markets/" + url.PathEscape(market) + "/listings"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close body: %v)", err, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
