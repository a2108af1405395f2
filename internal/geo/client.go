package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const (
	defaultCacheSize = 4096
	userAgent        = "safety-report/1.0"
)

// Area is the result of a reverse lookup.
type Area struct {
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Name returns the most specific non-empty area name.
func (a Area) Name() string {
	if a.Neighborhood != "" {
		return a.Neighborhood
	}
	return a.City
}

// Client resolves coordinates to area names through a reverse-geocoding
// HTTP service. Results are memoized per ~11m rounded coordinate.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	cache      *lru.Cache[string, Area]
}

// NewClient creates a reverse-geocoding client. reqPerSec bounds the
// request rate against the upstream service.
func NewClient(baseURL string, reqPerSec float64) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("geocoder base URL is required")
	}
	cache, err := lru.New[string, Area](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating geocode cache: %w", err)
	}
	if reqPerSec <= 0 {
		reqPerSec = 5
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(reqPerSec), 1),
		cache:      cache,
	}, nil
}

// ReverseLookup returns the area containing the given point.
func (c *Client) ReverseLookup(ctx context.Context, lat, lon float64) (Area, error) {
	key := strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
	if a, ok := c.cache.Get(key); ok {
		return a, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Area{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	params := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', 6, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return Area{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Area{}, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close body: %v)", err, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Area{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var a Area
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return Area{}, fmt.Errorf("decoding response: %w", err)
	}

	c.cache.Add(key, a)
	return a, nil
}

// ResolveArea returns the area name for a point, for use by the scorer.
func (c *Client) ResolveArea(ctx context.Context, lat, lon float64) (string, error) {
	a, err := c.ReverseLookup(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	if a.Name() == "" {
		return "", fmt.Errorf("no area found for %.4f,%.4f", lat, lon)
	}
	return a.Name(), nil
}
