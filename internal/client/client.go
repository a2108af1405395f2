// Package client provides an HTTP client for the safety report API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/evcraddock/safety-report/internal/alternative"
	"github.com/evcraddock/safety-report/internal/listing"
	"github.com/evcraddock/safety-report/internal/report"
	"github.com/evcraddock/safety-report/internal/signal"
	"github.com/evcraddock/safety-report/internal/snippet"
	"github.com/evcraddock/safety-report/internal/takeaway"
)

// Client is an HTTP client for the safety report API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ClassifyResponse is the response from POST /api/classify.
type ClassifyResponse struct {
	Summary  signal.Summary             `json:"summary"`
	Snippets []signal.ClassifiedSnippet `json:"snippets"`
}

// TakeawayResponse is the response from POST /api/takeaways.
type TakeawayResponse struct {
	Cache    takeaway.Outcome   `json:"cache"`
	Takeaway *takeaway.Takeaway `json:"takeaway"`
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

// Report fetches the safety report for a listing URL. An empty market lets
// the server search every market it knows.
func (c *Client) Report(ctx context.Context, listingURL, market string) (*report.Report, error) {
	q := url.Values{"url": {listingURL}}
	if market != "" {
		q.Set("market", market)
	}
	var r report.Report
	if err := c.get(ctx, "/api/report?"+q.Encode(), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReportListing builds a report for a listing the server has not seen.
func (c *Client) ReportListing(ctx context.Context, l listing.Listing) (*report.Report, error) {
	var r report.Report
	if err := c.post(ctx, "/api/report", l, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Score returns the labelled attribute score for a listing.
func (c *Client) Score(ctx context.Context, l listing.Listing) (*report.ScoreSection, error) {
	var s report.ScoreSection
	if err := c.post(ctx, "/api/score", l, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Classify classifies a batch of snippets.
func (c *Client) Classify(ctx context.Context, snippets []signal.Snippet) (*ClassifyResponse, error) {
	body := map[string]interface{}{"snippets": snippets}
	var resp ClassifyResponse
	if err := c.post(ctx, "/api/classify", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Takeaway returns the takeaway for a subject, synthesized from snippets on
// a cache miss.
func (c *Client) Takeaway(ctx context.Context, subjectKey string, snippets []signal.Snippet) (*TakeawayResponse, error) {
	body := map[string]interface{}{"subject_key": subjectKey, "snippets": snippets}
	var resp TakeawayResponse
	if err := c.post(ctx, "/api/takeaways", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Alternatives returns up to limit safer alternatives for a listing URL.
func (c *Client) Alternatives(ctx context.Context, listingURL, market string, limit int) ([]alternative.Match, error) {
	q := url.Values{"url": {listingURL}}
	if market != "" {
		q.Set("market", market)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var matches []alternative.Match
	if err := c.get(ctx, "/api/alternatives?"+q.Encode(), &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// Snippets lists stored snippets for a subject.
func (c *Client) Snippets(ctx context.Context, subjectKey string) ([]*snippet.Record, error) {
	var records []*snippet.Record
	if err := c.get(ctx, "/api/snippets?"+url.Values{"subject": {subjectKey}}.Encode(), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// AddSnippet stores a snippet under a subject key.
func (c *Client) AddSnippet(ctx context.Context, subjectKey string, s signal.Snippet) (*snippet.Record, error) {
	body := struct {
		SubjectKey string `json:"subject_key"`
		signal.Snippet
	}{subjectKey, s}
	var rec snippet.Record
	if err := c.post(ctx, "/api/snippets", body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &StatusError{Code: resp.StatusCode, Message: errResp.Error}
		}
		return &StatusError{Code: resp.StatusCode, Message: "server error: " + http.StatusText(resp.StatusCode)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// NotFound reports whether the server answered 404.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound
}
