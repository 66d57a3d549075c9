// Package tableapi implements the row-table backend client. The backend
// speaks a PostgREST-style dialect: filter predicates as query parameters,
// exact counts via the Prefer header and Content-Range response.
package tableapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grid-ops-service/internal/domain"
	"grid-ops-service/internal/providers"
)

const defaultTimeout = 10 * time.Second

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls how the client reaches the backend.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client queries the row-table backend and decodes rows into records.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
}

// NewClient constructs a table API client with the provided configuration.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// NewClientWithDoer constructs a Client around any doer, for tests.
func NewClientWithDoer(baseURL string, doer httpDoer) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: doer}
}

// QueryRows executes the query and returns decoded rows plus a count. When
// the query asks for an exact count the Content-Range total is used;
// otherwise the count is the number of rows returned.
func (c *Client) QueryRows(ctx context.Context, q providers.Query) (providers.RowResult, error) {
	if q.Table == "" {
		return providers.RowResult{}, fmt.Errorf("tableapi: query needs a table")
	}

	req, err := c.buildRequest(ctx, q)
	if err != nil {
		return providers.RowResult{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return providers.RowResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return providers.RowResult{}, fmt.Errorf("tableapi: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []domain.Record
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return providers.RowResult{}, fmt.Errorf("tableapi: decode rows: %w", err)
	}
	// A missing array decodes to nil; treat that as a valid empty result.
	if rows == nil {
		rows = []domain.Record{}
	}

	count := len(rows)
	if q.WithCount {
		if total, ok := parseContentRangeTotal(resp.Header.Get("Content-Range")); ok {
			count = total
		}
	}

	return providers.RowResult{Rows: rows, Count: count}, nil
}

func (c *Client) buildRequest(ctx context.Context, q providers.Query) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+q.Table, nil)
	if err != nil {
		return nil, err
	}

	req.URL.RawQuery = encodeQuery(q)
	req.Header.Set("Accept", "application/json")
	if q.WithCount {
		req.Header.Set("Prefer", "count=exact")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}
