// Package geojson fetches hosted GeoJSON documents, the transport the power
// utilities publish their outage polygons through.
package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Geometry is the raw GeoJSON geometry of one feature; coordinates stay
// undecoded until normalization decides what shape they are.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is one entry of a FeatureCollection. IDs may be strings or numbers
// upstream, so the field stays untyped here.
type Feature struct {
	ID         any            `json:"id,omitempty"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Document is a decoded FeatureCollection.
type Document struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Client fetches GeoJSON documents by URL.
type Client struct {
	httpClient httpDoer
}

// NewClient constructs a Client. A nil httpClient selects a default with a
// bounded timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient}
}

// NewClientWithDoer constructs a Client around any doer, for tests.
func NewClientWithDoer(doer httpDoer) *Client {
	return &Client{httpClient: doer}
}

// FetchFeed downloads and decodes the FeatureCollection at url.
func (c *Client) FetchFeed(ctx context.Context, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Document{}, fmt.Errorf("geojson feed: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("geojson feed: decode: %w", err)
	}
	return doc, nil
}
