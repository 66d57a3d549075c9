// Package providers defines the contracts for reaching the remote data
// backend: a filtered row-table query interface and a hosted GeoJSON feed
// interface. Concrete clients live in subpackages.
package providers

import (
	"context"

	"grid-ops-service/internal/domain"
	"grid-ops-service/internal/providers/geojson"
)

// FilterOp enumerates the predicate kinds the backend supports.
type FilterOp string

const (
	OpEquals  FilterOp = "eq"
	OpNotNull FilterOp = "not_null"
)

// Filter is one predicate on a column.
type Filter struct {
	Field string
	Op    FilterOp
	Value string
}

// Query describes one read against the row-table backend. SearchTerm, when
// set, matches case-insensitively across SearchFields (OR semantics).
type Query struct {
	Table        string
	Columns      []string
	Filters      []Filter
	SearchTerm   string
	SearchFields []string
	Limit        int
	WithCount    bool
}

// RowResult is the backend's answer: decoded rows plus the exact row count
// when the query asked for one (otherwise Count == len(Rows)).
type RowResult struct {
	Rows  []domain.Record
	Count int
}

// RowQuerier fetches filtered rows from the backend table API.
type RowQuerier interface {
	QueryRows(ctx context.Context, q Query) (RowResult, error)
}

// FeedFetcher retrieves a hosted GeoJSON document by URL.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, url string) (geojson.Document, error)
}
