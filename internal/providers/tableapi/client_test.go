package tableapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"grid-ops-service/internal/providers"
)

func TestQueryRowsDecodesAndCounts(t *testing.T) {
	var gotPath, gotQuery, gotPrefer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotPrefer = r.Header.Get("Prefer")
		w.Header().Set("Content-Range", "0-1/42")
		_, _ = w.Write([]byte(`[{"subscriber_id": "s1", "status": "offline"}, {"subscriber_id": "s2", "status": "offline"}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	result, err := client.QueryRows(context.Background(), providers.Query{
		Table:     "subscribers",
		Filters:   []providers.Filter{{Field: "status", Op: providers.OpEquals, Value: "offline"}},
		WithCount: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/subscribers" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery != "status=eq.offline" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotPrefer != "count=exact" {
		t.Fatalf("expected count=exact preference, got %q", gotPrefer)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	// Exact count wins over page size.
	if result.Count != 42 {
		t.Fatalf("expected count 42 from Content-Range, got %d", result.Count)
	}
	if status, _ := result.Rows[0].String("status"); status != "offline" {
		t.Fatalf("unexpected row content: %+v", result.Rows[0])
	}
}

func TestQueryRowsCountFallsBackToRowCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "a"}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	result, err := client.QueryRows(context.Background(), providers.Query{Table: "vehicles"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected count 1, got %d", result.Count)
	}
}

func TestQueryRowsEmptyBodyIsValidEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	result, err := client.QueryRows(context.Background(), providers.Query{Table: "subscribers"})
	if err != nil {
		t.Fatalf("expected empty payload to be a valid empty result, got %v", err)
	}
	if result.Rows == nil || len(result.Rows) != 0 || result.Count != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestQueryRowsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	if _, err := client.QueryRows(context.Background(), providers.Query{Table: "subscribers"}); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestQueryRowsSendsAuthHeaders(t *testing.T) {
	var gotAPIKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k123", HTTPClient: srv.Client()})
	if _, err := client.QueryRows(context.Background(), providers.Query{Table: "subscribers"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAPIKey != "k123" || gotAuth != "Bearer k123" {
		t.Fatalf("expected auth headers, got apikey=%q auth=%q", gotAPIKey, gotAuth)
	}
}

func TestQueryRowsRequiresTable(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://example.invalid"})
	if _, err := client.QueryRows(context.Background(), providers.Query{}); err == nil {
		t.Fatal("expected error for missing table")
	}
}
