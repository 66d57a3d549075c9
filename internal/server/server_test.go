package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"grid-ops-service/internal/config"
	"grid-ops-service/internal/datafetch"
	"grid-ops-service/internal/domain"
	"grid-ops-service/internal/providers"
	"grid-ops-service/internal/providers/geojson"
)

type stubQuerier struct {
	mu   sync.Mutex
	rows []domain.Record
	err  error
}

func (s *stubQuerier) QueryRows(_ context.Context, _ providers.Query) (providers.RowResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return providers.RowResult{}, s.err
	}
	rows := make([]domain.Record, len(s.rows))
	copy(rows, s.rows)
	return providers.RowResult{Rows: rows, Count: len(rows)}, nil
}

func (s *stubQuerier) setRows(rows []domain.Record) {
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
}

type stubFeed struct {
	doc geojson.Document
	err error
}

func (s *stubFeed) FetchFeed(context.Context, string) (geojson.Document, error) {
	if s.err != nil {
		return geojson.Document{}, s.err
	}
	return s.doc, nil
}

func testConfig() config.Config {
	cfg := config.Config{Port: "0"}
	cfg.Polling.Subscribers = time.Hour
	cfg.Polling.Outages = time.Hour
	cfg.Polling.Vehicles = time.Hour
	return cfg
}

func newTestGridServer(rows providers.RowQuerier, feeds providers.FeedFetcher) *Server {
	svc := datafetch.New(datafetch.Options{
		Rows:  rows,
		Feeds: feeds,
		Area: config.ServiceArea{Providers: []config.ProviderArea{
			{ID: "north", Name: "North Grid", FeedURL: "https://feeds.example/north"},
		}},
	})
	return newServerWithDeps(testConfig(), nil, nil, svc, nil, nil)
}

func TestRefreshTasksCoverEveryTag(t *testing.T) {
	tasks := refreshTasks()
	for _, tag := range []string{
		datafetch.TagOffline, datafetch.TagOnline, datafetch.TagSummary,
		datafetch.TagOutages, datafetch.TagVehicles, datafetch.TagSites, datafetch.TagSearch,
	} {
		if _, ok := tasks[tag]; !ok {
			t.Fatalf("tag %q has no task mapping", tag)
		}
	}
}

func TestPollSubscribersPublishesOnlyOnChange(t *testing.T) {
	rows := &stubQuerier{rows: []domain.Record{
		{"subscriber_id": "S-1", "status": "offline"},
		{"subscriber_id": "S-2", "status": "online"},
	}}
	s := newTestGridServer(rows, &stubFeed{})
	changes := s.Changes(datafetch.TagSummary)

	if err := s.pollSubscribers(context.Background()); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	select {
	case change := <-changes:
		if change.Summary.Offline != 1 || change.Summary.Online != 1 {
			t.Fatalf("unexpected summary: %+v", change.Summary)
		}
	default:
		t.Fatal("expected a change event on first poll")
	}

	if err := s.pollSubscribers(context.Background()); err != nil {
		t.Fatalf("second poll: %v", err)
	}
	select {
	case change := <-changes:
		t.Fatalf("unchanged summary should not publish, got %+v", change)
	default:
	}

	rows.setRows([]domain.Record{
		{"subscriber_id": "S-1", "status": "offline"},
		{"subscriber_id": "S-2", "status": "offline"},
	})
	if err := s.pollSubscribers(context.Background()); err != nil {
		t.Fatalf("third poll: %v", err)
	}
	select {
	case change := <-changes:
		if change.Delta != 1 {
			t.Fatalf("expected offline delta 1, got %d", change.Delta)
		}
	default:
		t.Fatal("expected a change event after the summary shifted")
	}
}

func TestPollSubscribersReturnsErrorWhenDegraded(t *testing.T) {
	rows := &stubQuerier{err: context.DeadlineExceeded}
	s := newTestGridServer(rows, &stubFeed{})

	if err := s.pollSubscribers(context.Background()); err == nil {
		t.Fatal("expected an error when the backend is unreachable")
	}
}

func TestPollOutagesReturnsErrorWhenFeedFails(t *testing.T) {
	s := newTestGridServer(&stubQuerier{}, &stubFeed{err: context.DeadlineExceeded})

	if err := s.pollOutages(context.Background()); err == nil {
		t.Fatal("expected an error when the feed is unreachable")
	}
}

func TestHandlerServesHealthAndReadiness(t *testing.T) {
	s := newTestGridServer(&stubQuerier{}, &stubFeed{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// A registered task that has never succeeded keeps readiness down.
	if err := s.manager.StartPolling(context.Background(), TaskSubscribers, s.pollSubscribers, time.Hour); err != nil {
		t.Fatalf("start polling: %v", err)
	}
	defer s.manager.StopAll()

	resp, err = http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before warm-up, got %d", resp.StatusCode)
	}
}

func TestReadinessAfterWarmPoll(t *testing.T) {
	rows := &stubQuerier{rows: []domain.Record{{"subscriber_id": "S-1", "status": "online"}}}
	s := newTestGridServer(rows, &stubFeed{})
	ctx := context.Background()
	s.startPolling(ctx)
	defer s.manager.StopAll()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after warm-up, got %d", resp.StatusCode)
	}
}

func TestLoadServiceAreaFallsBackToFlatFeedURL(t *testing.T) {
	cfg := testConfig()
	cfg.OutageFeedURL = "https://feeds.example/outages"

	area, err := loadServiceArea(cfg)
	if err != nil {
		t.Fatalf("loadServiceArea: %v", err)
	}
	if len(area.Providers) != 1 || area.Providers[0].FeedURL != cfg.OutageFeedURL {
		t.Fatalf("unexpected fallback area: %+v", area)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	rows := &stubQuerier{rows: []domain.Record{{"subscriber_id": "S-1", "status": "online"}}}
	s := newTestGridServer(rows, &stubFeed{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, cancel)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after cancellation")
	}
}
