package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"grid-ops-service/internal/domain"
)

type flakyQuerier struct {
	calls     int
	failUntil int
	result    RowResult
}

func (f *flakyQuerier) QueryRows(ctx context.Context, q Query) (RowResult, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return RowResult{}, errors.New("transient")
	}
	return f.result, nil
}

func TestRetryingQuerierEventuallySucceeds(t *testing.T) {
	inner := &flakyQuerier{
		failUntil: 2,
		result:    RowResult{Rows: []domain.Record{{"id": "a"}}, Count: 1},
	}
	q := NewRetryingQuerier(inner, nil, 3, time.Millisecond)

	result, err := q.QueryRows(context.Background(), Query{Table: "subscribers"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected count 1, got %d", result.Count)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryingQuerierExhaustsAttempts(t *testing.T) {
	inner := &flakyQuerier{failUntil: 10}
	q := NewRetryingQuerier(inner, nil, 2, time.Millisecond)

	if _, err := q.QueryRows(context.Background(), Query{Table: "subscribers"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", inner.calls)
	}
}

func TestRetryingQuerierRespectsContext(t *testing.T) {
	inner := &flakyQuerier{failUntil: 10}
	q := NewRetryingQuerier(inner, nil, 5, 500*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.QueryRows(ctx, Query{Table: "subscribers"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single attempt before cancellation, got %d", inner.calls)
	}
}
