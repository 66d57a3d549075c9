package cache

import (
	"sync"
	"testing"
	"time"

	"grid-ops-service/internal/domain"
)

func envelopeWithCount(n int) domain.Envelope {
	return domain.Envelope{Count: n, Data: []domain.Record{}, Features: []domain.Feature{}}
}

func TestSetThenGetWithinTTL(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	c := NewWithClock(func() time.Time { return current })

	c.Set("offline", envelopeWithCount(3), DefaultTTL)

	if !c.IsValid("offline") {
		t.Fatal("expected fresh entry to be valid")
	}

	got, ok := c.Get("offline")
	if !ok || got.Count != 3 {
		t.Fatalf("expected cached count 3, got %+v ok=%v", got, ok)
	}

	// Still valid just before expiry.
	current = base.Add(DefaultTTL - time.Second)
	if !c.IsValid("offline") {
		t.Fatal("expected entry valid inside the window")
	}
}

func TestExpiredEntryInvalidButRetained(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	c := NewWithClock(func() time.Time { return current })

	c.Set("outages", envelopeWithCount(5), OutageTTL)
	current = base.Add(3 * time.Minute)

	if c.IsValid("outages") {
		t.Fatal("expected entry past expiry to be invalid")
	}
	// The stale value must survive for fallback use.
	got, ok := c.Get("outages")
	if !ok || got.Count != 5 {
		t.Fatalf("expected stale value retained, got %+v ok=%v", got, ok)
	}
}

func TestSetOverwritesUnconditionally(t *testing.T) {
	c := New()
	c.Set("summary", envelopeWithCount(1), DefaultTTL)
	c.Set("summary", envelopeWithCount(2), DefaultTTL)

	got, _ := c.Get("summary")
	if got.Count != 2 {
		t.Fatalf("expected overwrite to win, got count %d", got.Count)
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c := New()
	c.Set("a", envelopeWithCount(1), DefaultTTL)
	c.Set("b", envelopeWithCount(2), DefaultTTL)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected invalidated entry removed")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected other entry untouched")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, got %d entries", c.Len())
	}
}

func TestMissingKeyNeverValid(t *testing.T) {
	c := New()
	if c.IsValid("nope") {
		t.Fatal("expected missing key to be invalid")
	}
	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected missing key to report no entry")
	}
}

func TestConcurrentAccessSafe(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", envelopeWithCount(n), DefaultTTL)
				c.Get("shared")
				c.IsValid("shared")
			}
		}(i)
	}
	wg.Wait()

	if _, ok := c.Get("shared"); !ok {
		t.Fatal("expected an entry after concurrent writes")
	}
}
