package metrics

import (
	"sync"
	"time"
)

type domainStats struct {
	fetches        int
	errors         int
	cacheHits      int
	cacheMisses    int
	staleFallbacks int
	lastLatency    time.Duration
}

// Recorder captures lightweight, in-memory metrics about fetches, cache
// behavior, and polling cycles. All methods are safe on a nil receiver so
// components can carry an optional recorder.
type Recorder struct {
	mu    sync.Mutex
	stats map[string]*domainStats
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*domainStats),
		otel:  otel,
	}
}

// RecordFetch increments fetch counters for a domain and stores the last
// observed latency.
func (r *Recorder) RecordFetch(domain string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	stats := r.ensureStats(domain)
	stats.fetches++
	stats.lastLatency = duration
	if err != nil {
		stats.errors++
	}
	if r.otel != nil {
		r.otel.recordFetch(domain, duration, err)
	}
}

// RecordCacheHit tracks a fetch served from a valid cache entry.
func (r *Recorder) RecordCacheHit(domain string) {
	if r == nil {
		return
	}
	r.ensureStats(domain).cacheHits++
	if r.otel != nil {
		r.otel.recordCache(domain, true)
	}
}

// RecordCacheMiss tracks a fetch that had to go to the network.
func (r *Recorder) RecordCacheMiss(domain string) {
	if r == nil {
		return
	}
	r.ensureStats(domain).cacheMisses++
	if r.otel != nil {
		r.otel.recordCache(domain, false)
	}
}

// RecordStaleFallback tracks a failed refetch answered from an expired entry.
func (r *Recorder) RecordStaleFallback(domain string) {
	if r == nil {
		return
	}
	r.ensureStats(domain).staleFallbacks++
	if r.otel != nil {
		r.otel.recordStaleFallback(domain)
	}
}

// RecordPollCycle tracks a polling tick for a named task.
func (r *Recorder) RecordPollCycle(task string, duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordPollCycle(task, duration, err)
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// Snapshot is a copy of the current stats for a domain.
type Snapshot struct {
	Fetches        int
	Errors         int
	CacheHits      int
	CacheMisses    int
	StaleFallbacks int
	LastLatency    time.Duration
}

func (r *Recorder) Snapshot(domain string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	stats := r.snapshot(domain)
	return Snapshot{
		Fetches:        stats.fetches,
		Errors:         stats.errors,
		CacheHits:      stats.cacheHits,
		CacheMisses:    stats.cacheMisses,
		StaleFallbacks: stats.staleFallbacks,
		LastLatency:    stats.lastLatency,
	}
}

// Fetches returns the total network fetches recorded for a domain.
func (r *Recorder) Fetches(domain string) int {
	return r.Snapshot(domain).Fetches
}

// CacheHits returns the cache hits recorded for a domain.
func (r *Recorder) CacheHits(domain string) int {
	return r.Snapshot(domain).CacheHits
}

func (r *Recorder) ensureStats(domain string) *domainStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[domain]
	if !ok {
		stats = &domainStats{}
		r.stats[domain] = stats
	}
	return stats
}

func (r *Recorder) snapshot(domain string) domainStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats, ok := r.stats[domain]; ok && stats != nil {
		return *stats
	}
	return domainStats{}
}
