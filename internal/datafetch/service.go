// Package datafetch provides the per-domain fetch methods between the remote
// backend and the map layer: every method runs through the timed cache,
// normalizes raw records into uniform features, and degrades to stale data
// when a refetch fails.
package datafetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"grid-ops-service/internal/cache"
	"grid-ops-service/internal/config"
	"grid-ops-service/internal/domain"
	"grid-ops-service/internal/logging"
	"grid-ops-service/internal/metrics"
	"grid-ops-service/internal/providers"
)

// minSearchLength is enforced before any fetch: shorter terms return an
// empty result synchronously with no cache or network interaction.
const minSearchLength = 2

const searchResultLimit = 10

// ErrUnknownProvider is returned for an outage provider id with no
// service-area configuration.
var ErrUnknownProvider = errors.New("unknown outage provider")

// ErrNotFound is returned by by-id lookups with no matching record.
var ErrNotFound = errors.New("record not found")

// Service is the data-fetch layer. One method per data domain; each checks
// the cache, fetches remotely on miss or expiry, and answers from stale data
// with the envelope's error flag set when the fetch fails.
type Service struct {
	cache   *cache.TimedCache
	rows    providers.RowQuerier
	feeds   providers.FeedFetcher
	area    config.ServiceArea
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
	group   singleflight.Group
}

// Options configures a Service. Rows and Feeds are required; the rest have
// working defaults.
type Options struct {
	Rows    providers.RowQuerier
	Feeds   providers.FeedFetcher
	Area    config.ServiceArea
	Cache   *cache.TimedCache
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	Now     func() time.Time
}

// New constructs a Service.
func New(opts Options) *Service {
	c := opts.Cache
	if c == nil {
		c = cache.New()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		cache:   c,
		rows:    opts.Rows,
		feeds:   opts.Feeds,
		area:    opts.Area,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     now,
	}
}

// Area exposes the configured service area (outage providers).
func (s *Service) Area() config.ServiceArea {
	return s.area
}

// ClearCache drops every cached entry, forcing live fetches everywhere.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// OfflineSubscribers returns subscribers currently without service. Fetch
// failures never surface as errors here; the envelope's Error flag carries
// degradation per the stale-fallback contract.
func (s *Service) OfflineSubscribers(ctx context.Context) domain.Envelope {
	return s.fetchEnvelope(ctx, keyOfflineSubscribers, TagOffline, cache.DefaultTTL, func(ctx context.Context) (domain.Envelope, error) {
		return s.fetchSubscribersByStatus(ctx, "offline")
	})
}

// OnlineSubscribers returns subscribers with service.
func (s *Service) OnlineSubscribers(ctx context.Context) domain.Envelope {
	return s.fetchEnvelope(ctx, keyOnlineSubscribers, TagOnline, cache.DefaultTTL, func(ctx context.Context) (domain.Envelope, error) {
		return s.fetchSubscribersByStatus(ctx, "online")
	})
}

// SubscriberSummary returns a status-only envelope covering every
// subscriber, used for the dashboard roll-up and poll diffing.
func (s *Service) SubscriberSummary(ctx context.Context) domain.Envelope {
	return s.fetchEnvelope(ctx, keySubscriberSummary, TagSummary, cache.DefaultTTL, func(ctx context.Context) (domain.Envelope, error) {
		result, err := s.rows.QueryRows(ctx, providers.Query{
			Table:     "subscribers",
			Columns:   []string{"subscriber_id", "status"},
			WithCount: true,
		})
		if err != nil {
			return domain.Envelope{}, err
		}
		// No coordinates selected, so the summary carries no features.
		return domain.Envelope{
			Count:       result.Count,
			Data:        result.Rows,
			Features:    []domain.Feature{},
			LastUpdated: s.now(),
		}, nil
	})
}

// VehiclePositions returns the current fleet telemetry snapshot.
func (s *Service) VehiclePositions(ctx context.Context) domain.Envelope {
	return s.fetchEnvelope(ctx, keyVehiclePositions, TagVehicles, cache.DefaultTTL, func(ctx context.Context) (domain.Envelope, error) {
		result, err := s.rows.QueryRows(ctx, providers.Query{
			Table:     "vehicles",
			WithCount: true,
		})
		if err != nil {
			return domain.Envelope{}, err
		}
		return s.rowEnvelope(result, "vehicle_id"), nil
	})
}

// NodeSites returns the slow-changing node site reference layer.
func (s *Service) NodeSites(ctx context.Context) domain.Envelope {
	return s.fetchEnvelope(ctx, keyNodeSites, TagSites, cache.SiteTTL, func(ctx context.Context) (domain.Envelope, error) {
		result, err := s.rows.QueryRows(ctx, providers.Query{
			Table:     "node_sites",
			WithCount: true,
		})
		if err != nil {
			return domain.Envelope{}, err
		}
		return s.rowEnvelope(result, "site_id"), nil
	})
}

// OutagesForProvider returns the outage feed for one configured provider,
// restricted to the provider's service-area bounds. An unconfigured provider
// id is a contract error, rejected without any fetch.
func (s *Service) OutagesForProvider(ctx context.Context, providerID string) (domain.Envelope, error) {
	provider, ok := s.area.Provider(providerID)
	if !ok {
		return domain.Envelope{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerID)
	}

	env := s.fetchEnvelope(ctx, outageKey(providerID), TagOutages, cache.OutageTTL, func(ctx context.Context) (domain.Envelope, error) {
		doc, err := s.feeds.FetchFeed(ctx, provider.FeedURL)
		if err != nil {
			return domain.Envelope{}, err
		}

		records, features := normalizeFeed(doc)
		// The same representative point filters both count and features,
		// so the two never diverge.
		records, features = filterByBounds(records, features, provider.Bounds)
		return domain.Envelope{
			Count:       len(records),
			Data:        records,
			Features:    features,
			LastUpdated: s.now(),
		}, nil
	})
	return env, nil
}

// Outages merges the outage feeds of every configured provider. The merged
// envelope is degraded if any single provider's fetch was.
func (s *Service) Outages(ctx context.Context) domain.Envelope {
	merged := domain.EmptyEnvelope(s.now())
	for _, p := range s.area.Providers {
		env, err := s.OutagesForProvider(ctx, p.ID)
		if err != nil {
			continue
		}
		merged.Count += env.Count
		merged.Data = append(merged.Data, env.Data...)
		merged.Features = append(merged.Features, env.Features...)
		if env.LastUpdated.After(merged.LastUpdated) {
			merged.LastUpdated = env.LastUpdated
		}
		if env.Error {
			merged.Error = true
			if merged.ErrorMessage == "" {
				merged.ErrorMessage = env.ErrorMessage
			}
		}
	}
	return merged
}

// SearchSubscribers matches a term case-insensitively across name, address,
// and subscriber id. Terms under two characters return an empty envelope
// synchronously, with no cache interaction and no network call.
func (s *Service) SearchSubscribers(ctx context.Context, term string, limit int) domain.Envelope {
	trimmed := strings.TrimSpace(term)
	if len(trimmed) < minSearchLength {
		return domain.EmptyEnvelope(s.now())
	}
	if limit <= 0 {
		limit = searchResultLimit
	}

	return s.fetchEnvelope(ctx, searchKey(trimmed, limit), TagSearch, cache.DefaultTTL, func(ctx context.Context) (domain.Envelope, error) {
		result, err := s.rows.QueryRows(ctx, providers.Query{
			Table:        "subscribers",
			SearchTerm:   trimmed,
			SearchFields: []string{"name", "address", "subscriber_id"},
			Limit:        limit,
		})
		if err != nil {
			return domain.Envelope{}, err
		}
		return s.rowEnvelope(result, "subscriber_id"), nil
	})
}

// SubscriberByID fetches a single subscriber record. There is no sensible
// empty substitute for a by-id lookup, so failures propagate to the caller.
func (s *Service) SubscriberByID(ctx context.Context, id string) (domain.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("subscriber id is required")
	}

	result, err := s.rows.QueryRows(ctx, providers.Query{
		Table:   "subscribers",
		Filters: []providers.Filter{{Field: "subscriber_id", Op: providers.OpEquals, Value: id}},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch subscriber %s: %w", id, err)
	}
	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("%w: subscriber %s", ErrNotFound, id)
	}
	return result.Rows[0], nil
}

func (s *Service) fetchSubscribersByStatus(ctx context.Context, status string) (domain.Envelope, error) {
	result, err := s.rows.QueryRows(ctx, providers.Query{
		Table:     "subscribers",
		Filters:   []providers.Filter{{Field: "status", Op: providers.OpEquals, Value: status}},
		WithCount: true,
	})
	if err != nil {
		return domain.Envelope{}, err
	}
	return s.rowEnvelope(result, "subscriber_id"), nil
}

func (s *Service) rowEnvelope(result providers.RowResult, idField string) domain.Envelope {
	return domain.Envelope{
		Count:       result.Count,
		Data:        result.Rows,
		Features:    normalizeRows(result.Rows, idField),
		LastUpdated: s.now(),
	}
}

// fetchEnvelope is the shared fetch path: cache-hit short circuit, in-flight
// dedupe per key, cache write on success, stale fallback on failure, and an
// explicit empty envelope when no prior value of any age exists.
func (s *Service) fetchEnvelope(ctx context.Context, key, domainTag string, ttl time.Duration, fetch func(context.Context) (domain.Envelope, error)) domain.Envelope {
	if s.cache.IsValid(key) {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheHit(domainTag)
			return v
		}
	}
	s.metrics.RecordCacheMiss(domainTag)

	v, err, _ := s.group.Do(key, func() (any, error) {
		// A concurrent flight may have landed while we waited.
		if s.cache.IsValid(key) {
			if v, ok := s.cache.Get(key); ok {
				return v, nil
			}
		}

		start := time.Now()
		env, err := fetch(ctx)
		s.metrics.RecordFetch(domainTag, time.Since(start), err)
		if err != nil {
			return nil, err
		}

		s.cache.Set(key, env, ttl)
		return env, nil
	})
	if err == nil {
		return v.(domain.Envelope)
	}

	logging.Warn(s.logger, "fetch failed",
		slog.String(logging.FieldDomain, domainTag),
		slog.String(logging.FieldCacheKey, key),
		"error", err,
	)

	// Any prior value, even expired, beats a hard failure.
	if stale, ok := s.cache.Get(key); ok {
		s.metrics.RecordStaleFallback(domainTag)
		return stale.Degraded(err.Error())
	}
	return domain.EmptyEnvelope(s.now()).Degraded(err.Error())
}
