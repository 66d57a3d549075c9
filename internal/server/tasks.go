package server

import (
	"context"
	"fmt"

	"grid-ops-service/internal/datafetch"
	"grid-ops-service/internal/domain"
	"grid-ops-service/internal/events"
)

// Poll task names. The refresh endpoint addresses tasks by these names.
const (
	TaskSubscribers = "subscribers"
	TaskOutages     = "power-outages"
	TaskVehicles    = "vehicles"
)

// refreshTasks maps cache tags to the poll task covering the same domain.
func refreshTasks() map[string]string {
	return map[string]string{
		datafetch.TagOffline:  TaskSubscribers,
		datafetch.TagOnline:   TaskSubscribers,
		datafetch.TagSummary:  TaskSubscribers,
		datafetch.TagOutages:  TaskOutages,
		datafetch.TagVehicles: TaskVehicles,
		datafetch.TagSites:    "",
		datafetch.TagSearch:   "",
	}
}

// pollSubscribers refreshes the subscriber caches on cadence. Invalidating
// first guarantees the poll hits the backend even when cache entries are
// still within their TTL.
func (s *Server) pollSubscribers(ctx context.Context) error {
	s.svc.Refresh(datafetch.TagOffline)
	s.svc.Refresh(datafetch.TagOnline)
	s.svc.Refresh(datafetch.TagSummary)

	env := s.svc.SubscriberSummary(ctx)
	if env.Error {
		return fmt.Errorf("subscriber summary degraded: %s", env.ErrorMessage)
	}

	// Warm the list views so dashboard loads after a poll are cache hits.
	s.svc.OfflineSubscribers(ctx)
	s.svc.OnlineSubscribers(ctx)

	s.publishIfChanged(datafetch.TagSummary, datafetch.Summarize(env))
	return nil
}

func (s *Server) pollOutages(ctx context.Context) error {
	s.svc.Refresh(datafetch.TagOutages)

	env := s.svc.Outages(ctx)
	if env.Error {
		return fmt.Errorf("outage fetch degraded: %s", env.ErrorMessage)
	}

	s.publishIfChanged(datafetch.TagOutages, domain.StatusSummary{Total: env.Count, Unknown: env.Count})
	return nil
}

func (s *Server) pollVehicles(ctx context.Context) error {
	s.svc.Refresh(datafetch.TagVehicles)

	env := s.svc.VehiclePositions(ctx)
	if env.Error {
		return fmt.Errorf("vehicle fetch degraded: %s", env.ErrorMessage)
	}

	s.publishIfChanged(datafetch.TagVehicles, domain.StatusSummary{Total: env.Count, Unknown: env.Count})
	return nil
}

// publishIfChanged emits a change event when the domain's summary differs
// from the previous poll. The first observation always publishes.
func (s *Server) publishIfChanged(tag string, next domain.StatusSummary) {
	if s.bus == nil {
		return
	}

	s.summaryMu.Lock()
	prev, seen := s.summaries[tag]
	s.summaries[tag] = next
	s.summaryMu.Unlock()

	if seen && prev == next {
		return
	}

	delta := next.Delta(prev)
	if delta == 0 {
		delta = next.Total - prev.Total
	}

	s.bus.Publish(events.Change{
		Domain:  tag,
		Summary: next,
		Delta:   delta,
		At:      s.now(),
	})
}
