package datafetch

import (
	"fmt"
	"strings"
)

// Domain tags, used for cache-key namespaces, refresh requests, and metrics.
const (
	TagOffline  = "offline"
	TagOnline   = "online"
	TagSummary  = "summary"
	TagOutages  = "outages"
	TagVehicles = "vehicles"
	TagSites    = "sites"
	TagSearch   = "search"
	TagAll      = "all"
)

const (
	keyOfflineSubscribers = "offline_subscribers"
	keyOnlineSubscribers  = "online_subscribers"
	keySubscriberSummary  = "subscriber_summary"
	keyVehiclePositions   = "vehicle_positions"
	keyNodeSites          = "node_sites"
)

func outageKey(providerID string) string {
	return "outages_" + providerID
}

// searchKey is deterministic for a given query: identical searches
// short-circuit on the cache regardless of letter case.
func searchKey(term string, limit int) string {
	return fmt.Sprintf("search_%s_%d", strings.ToLower(strings.TrimSpace(term)), limit)
}

// Refresh invalidates the cache entries behind a domain tag so the next
// access, scheduled or manual, forces a live fetch. TagAll clears everything.
func (s *Service) Refresh(tag string) {
	switch tag {
	case TagOffline:
		s.cache.Invalidate(keyOfflineSubscribers)
	case TagOnline:
		s.cache.Invalidate(keyOnlineSubscribers)
	case TagSummary:
		s.cache.Invalidate(keySubscriberSummary)
	case TagVehicles:
		s.cache.Invalidate(keyVehiclePositions)
	case TagSites:
		s.cache.Invalidate(keyNodeSites)
	case TagOutages:
		for _, p := range s.area.Providers {
			s.cache.Invalidate(outageKey(p.ID))
		}
	case TagAll:
		s.cache.Clear()
	}
}
