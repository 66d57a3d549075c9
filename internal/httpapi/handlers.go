package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"grid-ops-service/internal/datafetch"
	"grid-ops-service/internal/domain"
)

// DataService is the slice of the data-fetch layer the HTTP surface needs.
type DataService interface {
	OfflineSubscribers(ctx context.Context) domain.Envelope
	OnlineSubscribers(ctx context.Context) domain.Envelope
	SubscriberSummary(ctx context.Context) domain.Envelope
	VehiclePositions(ctx context.Context) domain.Envelope
	NodeSites(ctx context.Context) domain.Envelope
	Outages(ctx context.Context) domain.Envelope
	OutagesForProvider(ctx context.Context, providerID string) (domain.Envelope, error)
	SearchSubscribers(ctx context.Context, term string, limit int) domain.Envelope
	SubscriberByID(ctx context.Context, id string) (domain.Record, error)
	Refresh(tag string)
}

// PollControl is the slice of the polling manager the HTTP surface needs.
type PollControl interface {
	PerformUpdate(ctx context.Context, name string) error
	Ready() bool
}

// Handler wires HTTP routes to the data-fetch service and poll manager.
type Handler struct {
	svc        DataService
	polls      PollControl
	tasksByTag map[string]string
	logger     *slog.Logger
}

// NewHandler constructs a Handler. tasksByTag maps refresh tags to the
// polling task that serves the same domain, so a manual refresh both clears
// the cache and triggers an immediate off-cycle poll.
func NewHandler(svc DataService, polls PollControl, tasksByTag map[string]string, logger *slog.Logger) *Handler {
	return &Handler{
		svc:        svc,
		polls:      polls,
		tasksByTag: tasksByTag,
		logger:     logger,
	}
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether polling has warmed successfully.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.polls != nil && !h.polls.Ready() {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// OfflineSubscribers returns the offline subscriber envelope.
func (h *Handler) OfflineSubscribers(w http.ResponseWriter, r *http.Request) {
	h.writeEnvelope(w, h.svc.OfflineSubscribers(r.Context()))
}

// OnlineSubscribers returns the online subscriber envelope.
func (h *Handler) OnlineSubscribers(w http.ResponseWriter, r *http.Request) {
	h.writeEnvelope(w, h.svc.OnlineSubscribers(r.Context()))
}

// SubscriberSummary returns the per-status roll-up.
func (h *Handler) SubscriberSummary(w http.ResponseWriter, r *http.Request) {
	env := h.svc.SubscriberSummary(r.Context())
	h.writeJSON(w, http.StatusOK, struct {
		domain.Envelope
		Summary domain.StatusSummary `json:"summary"`
	}{Envelope: env, Summary: datafetch.Summarize(env)})
}

// SubscriberByID returns one subscriber record.
func (h *Handler) SubscriberByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing subscriber id")
		return
	}

	rec, err := h.svc.SubscriberByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, datafetch.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "subscriber not found")
			return
		}
		h.writeError(w, http.StatusBadGateway, "subscriber lookup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// Outages returns the merged outage envelope, or a single provider's feed
// when the provider query parameter is set.
func (h *Handler) Outages(w http.ResponseWriter, r *http.Request) {
	providerID := r.URL.Query().Get("provider")
	if providerID == "" {
		h.writeEnvelope(w, h.svc.Outages(r.Context()))
		return
	}

	env, err := h.svc.OutagesForProvider(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, datafetch.ErrUnknownProvider) {
			h.writeError(w, http.StatusNotFound, "unknown outage provider")
			return
		}
		h.writeError(w, http.StatusBadGateway, "outage fetch failed")
		return
	}
	h.writeEnvelope(w, env)
}

// Vehicles returns the fleet telemetry envelope.
func (h *Handler) Vehicles(w http.ResponseWriter, r *http.Request) {
	h.writeEnvelope(w, h.svc.VehiclePositions(r.Context()))
}

// Sites returns the node site reference envelope.
func (h *Handler) Sites(w http.ResponseWriter, r *http.Request) {
	h.writeEnvelope(w, h.svc.NodeSites(r.Context()))
}

// Search matches subscribers against a term.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	h.writeEnvelope(w, h.svc.SearchSubscribers(r.Context(), term, limit))
}

// Refresh is the "refresh now" affordance: it invalidates the tag's cache
// entries and triggers the matching poll task off-cycle.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		tag = datafetch.TagAll
	}
	if _, known := h.tasksByTag[tag]; !known && tag != datafetch.TagAll {
		h.writeError(w, http.StatusBadRequest, "unknown refresh tag")
		return
	}

	h.svc.Refresh(tag)

	triggered := h.triggerTasks(r.Context(), tag)
	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"refreshed": tag,
		"tasks":     triggered,
	})
}

func (h *Handler) triggerTasks(ctx context.Context, tag string) []string {
	if h.polls == nil {
		return []string{}
	}

	names := make(map[string]struct{})
	if tag == datafetch.TagAll {
		for _, task := range h.tasksByTag {
			if task != "" {
				names[task] = struct{}{}
			}
		}
	} else if task := h.tasksByTag[tag]; task != "" {
		names[task] = struct{}{}
	}

	triggered := make([]string, 0, len(names))
	for name := range names {
		if err := h.polls.PerformUpdate(ctx, name); err != nil {
			// A tag without a running task still refreshed its cache.
			continue
		}
		triggered = append(triggered, name)
	}
	sort.Strings(triggered)
	return triggered
}

func (h *Handler) writeEnvelope(w http.ResponseWriter, env domain.Envelope) {
	h.writeJSON(w, http.StatusOK, env)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
