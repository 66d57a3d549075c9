package httpapi

import (
	"log/slog"
	"net/http"

	"grid-ops-service/internal/metrics"
)

// NewRouter builds the service mux with logging and request-ID middleware
// applied to every route.
func NewRouter(h *Handler, logger *slog.Logger, recorder *metrics.Recorder) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /readyz", h.Ready)

	mux.HandleFunc("GET /api/subscribers/offline", h.OfflineSubscribers)
	mux.HandleFunc("GET /api/subscribers/online", h.OnlineSubscribers)
	mux.HandleFunc("GET /api/subscribers/summary", h.SubscriberSummary)
	mux.HandleFunc("GET /api/subscribers/{id}", h.SubscriberByID)

	mux.HandleFunc("GET /api/outages", h.Outages)
	mux.HandleFunc("GET /api/vehicles", h.Vehicles)
	mux.HandleFunc("GET /api/sites", h.Sites)
	mux.HandleFunc("GET /api/search", h.Search)

	mux.HandleFunc("POST /api/refresh", h.Refresh)

	return LoggingMiddleware(logger, recorder, mux)
}
