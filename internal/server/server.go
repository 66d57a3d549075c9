package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"grid-ops-service/internal/config"
	"grid-ops-service/internal/datafetch"
	"grid-ops-service/internal/domain"
	"grid-ops-service/internal/events"
	"grid-ops-service/internal/httpapi"
	"grid-ops-service/internal/logging"
	"grid-ops-service/internal/metrics"
	"grid-ops-service/internal/poller"
	"grid-ops-service/internal/providers"
	"grid-ops-service/internal/providers/geojson"
	"grid-ops-service/internal/providers/tableapi"
)

var metricsSetup = metrics.Setup

// Server wires the cache, data-fetch service, poll manager, event bus and
// HTTP surface into one runnable unit.
type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder

	svc     *datafetch.Service
	manager *poller.Manager
	bus     *events.Bus

	httpServer    httpServer
	metricsServer httpServer
	metricsStop   func(context.Context) error

	now       func() time.Time
	summaryMu sync.Mutex
	summaries map[string]domain.StatusSummary
}

// New constructs a server with default backend wiring.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}

	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger)

	area, err := loadServiceArea(cfg)
	if err != nil {
		return nil, err
	}

	rows := buildRowQuerier(cfg, logger, recorder)
	feeds := geojson.NewClient(&http.Client{Timeout: cfg.Backend.Timeout})

	svc := datafetch.New(datafetch.Options{
		Rows:    rows,
		Feeds:   feeds,
		Area:    area,
		Logger:  logger,
		Metrics: recorder,
	})

	return newServerWithDeps(cfg, logger, recorder, svc, metricsSrv, metricsShutdown), nil
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder, svc *datafetch.Service, metricsSrv httpServer, metricsShutdown func(context.Context) error) *Server {
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		svc:           svc,
		manager:       poller.NewManager(logger, recorder),
		bus:           events.NewBus(),
		metricsServer: metricsSrv,
		metricsStop:   metricsShutdown,
		now:           time.Now,
		summaries:     make(map[string]domain.StatusSummary),
	}
	s.httpServer = buildHTTPServer(cfg, s, logger, recorder)
	return s
}

func buildRowQuerier(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) providers.RowQuerier {
	client := tableapi.NewClient(tableapi.Config{
		BaseURL:    cfg.Backend.BaseURL,
		APIKey:     cfg.Backend.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Backend.Timeout},
	})
	return providers.NewRetryingQuerier(client, logger, 0, 0)
}

// loadServiceArea reads the region file. When no file is configured a single
// anonymous provider is synthesized from the flat outage feed URL so the
// outage path still works in minimal deployments.
func loadServiceArea(cfg config.Config) (config.ServiceArea, error) {
	area, err := config.LoadServiceArea(cfg.ServiceAreaFile)
	if err != nil {
		return config.ServiceArea{}, err
	}
	if len(area.Providers) == 0 && cfg.OutageFeedURL != "" {
		area.Providers = []config.ProviderArea{{
			ID:      "default",
			Name:    "default",
			FeedURL: cfg.OutageFeedURL,
		}}
	}
	return area, nil
}

func buildHTTPServer(cfg config.Config, s *Server, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	handler := httpapi.NewHandler(s.svc, s.manager, refreshTasks(), logger)
	router := httpapi.NewRouter(handler, logger, recorder)

	return netHTTPServer{srv: &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}}
}

func buildMetrics(cfg config.Config, logger *slog.Logger) (*metrics.Recorder, httpServer, func(context.Context) error) {
	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		if logger != nil {
			logger.Warn("metrics setup failed, continuing without telemetry", "error", err)
		}
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{srv: &http.Server{
			Addr:    ":" + recCfg.Port,
			Handler: handler,
		}}
	}

	return rec, metricsSrv, shutdown
}

// Run starts polling and the HTTP server, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	s.startPolling(ctx)

	<-ctx.Done()
	if s.logger != nil {
		s.logger.Info("shutdown signal received")
	}

	s.gracefulShutdown()
}

// startPolling registers the cadence tasks and warms each one immediately so
// the first dashboard load is served from cache.
func (s *Server) startPolling(ctx context.Context) {
	tasks := []struct {
		name     string
		callback poller.Callback
		interval time.Duration
	}{
		{TaskSubscribers, s.pollSubscribers, s.cfg.Polling.Subscribers},
		{TaskOutages, s.pollOutages, s.cfg.Polling.Outages},
		{TaskVehicles, s.pollVehicles, s.cfg.Polling.Vehicles},
	}

	for _, t := range tasks {
		if err := s.manager.StartPolling(ctx, t.name, t.callback, t.interval); err != nil {
			logging.Error(s.logger, "failed to start poll task", err,
				slog.String(logging.FieldTask, t.name))
			continue
		}
		if err := s.manager.PerformUpdate(ctx, t.name); err != nil {
			logging.Warn(s.logger, "initial poll failed",
				slog.String(logging.FieldTask, t.name), "error", err)
		}
	}
}

func (s *Server) startServer(stop context.CancelFunc) {
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.manager.StopAll()
	if s.bus != nil {
		s.bus.Close()
	}

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics shutdown failed", "error", err)
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
	}

	if s.logger != nil {
		s.logger.Info("shutdown complete")
	}
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if logger != nil {
			logger.Info("starting "+name+" server", slog.String("addr", srv.Addr()))
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Warn(name+" server failed", "error", err)
			}
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

// Changes exposes the event bus subscription for a domain tag.
func (s *Server) Changes(tag string) <-chan events.Change {
	return s.bus.Subscribe(tag)
}
