package config

import "time"

const (
	envPort            = "PORT"
	envDeviceProfile   = "DEVICE_PROFILE"
	envSubscriberPoll  = "POLL_INTERVAL_SUBSCRIBERS"
	envOutagePoll      = "POLL_INTERVAL_OUTAGES"
	envVehiclePoll     = "POLL_INTERVAL_VEHICLES"
	envBackendBaseURL  = "BACKEND_BASE_URL"
	envBackendAPIKey   = "BACKEND_API_KEY"
	envFetchTimeout    = "FETCH_TIMEOUT"
	envOutageFeedURL   = "OUTAGE_FEED_URL"
	envServiceAreaFile = "SERVICE_AREA_FILE"
	envMetricsPort     = "METRICS_PORT"
	envMetricsOn       = "METRICS_ENABLED"
	envOtelEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService     = "OTEL_SERVICE_NAME"
	envOtelInsecure    = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultPort        = "4000"
	defaultMetricsPort = "9090"

	// Desktop cadence keeps the map close to live.
	desktopSubscriberInterval = 60 * time.Second
	desktopOutageInterval     = 60 * time.Second
	desktopVehicleInterval    = 30 * time.Second
	// Mobile cadence is stretched to conserve battery and data.
	mobileInterval = 5 * time.Minute

	defaultFetchTimeout = 10 * time.Second
)

// Device profile names selecting the polling cadence.
const (
	ProfileDesktop = "desktop"
	ProfileMobile  = "mobile"
)
