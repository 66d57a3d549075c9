package config

import "strings"

// Config holds runtime configuration for the service.
type Config struct {
	Port            string
	DeviceProfile   string
	Polling         PollingConfig
	Backend         BackendConfig
	OutageFeedURL   string
	ServiceAreaFile string
	Metrics         MetricsConfig
}

// PollingConfig carries the per-domain refresh cadence. The poll manager is
// interval-agnostic; the cadence policy lives here.
type PollingConfig struct {
	Subscribers Duration
	Outages     Duration
	Vehicles    Duration
}

// BackendConfig controls how we talk to the row-table data backend.
type BackendConfig struct {
	BaseURL string
	APIKey  string
	Timeout Duration
}

// MetricsConfig controls telemetry export settings.
type MetricsConfig struct {
	Enabled      bool
	Port         string
	OtlpEndpoint string
	ServiceName  string
	OtlpInsecure bool
}

// Load reads configuration from environment variables with sensible defaults.
// The device profile picks the base polling cadence; explicit interval
// variables override it per domain.
func Load() Config {
	profile := normalizeProfile(envOrDefault(envDeviceProfile, ProfileDesktop))
	return Config{
		Port:            envOrDefault(envPort, defaultPort),
		DeviceProfile:   profile,
		Polling:         loadPolling(profile),
		Backend:         loadBackend(),
		OutageFeedURL:   envOrDefault(envOutageFeedURL, ""),
		ServiceAreaFile: envOrDefault(envServiceAreaFile, ""),
		Metrics:         loadMetrics(),
	}
}

func loadPolling(profile string) PollingConfig {
	base := PollingConfig{
		Subscribers: desktopSubscriberInterval,
		Outages:     desktopOutageInterval,
		Vehicles:    desktopVehicleInterval,
	}
	if profile == ProfileMobile {
		base = PollingConfig{
			Subscribers: mobileInterval,
			Outages:     mobileInterval,
			Vehicles:    mobileInterval,
		}
	}
	return PollingConfig{
		Subscribers: durationEnvOrDefault(envSubscriberPoll, base.Subscribers),
		Outages:     durationEnvOrDefault(envOutagePoll, base.Outages),
		Vehicles:    durationEnvOrDefault(envVehiclePoll, base.Vehicles),
	}
}

func loadBackend() BackendConfig {
	return BackendConfig{
		BaseURL: envOrDefault(envBackendBaseURL, ""),
		APIKey:  envOrDefault(envBackendAPIKey, ""),
		Timeout: durationEnvOrDefault(envFetchTimeout, defaultFetchTimeout),
	}
}

func loadMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled:      boolEnvOrDefault(envMetricsOn, true),
		Port:         envOrDefault(envMetricsPort, defaultMetricsPort),
		OtlpEndpoint: envOrDefault(envOtelEndpoint, ""),
		ServiceName:  envOrDefault(envOtelService, "grid-ops-service"),
		OtlpInsecure: boolEnvOrDefault(envOtelInsecure, true),
	}
}

func normalizeProfile(raw string) string {
	if strings.EqualFold(raw, ProfileMobile) {
		return ProfileMobile
	}
	return ProfileDesktop
}
