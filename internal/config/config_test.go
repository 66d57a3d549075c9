package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.DeviceProfile != ProfileDesktop {
		t.Fatalf("expected desktop profile, got %s", cfg.DeviceProfile)
	}
	if cfg.Polling.Subscribers != desktopSubscriberInterval {
		t.Fatalf("expected desktop subscriber interval, got %s", cfg.Polling.Subscribers)
	}
	if cfg.Polling.Vehicles != desktopVehicleInterval {
		t.Fatalf("expected desktop vehicle interval, got %s", cfg.Polling.Vehicles)
	}
	if cfg.Backend.Timeout != defaultFetchTimeout {
		t.Fatalf("expected default fetch timeout, got %s", cfg.Backend.Timeout)
	}
}

func TestLoadMobileProfileStretchesIntervals(t *testing.T) {
	t.Setenv(envDeviceProfile, "mobile")

	cfg := Load()

	if cfg.DeviceProfile != ProfileMobile {
		t.Fatalf("expected mobile profile, got %s", cfg.DeviceProfile)
	}
	if cfg.Polling.Subscribers != mobileInterval || cfg.Polling.Outages != mobileInterval || cfg.Polling.Vehicles != mobileInterval {
		t.Fatalf("expected 5m intervals on mobile, got %+v", cfg.Polling)
	}
}

func TestLoadExplicitIntervalOverridesProfile(t *testing.T) {
	t.Setenv(envDeviceProfile, "mobile")
	t.Setenv(envOutagePoll, "45s")

	cfg := Load()

	if cfg.Polling.Outages != 45*time.Second {
		t.Fatalf("expected outage interval override 45s, got %s", cfg.Polling.Outages)
	}
	if cfg.Polling.Subscribers != mobileInterval {
		t.Fatalf("expected untouched domains to keep profile cadence, got %s", cfg.Polling.Subscribers)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv(envSubscriberPoll, "not-a-duration")

	cfg := Load()

	if cfg.Polling.Subscribers != desktopSubscriberInterval {
		t.Fatalf("expected default interval on invalid value, got %s", cfg.Polling.Subscribers)
	}
}

func TestLoadBackendOverrides(t *testing.T) {
	t.Setenv(envBackendBaseURL, "http://backend.example/rest")
	t.Setenv(envBackendAPIKey, "secret")
	t.Setenv(envFetchTimeout, "3s")

	cfg := Load()

	if cfg.Backend.BaseURL != "http://backend.example/rest" {
		t.Fatalf("unexpected base url: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.APIKey != "secret" {
		t.Fatalf("unexpected api key: %s", cfg.Backend.APIKey)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Backend.Timeout)
	}
}

func TestUnknownProfileFallsBackToDesktop(t *testing.T) {
	t.Setenv(envDeviceProfile, "tablet")

	cfg := Load()

	if cfg.DeviceProfile != ProfileDesktop {
		t.Fatalf("expected desktop fallback, got %s", cfg.DeviceProfile)
	}
}
