package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"grid-ops-service/internal/domain"
)

// ProviderArea describes one outage data provider: where its feed lives and
// the bounding box restricting the feed to our service territory. A zero
// bounds means the feed is taken as-is.
type ProviderArea struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name"`
	FeedURL string        `yaml:"feed_url"`
	Bounds  domain.Bounds `yaml:"bounds"`
}

// ServiceArea is the externalized region configuration. Bbox constants are
// provider-specific deployment data, so they live in a file, not in code.
type ServiceArea struct {
	Providers []ProviderArea `yaml:"providers"`
}

// Provider looks up a provider area by id.
func (s ServiceArea) Provider(id string) (ProviderArea, bool) {
	for _, p := range s.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderArea{}, false
}

// LoadServiceArea reads the YAML service-area file. An empty path yields an
// empty area, which callers may back-fill from a single-feed env fallback.
func LoadServiceArea(path string) (ServiceArea, error) {
	if path == "" {
		return ServiceArea{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return ServiceArea{}, fmt.Errorf("read service area file: %w", err)
	}

	var area ServiceArea
	if err := yaml.Unmarshal(raw, &area); err != nil {
		return ServiceArea{}, fmt.Errorf("parse service area file: %w", err)
	}

	for i, p := range area.Providers {
		if p.ID == "" {
			return ServiceArea{}, fmt.Errorf("service area provider %d missing id", i)
		}
		if p.FeedURL == "" {
			return ServiceArea{}, fmt.Errorf("service area provider %q missing feed_url", p.ID)
		}
	}
	return area, nil
}
