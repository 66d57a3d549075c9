package domain

import "encoding/json"

// Feature is one real-world entity (a subscriber drop, an outage area, a
// vehicle) in a uniform shape the map layer can consume. Properties carries
// every original source field so display code can read domain-specific
// attributes without another round trip. Features are built once during
// normalization and treated as read-only afterwards.
type Feature struct {
	ID         string         `json:"id"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// MarshalJSON renders the feature as a GeoJSON Feature object.
func (f Feature) MarshalJSON() ([]byte, error) {
	type alias Feature
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "Feature", alias: alias(f)})
}
