package domain

// Bounds is a geographic bounding box used to restrict a provider feed to a
// known service area.
type Bounds struct {
	MinLon float64 `yaml:"min_lon" json:"minLon"`
	MinLat float64 `yaml:"min_lat" json:"minLat"`
	MaxLon float64 `yaml:"max_lon" json:"maxLon"`
	MaxLat float64 `yaml:"max_lat" json:"maxLat"`
}

// Contains reports whether the coordinate falls inside the box, edges
// included.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// IsZero reports whether the box is unset. A zero box means no filtering.
func (b Bounds) IsZero() bool {
	return b.MinLon == 0 && b.MinLat == 0 && b.MaxLon == 0 && b.MaxLat == 0
}
