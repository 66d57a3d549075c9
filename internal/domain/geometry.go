package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Geometry type identifiers, matching GeoJSON.
const (
	GeometryPoint   = "Point"
	GeometryPolygon = "Polygon"
)

var errEmptyRing = errors.New("polygon has no vertices")

// Point is a lon/lat coordinate pair.
type Point struct {
	Lon float64
	Lat float64
}

// Geometry is a point or polygon in GeoJSON terms. Point always holds the
// representative coordinate: the literal position for points, the first-ring
// centroid for polygons.
type Geometry struct {
	Type  string
	Point Point
	Rings [][]Point
}

// NewPoint builds a point geometry.
func NewPoint(lon, lat float64) Geometry {
	return Geometry{Type: GeometryPoint, Point: Point{Lon: lon, Lat: lat}}
}

// NewPolygon builds a polygon geometry with its representative point set to
// the first-ring centroid.
func NewPolygon(rings [][]Point) (Geometry, error) {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return Geometry{}, errEmptyRing
	}
	c := ringCentroid(rings[0])
	return Geometry{Type: GeometryPolygon, Point: c, Rings: rings}, nil
}

// ringCentroid averages the ring's vertex coordinates. This is not a true
// area centroid; it is close enough for bbox filtering and marker placement.
func ringCentroid(ring []Point) Point {
	var lon, lat float64
	for _, p := range ring {
		lon += p.Lon
		lat += p.Lat
	}
	n := float64(len(ring))
	return Point{Lon: lon / n, Lat: lat / n}
}

// MarshalJSON renders the geometry as a GeoJSON geometry object.
func (g Geometry) MarshalJSON() ([]byte, error) {
	switch g.Type {
	case GeometryPolygon:
		rings := make([][][2]float64, len(g.Rings))
		for i, ring := range g.Rings {
			rings[i] = make([][2]float64, len(ring))
			for j, p := range ring {
				rings[i][j] = [2]float64{p.Lon, p.Lat}
			}
		}
		return json.Marshal(struct {
			Type        string         `json:"type"`
			Coordinates [][][2]float64 `json:"coordinates"`
		}{Type: GeometryPolygon, Coordinates: rings})
	default:
		return json.Marshal(struct {
			Type        string     `json:"type"`
			Coordinates [2]float64 `json:"coordinates"`
		}{Type: GeometryPoint, Coordinates: [2]float64{g.Point.Lon, g.Point.Lat}})
	}
}

// UnmarshalJSON parses a GeoJSON geometry object. Only Point and Polygon are
// recognized; other types produce an error.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseGeometry(raw.Type, raw.Coordinates)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGeometry builds a Geometry from a GeoJSON type tag and raw coordinates.
func ParseGeometry(geomType string, coordinates json.RawMessage) (Geometry, error) {
	switch geomType {
	case GeometryPoint:
		var coords []float64
		if err := json.Unmarshal(coordinates, &coords); err != nil {
			return Geometry{}, fmt.Errorf("parse point coordinates: %w", err)
		}
		if len(coords) < 2 {
			return Geometry{}, errors.New("point needs lon and lat")
		}
		return NewPoint(coords[0], coords[1]), nil
	case GeometryPolygon:
		var coords [][][]float64
		if err := json.Unmarshal(coordinates, &coords); err != nil {
			return Geometry{}, fmt.Errorf("parse polygon coordinates: %w", err)
		}
		rings := make([][]Point, 0, len(coords))
		for _, rawRing := range coords {
			ring := make([]Point, 0, len(rawRing))
			for _, pos := range rawRing {
				if len(pos) < 2 {
					continue
				}
				ring = append(ring, Point{Lon: pos[0], Lat: pos[1]})
			}
			rings = append(rings, ring)
		}
		return NewPolygon(rings)
	default:
		return Geometry{}, fmt.Errorf("unsupported geometry type %q", geomType)
	}
}
