package datafetch

import (
	"fmt"

	"grid-ops-service/internal/domain"
	"grid-ops-service/internal/providers/geojson"
)

// Column names of the backend tables. The backend schema is stable; these are
// the canonical fields normalization reads, everything else passes through
// untouched on the feature properties.
const (
	fieldLatitude  = "latitude"
	fieldLongitude = "longitude"
)

// normalizeRows turns raw table rows into features. Rows without a resolvable
// position are dropped from the feature list but stay in the raw data, so
// features.length <= data.length always holds and every feature carries
// coordinates.
func normalizeRows(rows []domain.Record, idField string) []domain.Feature {
	features := make([]domain.Feature, 0, len(rows))
	for i, rec := range rows {
		lat, latOK := rec.Float(fieldLatitude)
		lon, lonOK := rec.Float(fieldLongitude)
		if !latOK || !lonOK {
			continue
		}

		id, ok := rec.String(idField)
		if !ok || id == "" {
			id = fmt.Sprintf("row-%d", i)
		}

		features = append(features, domain.Feature{
			ID:         id,
			Geometry:   domain.NewPoint(lon, lat),
			Properties: rec,
		})
	}
	return features
}

// normalizeFeed turns a GeoJSON document into raw records plus features.
// Original geometry is kept when the feature carries one; features without a
// usable geometry are dropped from the feature list (their properties still
// appear in the raw data).
func normalizeFeed(doc geojson.Document) ([]domain.Record, []domain.Feature) {
	records := make([]domain.Record, 0, len(doc.Features))
	features := make([]domain.Feature, 0, len(doc.Features))

	for i, raw := range doc.Features {
		rec := domain.Record{}
		for k, v := range raw.Properties {
			rec[k] = v
		}
		records = append(records, rec)

		if raw.Geometry == nil {
			continue
		}
		geom, err := domain.ParseGeometry(raw.Geometry.Type, raw.Geometry.Coordinates)
		if err != nil {
			continue
		}

		features = append(features, domain.Feature{
			ID:         feedFeatureID(raw, rec, i),
			Geometry:   geom,
			Properties: rec,
		})
	}
	return records, features
}

func feedFeatureID(raw geojson.Feature, rec domain.Record, index int) string {
	if raw.ID != nil {
		return fmt.Sprintf("%v", raw.ID)
	}
	for _, key := range []string{"id", "outage_id", "incident_id"} {
		if id, ok := rec.String(key); ok && id != "" {
			return id
		}
	}
	return fmt.Sprintf("feed-%d", index)
}

// filterByBounds restricts features to the box using each feature's
// representative point. The returned records are rebuilt from the surviving
// features so count, data, and features never diverge. A zero box keeps
// everything.
func filterByBounds(records []domain.Record, features []domain.Feature, bounds domain.Bounds) ([]domain.Record, []domain.Feature) {
	if bounds.IsZero() {
		return records, features
	}

	keptRecords := make([]domain.Record, 0, len(features))
	keptFeatures := make([]domain.Feature, 0, len(features))
	for _, f := range features {
		p := f.Geometry.Point
		if !bounds.Contains(p.Lon, p.Lat) {
			continue
		}
		keptRecords = append(keptRecords, f.Properties)
		keptFeatures = append(keptFeatures, f)
	}
	return keptRecords, keptFeatures
}
