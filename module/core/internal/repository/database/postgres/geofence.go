package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database"
)

var _ database.GeofenceRegistry = (*GeofenceRepo)(nil)

type GeofenceRepo struct {
	db *sql.DB
}

func NewGeofenceRepo(db *sql.DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

// ListActive returns every active geofence. Polygon vertices are stored as a
// JSON array of [lat, lon] pairs; a fence whose vertices fail to decode is
// returned with no vertices and fails closed at evaluation time.
func (r *GeofenceRepo) ListActive(ctx context.Context) ([]domain.Geofence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, center_latitude, center_longitude, radius_meters, vertices, classification, alert_on_entry, alert_on_exit, site_id FROM geofences WHERE active = TRUE`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Geofence
	for rows.Next() {
		var gf domain.Geofence
		var gfType, classification string
		var centerLat, centerLon, radius sql.NullFloat64
		var vertices []byte
		var siteID sql.NullString
		if err := rows.Scan(&gf.ID, &gf.Name, &gfType, &centerLat, &centerLon, &radius, &vertices, &classification, &gf.AlertOnEntry, &gf.AlertOnExit, &siteID); err != nil {
			return nil, fmt.Errorf("scan geofence: %w", err)
		}
		gf.Type = domain.GeofenceType(gfType)
		gf.Classification = domain.GeofenceClassification(classification)
		gf.CenterLat = centerLat.Float64
		gf.CenterLon = centerLon.Float64
		gf.RadiusMeters = radius.Float64
		if siteID.Valid {
			gf.SiteID = siteID.String
		}
		if len(vertices) > 0 {
			_ = json.Unmarshal(vertices, &gf.Vertices)
		}
		results = append(results, gf)
	}
	return results, rows.Err()
}
