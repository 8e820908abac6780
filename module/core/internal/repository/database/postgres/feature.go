package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database"
)

var _ database.FeatureStore = (*FeatureRepo)(nil)

type FeatureRepo struct {
	db *sql.DB
}

func NewFeatureRepo(db *sql.DB) *FeatureRepo {
	return &FeatureRepo{db: db}
}

func (r *FeatureRepo) GetFeatures(ctx context.Context, assetID string) (*domain.FeatureVector, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT asset_id, avg_speed_mps, distance_last_24h, geofence_events, observation_count, avg_rssi, battery_level, last_seen FROM asset_features WHERE asset_id = $1`,
		assetID,
	)

	var fv domain.FeatureVector
	if err := row.Scan(&fv.AssetID, &fv.AvgSpeedMps, &fv.DistanceLast24h, &fv.GeofenceEvents, &fv.ObservationCount, &fv.AvgRSSI, &fv.BatteryLevel, &fv.LastSeen); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("features for %s: not found", assetID)
		}
		return nil, err
	}
	return &fv, nil
}

func (r *FeatureRepo) GetBaseline(ctx context.Context, assetID string) (*domain.AssetBaseline, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT asset_id, mean_speed_mps, mean_daily_meters, std_daily_meters, typical_sites, sample_days FROM asset_baselines WHERE asset_id = $1`,
		assetID,
	)

	var b domain.AssetBaseline
	if err := row.Scan(&b.AssetID, &b.MeanSpeedMps, &b.MeanDailyMeters, &b.StdDailyMeters, pq.Array(&b.TypicalSites), &b.SampleDays); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("baseline for %s: not found", assetID)
		}
		return nil, err
	}
	return &b, nil
}
