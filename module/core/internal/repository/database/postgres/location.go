package postgres

import (
	"context"
	"database/sql"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, loc *domain.EstimatedLocation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO asset_locations (asset_id, latitude, longitude, uncertainty_radius, confidence, algorithm, gateway_count, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		loc.AssetID, loc.Lat, loc.Lon, loc.UncertaintyRadius, loc.Confidence, string(loc.Algorithm), loc.GatewayCount, loc.Timestamp,
	)
	return err
}

func (r *LocationRepo) GetLatest(ctx context.Context, assetID string) (*domain.EstimatedLocation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT asset_id, latitude, longitude, uncertainty_radius, confidence, algorithm, gateway_count, timestamp FROM asset_locations WHERE asset_id = $1 ORDER BY timestamp DESC LIMIT 1`,
		assetID,
	)

	var loc domain.EstimatedLocation
	var algorithm string
	if err := row.Scan(&loc.AssetID, &loc.Lat, &loc.Lon, &loc.UncertaintyRadius, &loc.Confidence, &algorithm, &loc.GatewayCount, &loc.Timestamp); err != nil {
		return nil, err
	}
	loc.Algorithm = domain.Algorithm(algorithm)
	return &loc, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.EstimatedLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT asset_id, latitude, longitude, uncertainty_radius, confidence, algorithm, gateway_count, timestamp FROM asset_locations WHERE asset_id = $1 AND timestamp >= $2 AND timestamp <= $3 ORDER BY timestamp ASC`,
		query.AssetID, query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.EstimatedLocation
	for rows.Next() {
		var loc domain.EstimatedLocation
		var algorithm string
		if err := rows.Scan(&loc.AssetID, &loc.Lat, &loc.Lon, &loc.UncertaintyRadius, &loc.Confidence, &algorithm, &loc.GatewayCount, &loc.Timestamp); err != nil {
			return nil, err
		}
		loc.Algorithm = domain.Algorithm(algorithm)
		results = append(results, loc)
	}
	return results, rows.Err()
}

func (r *LocationRepo) GetAllAssets(ctx context.Context) ([]domain.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT asset_id FROM asset_locations ORDER BY asset_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.AssetID); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
