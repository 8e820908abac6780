package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database"
)

var _ database.GatewayRegistry = (*GatewayRepo)(nil)

type GatewayRepo struct {
	db *sql.DB
}

func NewGatewayRepo(db *sql.DB) *GatewayRepo {
	return &GatewayRepo{db: db}
}

func (r *GatewayRepo) Resolve(ctx context.Context, gatewayID string) (*domain.Gateway, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT gateway_id, latitude, longitude, battery_level, status FROM gateways WHERE gateway_id = $1`,
		gatewayID,
	)

	var g domain.Gateway
	var battery sql.NullFloat64
	var status sql.NullString
	if err := row.Scan(&g.GatewayID, &g.Lat, &g.Lon, &battery, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("gateway %s: not found", gatewayID)
		}
		return nil, err
	}
	if battery.Valid {
		g.BatteryLevel = &battery.Float64
	}
	if status.Valid {
		g.Status = status.String
	}
	return &g, nil
}
