package database

import (
	"context"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
)

type LocationRepository interface {
	Insert(ctx context.Context, loc *domain.EstimatedLocation) error
	GetLatest(ctx context.Context, assetID string) (*domain.EstimatedLocation, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.EstimatedLocation, error)
	GetAllAssets(ctx context.Context) ([]domain.Asset, error)
}

type GatewayRegistry interface {
	Resolve(ctx context.Context, gatewayID string) (*domain.Gateway, error)
}

type GeofenceRegistry interface {
	ListActive(ctx context.Context) ([]domain.Geofence, error)
}

type FeatureStore interface {
	GetFeatures(ctx context.Context, assetID string) (*domain.FeatureVector, error)
	GetBaseline(ctx context.Context, assetID string) (*domain.AssetBaseline, error)
}
