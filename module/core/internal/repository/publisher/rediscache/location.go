package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/publisher"
)

var _ publisher.LocationPublisher = (*LocationPublisher)(nil)

const (
	stateTTL   = time.Hour
	geoKey     = "assets:geo"
	pubChannel = "assets:locations"
)

// LocationPublisher mirrors each estimate into Redis for fast reads: a
// per-asset state hash with a TTL, a geo index, and a pub/sub broadcast for
// real-time subscribers.
type LocationPublisher struct {
	client *redis.Client
}

func NewLocationPublisher(client *redis.Client) *LocationPublisher {
	return &LocationPublisher{client: client}
}

func (p *LocationPublisher) PublishLocation(ctx context.Context, loc *domain.EstimatedLocation) error {
	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}

	stateKey := fmt.Sprintf("asset:%s:location", loc.AssetID)

	pipe := p.client.Pipeline()
	pipe.HSet(ctx, stateKey, map[string]interface{}{
		"asset_id":           loc.AssetID,
		"latitude":           loc.Lat,
		"longitude":          loc.Lon,
		"uncertainty_radius": loc.UncertaintyRadius,
		"confidence":         loc.Confidence,
		"algorithm":          string(loc.Algorithm),
		"gateway_count":      loc.GatewayCount,
		"timestamp":          loc.Timestamp.Unix(),
	})
	pipe.Expire(ctx, stateKey, stateTTL)
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      loc.AssetID,
		Longitude: loc.Lon,
		Latitude:  loc.Lat,
	})
	pipe.Publish(ctx, pubChannel, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}
