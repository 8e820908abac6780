package publisher

import (
	"context"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
)

type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.Alert) error
}

type LocationPublisher interface {
	PublishLocation(ctx context.Context, loc *domain.EstimatedLocation) error
}
