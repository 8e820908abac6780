package scorer

import (
	"context"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
)

// AnomalyScorer is the black-box inference contract: given an asset's current
// features and learned baseline, return an anomaly score with a confidence.
type AnomalyScorer interface {
	Score(ctx context.Context, assetID string, features *domain.FeatureVector, baseline *domain.AssetBaseline) (*domain.AnomalyScore, error)
}
