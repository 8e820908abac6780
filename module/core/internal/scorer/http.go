package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
)

var _ AnomalyScorer = (*HTTPScorer)(nil)

// HTTPScorer calls the external inference service over JSON/HTTP.
type HTTPScorer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPScorer(baseURL string) *HTTPScorer {
	return &HTTPScorer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type scoreRequest struct {
	AssetID  string                `json:"asset_id"`
	Features *domain.FeatureVector `json:"features"`
	Baseline *domain.AssetBaseline `json:"baseline"`
}

func (s *HTTPScorer) Score(ctx context.Context, assetID string, features *domain.FeatureVector, baseline *domain.AssetBaseline) (*domain.AnomalyScore, error) {
	body, err := json.Marshal(scoreRequest{
		AssetID:  assetID,
		Features: features,
		Baseline: baseline,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scorer returned %d", resp.StatusCode)
	}

	var score domain.AnomalyScore
	if err := json.NewDecoder(resp.Body).Decode(&score); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}
	if score.AssetID == "" {
		score.AssetID = assetID
	}
	return &score, nil
}
