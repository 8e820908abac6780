package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/publisher"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/scorer"
)

const (
	anomalyCooldown     = 15 * time.Minute
	sweepInterval       = 30 * time.Second
	maxConcurrentChecks = 10

	anomalyConfidenceFloor = 0.5
	criticalScore          = 0.9
	warningScore           = 0.8
)

// AnomalyProcessor scores assets against their baselines, reactively on each
// location update and on a periodic sweep over all known assets. A per-asset
// cooldown suppresses repeat alerts; per-asset failures never abort a sweep.
type AnomalyProcessor struct {
	features database.FeatureStore
	assets   database.LocationRepository
	scorer   scorer.AnomalyScorer
	alerts   publisher.AlertPublisher

	mu        sync.Mutex
	cooldowns map[string]time.Time
	inflight  map[string]struct{}
	now       func() time.Time

	sem  chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewAnomalyProcessor(features database.FeatureStore, assets database.LocationRepository, sc scorer.AnomalyScorer, alerts publisher.AlertPublisher) *AnomalyProcessor {
	return &AnomalyProcessor{
		features:  features,
		assets:    assets,
		scorer:    sc,
		alerts:    alerts,
		cooldowns: make(map[string]time.Time),
		inflight:  make(map[string]struct{}),
		now:       time.Now,
		sem:       make(chan struct{}, maxConcurrentChecks),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop. Sweeps never overlap: the loop runs them
// synchronously and each sweep waits for its in-flight checks.
func (a *AnomalyProcessor) Start(ctx context.Context) {
	go func() {
		defer close(a.done)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.Sweep(ctx)
			case <-a.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (a *AnomalyProcessor) Stop() {
	close(a.stop)
	<-a.done
}

// Sweep checks every known asset, bounded by maxConcurrentChecks.
func (a *AnomalyProcessor) Sweep(ctx context.Context) {
	assets, err := a.assets.GetAllAssets(ctx)
	if err != nil {
		log.Printf("anomaly sweep: listing assets: %v", err)
		return
	}

	var wg sync.WaitGroup
	for _, asset := range assets {
		wg.Add(1)
		a.sem <- struct{}{}
		go func(assetID string) {
			defer wg.Done()
			defer func() { <-a.sem }()
			if _, err := a.Check(ctx, assetID); err != nil {
				log.Printf("anomaly check for %s: %v", assetID, err)
			}
		}(asset.AssetID)
	}
	wg.Wait()
}

// OnLocation runs a reactive check after each location update. Cooldowns make
// this cheap for assets that alerted recently.
func (a *AnomalyProcessor) OnLocation(ctx context.Context, loc *domain.EstimatedLocation) {
	if _, err := a.Check(ctx, loc.AssetID); err != nil {
		log.Printf("anomaly check for %s: %v", loc.AssetID, err)
	}
}

// Check scores one asset and publishes an alert when it is anomalous with
// sufficient confidence. Returns the alert, or nil when no alert was raised.
// At most one check runs per asset at a time: the reactive path and the sweep
// can race here, and the asset stays reserved for the whole scorer round-trip
// so only one of them can reach the publisher before the cooldown lands.
func (a *AnomalyProcessor) Check(ctx context.Context, assetID string) (*domain.Alert, error) {
	if !a.reserve(assetID) {
		return nil, nil
	}
	defer a.release(assetID)

	features, err := a.features.GetFeatures(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	baseline, err := a.features.GetBaseline(ctx, assetID)
	if err != nil {
		// no baseline yet is data sparsity, not a fault
		log.Printf("asset %s: no baseline, skipping anomaly check: %v", assetID, err)
		return nil, nil
	}

	score, err := a.scorer.Score(ctx, assetID, features, baseline)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	if !score.IsAnomalous || score.Confidence <= anomalyConfidenceFloor {
		return nil, nil
	}

	alert := domain.NewAlert(domain.AlertAnomaly, severityForScore(score.Score), assetID,
		fmt.Sprintf("Anomalous behavior detected for asset %s (score %.2f)", assetID, score.Score))
	alert.Description = fmt.Sprintf("Scorer flagged asset %s with score %.2f at confidence %.2f", assetID, score.Score, score.Confidence)
	alert.SuggestedAction = "Review the asset's recent movement and sensor history"
	alert.Metadata = map[string]string{
		"anomaly_score": fmt.Sprintf("%.4f", score.Score),
		"confidence":    fmt.Sprintf("%.4f", score.Confidence),
	}

	if err := a.alerts.PublishAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	a.setCooldown(assetID)
	return alert, nil
}

// ForceCheck clears the asset's cooldown and re-runs the check, for
// operator-triggered re-evaluation.
func (a *AnomalyProcessor) ForceCheck(ctx context.Context, assetID string) (*domain.Alert, error) {
	a.mu.Lock()
	delete(a.cooldowns, assetID)
	a.mu.Unlock()
	return a.Check(ctx, assetID)
}

// reserve claims the asset for one in-flight check. It fails when the asset
// is cooling down or another check already holds the claim.
func (a *AnomalyProcessor) reserve(assetID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if last, ok := a.cooldowns[assetID]; ok && a.now().Sub(last) < anomalyCooldown {
		return false
	}
	if _, ok := a.inflight[assetID]; ok {
		return false
	}
	a.inflight[assetID] = struct{}{}
	return true
}

func (a *AnomalyProcessor) release(assetID string) {
	a.mu.Lock()
	delete(a.inflight, assetID)
	a.mu.Unlock()
}

func (a *AnomalyProcessor) setCooldown(assetID string) {
	a.mu.Lock()
	a.cooldowns[assetID] = a.now()
	a.mu.Unlock()
}

func severityForScore(score float64) domain.AlertSeverity {
	switch {
	case score > criticalScore:
		return domain.SeverityCritical
	case score > warningScore:
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}
