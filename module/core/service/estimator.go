package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/geo"
)

const (
	lastKnownTTL = time.Hour

	// Log-distance path-loss calibration for BLE tags at 1m.
	referenceDistance = 1.0
	referencePower    = -59.0
	pathLossExponent  = 2.0

	defaultUncertaintyMeters = 1000
	minTrilatUncertainty     = 5
	maxTrilatUncertainty     = 200

	singleGatewayConfidence = 30
	midpointConfidence      = 60
	maxConfidence           = 95
)

type lastKnownEntry struct {
	loc       *domain.EstimatedLocation
	expiresAt time.Time
}

// LocationEstimator turns a batch of near-simultaneous gateway observations
// into one estimated location. Its only state is the last-known-location
// cache, keyed by asset id with a 1h TTL; it is safe for concurrent use
// across asset ids. Calls for the same asset id are serialized upstream by
// the LocationProcessor.
type LocationEstimator struct {
	mu        sync.RWMutex
	lastKnown map[string]lastKnownEntry
	now       func() time.Time
}

func NewLocationEstimator() *LocationEstimator {
	return &LocationEstimator{
		lastKnown: make(map[string]lastKnownEntry),
		now:       time.Now,
	}
}

// Estimate produces a location for the asset from the given observations.
// With no observations it falls back to the cached last-known location, or a
// zero-confidence default when nothing is cached.
func (e *LocationEstimator) Estimate(assetID string, observations []*domain.GatewayObservation) *domain.EstimatedLocation {
	if len(observations) == 0 {
		return e.fallback(assetID)
	}

	sorted := make([]*domain.GatewayObservation, len(observations))
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var loc *domain.EstimatedLocation
	switch len(sorted) {
	case 1:
		loc = e.singleGateway(assetID, sorted[0])
	case 2:
		loc = e.midpoint(assetID, sorted)
	default:
		loc = e.trilaterate(assetID, sorted)
	}

	quality := signalQuality(sorted)
	variance := rssiVariance(sorted)
	loc.SignalQuality = &quality
	loc.RSSIVariance = &variance

	prev := e.LastKnown(assetID)
	if prev != nil {
		e.applyMovement(loc, prev)
	}

	e.store(assetID, loc)
	return loc
}

// LastKnown returns the cached location for the asset, or nil when absent or
// expired.
func (e *LocationEstimator) LastKnown(assetID string) *domain.EstimatedLocation {
	e.mu.RLock()
	entry, ok := e.lastKnown[assetID]
	e.mu.RUnlock()
	if !ok || e.now().After(entry.expiresAt) {
		return nil
	}
	return entry.loc
}

func (e *LocationEstimator) store(assetID string, loc *domain.EstimatedLocation) {
	e.mu.Lock()
	e.lastKnown[assetID] = lastKnownEntry{loc: loc, expiresAt: e.now().Add(lastKnownTTL)}
	e.mu.Unlock()
}

func (e *LocationEstimator) fallback(assetID string) *domain.EstimatedLocation {
	if prev := e.LastKnown(assetID); prev != nil {
		loc := *prev
		loc.Algorithm = domain.AlgorithmLastKnown
		return &loc
	}
	return &domain.EstimatedLocation{
		AssetID:           assetID,
		Algorithm:         domain.AlgorithmDefault,
		UncertaintyRadius: defaultUncertaintyMeters,
		Confidence:        0,
		Timestamp:         e.now().UTC(),
	}
}

func (e *LocationEstimator) singleGateway(assetID string, obs *domain.GatewayObservation) *domain.EstimatedLocation {
	dist := geo.RSSIToDistance(obs.RSSI, referenceDistance, referencePower, pathLossExponent)
	return &domain.EstimatedLocation{
		AssetID: assetID,
		Lat:     obs.Lat,
		Lon:     obs.Lon,
		// the tag could be anywhere on a circle around the gateway
		UncertaintyRadius: 2 * dist,
		Confidence:        singleGatewayConfidence,
		Algorithm:         domain.AlgorithmSingleGateway,
		Timestamp:         obs.Timestamp,
		GatewayCount:      1,
		GatewayIDs:        []string{obs.GatewayID},
	}
}

func (e *LocationEstimator) midpoint(assetID string, obs []*domain.GatewayObservation) *domain.EstimatedLocation {
	w1 := geo.RSSIToWeight(obs[0].RSSI)
	w2 := geo.RSSIToWeight(obs[1].RSSI)
	total := w1 + w2

	lat := (w1*obs[0].Lat + w2*obs[1].Lat) / total
	lon := (w1*obs[0].Lon + w2*obs[1].Lon) / total

	gatewaySeparation := geo.HaversineDistance(obs[0].Lat, obs[0].Lon, obs[1].Lat, obs[1].Lon)

	return &domain.EstimatedLocation{
		AssetID:           assetID,
		Lat:               lat,
		Lon:               lon,
		UncertaintyRadius: gatewaySeparation / 2,
		Confidence:        midpointConfidence,
		Algorithm:         domain.AlgorithmMidpoint,
		Timestamp:         obs[1].Timestamp,
		GatewayCount:      2,
		GatewayIDs:        []string{obs[0].GatewayID, obs[1].GatewayID},
	}
}

func (e *LocationEstimator) trilaterate(assetID string, obs []*domain.GatewayObservation) *domain.EstimatedLocation {
	var latSum, lonSum, weightSum float64
	distances := make([]float64, len(obs))
	gatewayIDs := make([]string, len(obs))

	for i, o := range obs {
		w := geo.RSSIToWeight(o.RSSI)
		latSum += w * o.Lat
		lonSum += w * o.Lon
		weightSum += w
		distances[i] = geo.RSSIToDistance(o.RSSI, referenceDistance, referencePower, pathLossExponent)
		gatewayIDs[i] = o.GatewayID
	}

	lat := latSum / weightSum
	lon := lonSum / weightSum

	quality := signalQuality(obs)
	count := float64(len(obs))

	// Spread of the per-gateway range estimates, shrunk when signals are
	// strong and gateways plentiful.
	spread := math.Sqrt(stat.Variance(distances, nil))
	uncertainty := spread * (1 - quality/200) / math.Sqrt(count)
	if uncertainty < minTrilatUncertainty {
		uncertainty = minTrilatUncertainty
	}
	if uncertainty > maxTrilatUncertainty {
		uncertainty = maxTrilatUncertainty
	}

	confidence := count*20 + quality*0.3
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return &domain.EstimatedLocation{
		AssetID:           assetID,
		Lat:               lat,
		Lon:               lon,
		UncertaintyRadius: uncertainty,
		Confidence:        confidence,
		Algorithm:         domain.AlgorithmTrilateration,
		Timestamp:         obs[len(obs)-1].Timestamp,
		GatewayCount:      len(obs),
		GatewayIDs:        gatewayIDs,
	}
}

func (e *LocationEstimator) applyMovement(loc, prev *domain.EstimatedLocation) {
	distance := geo.HaversineDistance(prev.Lat, prev.Lon, loc.Lat, loc.Lon)
	bearing := geo.Bearing(prev.Lat, prev.Lon, loc.Lat, loc.Lon)
	loc.DistanceFrom = &distance
	loc.Bearing = &bearing

	if elapsed := loc.Timestamp.Sub(prev.Timestamp).Seconds(); elapsed > 0 {
		speed := distance / elapsed
		loc.SpeedMps = &speed
	}
}

// signalQuality scores 0-100: mean RSSI mapped from [-100,-30] dBm plus a
// bonus for every reporting gateway.
func signalQuality(obs []*domain.GatewayObservation) float64 {
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = float64(o.RSSI)
	}
	mean := stat.Mean(values, nil)

	quality := (mean + 100) / 70 * 100
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}

	bonus := 5 * float64(len(obs))
	if bonus > 20 {
		bonus = 20
	}

	quality += bonus
	if quality > 100 {
		quality = 100
	}
	return quality
}

func rssiVariance(obs []*domain.GatewayObservation) float64 {
	if len(obs) < 2 {
		return 0
	}
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = float64(o.RSSI)
	}
	return stat.Variance(values, nil)
}
