package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/geo"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/publisher"
)

const geofenceCacheTTL = time.Hour

// GeofenceProcessor evaluates each new location against the cached geofence
// boundaries and alerts only on entry/exit transitions, never on repeats.
// The boundary cache is replaced wholesale on refresh so readers see either
// the old or the new set, never a partial one.
type GeofenceProcessor struct {
	registry database.GeofenceRegistry
	alerts   publisher.AlertPublisher

	cacheMu     sync.RWMutex
	cache       []domain.Geofence
	refreshedAt time.Time

	stateMu sync.Mutex
	inside  map[string]map[string]struct{}

	stop chan struct{}
	done chan struct{}
}

func NewGeofenceProcessor(registry database.GeofenceRegistry, alerts publisher.AlertPublisher) *GeofenceProcessor {
	return &GeofenceProcessor{
		registry: registry,
		alerts:   alerts,
		inside:   make(map[string]map[string]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start populates the cache and launches the refresh loop. Failing to ever
// populate the cache is a service-level error; later refresh failures keep
// serving the stale set.
func (g *GeofenceProcessor) Start(ctx context.Context) error {
	if err := g.Refresh(ctx); err != nil {
		return fmt.Errorf("initial geofence load: %w", err)
	}

	go func() {
		defer close(g.done)
		ticker := time.NewTicker(geofenceCacheTTL)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := g.Refresh(ctx); err != nil {
					log.Printf("geofence cache refresh failed, keeping stale set: %v", err)
				}
			case <-g.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (g *GeofenceProcessor) Stop() {
	close(g.stop)
	<-g.done
}

// Refresh replaces the boundary cache atomically.
func (g *GeofenceProcessor) Refresh(ctx context.Context) error {
	fences, err := g.registry.ListActive(ctx)
	if err != nil {
		return err
	}

	g.cacheMu.Lock()
	g.cache = fences
	g.refreshedAt = time.Now()
	g.cacheMu.Unlock()

	log.Printf("geofence cache refreshed: %d active boundaries", len(fences))
	return nil
}

func (g *GeofenceProcessor) snapshot() []domain.Geofence {
	g.cacheMu.RLock()
	defer g.cacheMu.RUnlock()
	return g.cache
}

// Stale reports whether the cache has outlived its TTL. Evaluation still uses
// the stale set; staleness only matters to operators.
func (g *GeofenceProcessor) Stale() bool {
	g.cacheMu.RLock()
	defer g.cacheMu.RUnlock()
	return time.Since(g.refreshedAt) > geofenceCacheTTL
}

// OnLocation lets the processor sit downstream of the location pipeline.
func (g *GeofenceProcessor) OnLocation(ctx context.Context, loc *domain.EstimatedLocation) {
	g.Evaluate(ctx, loc.AssetID, loc.Lat, loc.Lon, loc.Timestamp)
}

// Evaluate recomputes the asset's inside-set against every cached boundary
// and emits alerts for the transitions. An asset's very first evaluation
// treats every containing fence as an entry.
func (g *GeofenceProcessor) Evaluate(ctx context.Context, assetID string, lat, lon float64, ts time.Time) []*domain.Alert {
	fences := g.snapshot()

	newSet := make(map[string]struct{})
	byID := make(map[string]domain.Geofence, len(fences))
	for _, f := range fences {
		byID[f.ID] = f
		if contains(f, lat, lon) {
			newSet[f.ID] = struct{}{}
		}
	}

	g.stateMu.Lock()
	oldSet := g.inside[assetID]
	g.inside[assetID] = newSet
	g.stateMu.Unlock()

	var alerts []*domain.Alert
	for id := range newSet {
		if _, was := oldSet[id]; was {
			continue
		}
		f := byID[id]
		if !f.AlertOnEntry {
			continue
		}
		alerts = append(alerts, g.transitionAlert(f, assetID, lat, lon, ts, domain.GeofenceEntry))
	}
	for id := range oldSet {
		if _, still := newSet[id]; still {
			continue
		}
		f, ok := byID[id]
		if !ok || !f.AlertOnExit {
			continue
		}
		alerts = append(alerts, g.transitionAlert(f, assetID, lat, lon, ts, domain.GeofenceExit))
	}

	for _, alert := range alerts {
		if err := g.alerts.PublishAlert(ctx, alert); err != nil {
			log.Printf("publish geofence alert for %s: %v", assetID, err)
		}
	}
	return alerts
}

func (g *GeofenceProcessor) transitionAlert(f domain.Geofence, assetID string, lat, lon float64, ts time.Time, event domain.GeofenceEventType) *domain.Alert {
	severity := domain.SeverityInfo
	verb := "entered"
	if event == domain.GeofenceExit {
		severity = domain.SeverityWarning
		verb = "exited"
	}

	alert := domain.NewAlert(domain.AlertGeofence, severity, assetID,
		fmt.Sprintf("Asset %s %s geofence %q", assetID, verb, f.Name))
	alert.Lat = &lat
	alert.Lon = &lon
	alert.Timestamp = ts
	alert.AutoResolvable = event == domain.GeofenceEntry
	alert.Metadata = map[string]string{
		"geofence_id":    f.ID,
		"event":          string(event),
		"classification": string(f.Classification),
	}
	return alert
}

// contains fails closed: a malformed boundary never counts as containing the
// point, so one bad fence cannot block evaluation of the rest.
func contains(f domain.Geofence, lat, lon float64) bool {
	switch f.Type {
	case domain.GeofenceCircular:
		if f.RadiusMeters <= 0 {
			return false
		}
		return geo.InCircle(lat, lon, f.CenterLat, f.CenterLon, f.RadiusMeters)
	case domain.GeofencePolygon:
		if len(f.Vertices) < 3 {
			return false
		}
		return geo.PointInPolygon(lat, lon, f.Vertices)
	default:
		return false
	}
}
