package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database"
)

const (
	bufferCapacity  = 10
	minObservations = 3
	flushInterval   = time.Second
	maxInFlight     = 10
)

// LocationConsumer receives every published estimate. Consumers must tolerate
// concurrent calls for different assets.
type LocationConsumer interface {
	OnLocation(ctx context.Context, loc *domain.EstimatedLocation)
}

// LocationProcessor absorbs the raw observation stream into per-asset ring
// buffers and periodically flushes assets with enough signal through the
// estimator, fanning processing out across a bounded worker set. Delivery is
// at-most-once: observations dropped during gateway resolution are not
// retried.
type LocationProcessor struct {
	estimator *LocationEstimator
	gateways  database.GatewayRegistry
	consumers []LocationConsumer

	mu      sync.Mutex
	buffers map[string][]domain.RawObservation

	sem  chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewLocationProcessor(estimator *LocationEstimator, gateways database.GatewayRegistry, consumers ...LocationConsumer) *LocationProcessor {
	return &LocationProcessor{
		estimator: estimator,
		gateways:  gateways,
		consumers: consumers,
		buffers:   make(map[string][]domain.RawObservation),
		sem:       make(chan struct{}, maxInFlight),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Ingest appends an observation to the asset's buffer, evicting the oldest
// entry when the buffer is full.
func (p *LocationProcessor) Ingest(obs domain.RawObservation) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf := append(p.buffers[obs.AssetTagID], obs)
	if len(buf) > bufferCapacity {
		buf = buf[len(buf)-bufferCapacity:]
	}
	p.buffers[obs.AssetTagID] = buf
}

// Start launches the flush loop. A tick never overlaps the previous one:
// the loop waits for all in-flight asset workers before sleeping again.
func (p *LocationProcessor) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.Flush(ctx)
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the flush loop and waits for the in-flight tick to finish.
func (p *LocationProcessor) Stop() {
	close(p.stop)
	<-p.done
}

// Flush drains every buffer holding at least minObservations entries and
// processes the drained assets in parallel, returning once all have
// completed.
func (p *LocationProcessor) Flush(ctx context.Context) {
	batches := p.drainReady()
	if len(batches) == 0 {
		return
	}

	var wg sync.WaitGroup
	for assetID, raw := range batches {
		wg.Add(1)
		p.sem <- struct{}{}
		go func(assetID string, raw []domain.RawObservation) {
			defer wg.Done()
			defer func() { <-p.sem }()
			p.processAsset(ctx, assetID, raw)
		}(assetID, raw)
	}
	wg.Wait()
}

func (p *LocationProcessor) drainReady() map[string][]domain.RawObservation {
	p.mu.Lock()
	defer p.mu.Unlock()

	batches := make(map[string][]domain.RawObservation)
	for assetID, buf := range p.buffers {
		if len(buf) >= minObservations {
			batches[assetID] = buf
			delete(p.buffers, assetID)
		}
	}
	return batches
}

func (p *LocationProcessor) processAsset(ctx context.Context, assetID string, raw []domain.RawObservation) {
	observations := make([]*domain.GatewayObservation, 0, len(raw))
	for _, r := range raw {
		gw, err := p.gateways.Resolve(ctx, r.GatewayID)
		if err != nil {
			log.Printf("asset %s: dropping observation from gateway %s: %v", assetID, r.GatewayID, err)
			continue
		}
		obs, err := domain.NewGatewayObservation(gw.GatewayID, gw.Lat, gw.Lon, r.RSSI, r.Timestamp)
		if err != nil {
			log.Printf("asset %s: invalid observation from gateway %s: %v", assetID, r.GatewayID, err)
			continue
		}
		obs.BatteryLevel = r.BatteryLevel
		obs.Temperature = r.Temperature
		observations = append(observations, obs)
	}

	if len(observations) < minObservations {
		log.Printf("asset %s: only %d of %d observations resolvable, skipping this tick", assetID, len(observations), len(raw))
		return
	}

	loc := p.estimator.Estimate(assetID, observations)
	for _, c := range p.consumers {
		c.OnLocation(ctx, loc)
	}
}

// BufferedCount reports how many observations are waiting for the asset.
func (p *LocationProcessor) BufferedCount(assetID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffers[assetID])
}
