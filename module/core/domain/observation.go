package domain

import (
	"fmt"
	"time"
)

// GatewayObservation is a single RSSI reading of an asset tag as seen by a
// fixed gateway, with the gateway's position already resolved. Immutable once
// built.
type GatewayObservation struct {
	GatewayID    string    `json:"gateway_id"`
	Lat          float64   `json:"latitude"`
	Lon          float64   `json:"longitude"`
	RSSI         int       `json:"rssi"`
	Timestamp    time.Time `json:"timestamp"`
	BatteryLevel *float64  `json:"battery_level,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
}

func NewGatewayObservation(gatewayID string, lat, lon float64, rssi int, ts time.Time) (*GatewayObservation, error) {
	if gatewayID == "" {
		return nil, fmt.Errorf("gateway_id: required")
	}
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude: must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("longitude: must be between -180 and 180")
	}
	if rssi > 0 {
		return nil, fmt.Errorf("rssi: must be negative dBm, got %d", rssi)
	}
	if ts.IsZero() {
		return nil, fmt.Errorf("timestamp: required")
	}
	return &GatewayObservation{
		GatewayID: gatewayID,
		Lat:       lat,
		Lon:       lon,
		RSSI:      rssi,
		Timestamp: ts,
	}, nil
}

// RawObservation is an observation as it arrives from ingestion, before the
// reporting gateway has been resolved to a position.
type RawObservation struct {
	AssetTagID   string    `json:"asset_tag_id"`
	GatewayID    string    `json:"gateway_id"`
	RSSI         int       `json:"rssi"`
	BatteryLevel *float64  `json:"battery_level,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
