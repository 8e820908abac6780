package domain

import "time"

type Algorithm string

const (
	AlgorithmSingleGateway Algorithm = "single_gateway"
	AlgorithmMidpoint      Algorithm = "midpoint"
	AlgorithmTrilateration Algorithm = "trilateration"
	AlgorithmLastKnown     Algorithm = "last_known"
	AlgorithmDefault       Algorithm = "default"
)

// EstimatedLocation is the output of one location estimation for an asset.
// UncertaintyRadius is always set and non-negative; Confidence is 0-100.
type EstimatedLocation struct {
	AssetID           string    `json:"asset_id"`
	Lat               float64   `json:"latitude"`
	Lon               float64   `json:"longitude"`
	Altitude          *float64  `json:"altitude,omitempty"`
	UncertaintyRadius float64   `json:"uncertainty_radius"`
	Confidence        float64   `json:"confidence"`
	Algorithm         Algorithm `json:"algorithm"`
	Timestamp         time.Time `json:"timestamp"`

	GatewayCount int      `json:"gateway_count"`
	GatewayIDs   []string `json:"gateway_ids,omitempty"`

	// Movement relative to the previous fix, unset on first sight.
	SpeedMps     *float64 `json:"speed_mps,omitempty"`
	Bearing      *float64 `json:"bearing,omitempty"`
	DistanceFrom *float64 `json:"distance_from_previous,omitempty"`

	SignalQuality *float64 `json:"signal_quality,omitempty"`
	RSSIVariance  *float64 `json:"rssi_variance,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

type HistoryQuery struct {
	AssetID string
	Start   time.Time
	End     time.Time
}

type Asset struct {
	AssetID string `json:"asset_id"`
}
