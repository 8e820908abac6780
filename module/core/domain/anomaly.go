package domain

import "time"

// FeatureVector is the per-asset feature snapshot the anomaly scorer consumes.
type FeatureVector struct {
	AssetID          string    `json:"asset_id"`
	AvgSpeedMps      float64   `json:"avg_speed_mps"`
	DistanceLast24h  float64   `json:"distance_last_24h"`
	GeofenceEvents   int       `json:"geofence_events"`
	ObservationCount int       `json:"observation_count"`
	AvgRSSI          float64   `json:"avg_rssi"`
	BatteryLevel     float64   `json:"battery_level"`
	LastSeen         time.Time `json:"last_seen"`
}

// AssetBaseline is the learned normal-behavior profile for an asset.
type AssetBaseline struct {
	AssetID         string   `json:"asset_id"`
	MeanSpeedMps    float64  `json:"mean_speed_mps"`
	MeanDailyMeters float64  `json:"mean_daily_meters"`
	StdDailyMeters  float64  `json:"std_daily_meters"`
	TypicalSites    []string `json:"typical_sites,omitempty"`
	SampleDays      int      `json:"sample_days"`
}

// AnomalyScore is what the external scorer returns for one asset.
type AnomalyScore struct {
	AssetID     string  `json:"asset_id"`
	Score       float64 `json:"anomaly_score"`
	IsAnomalous bool    `json:"is_anomalous"`
	Confidence  float64 `json:"confidence"`
}
