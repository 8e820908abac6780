package domain

import (
	"time"

	"github.com/google/uuid"
)

type AlertType string

const (
	AlertGeofence         AlertType = "geofence"
	AlertAnomaly          AlertType = "anomaly_detection"
	AlertBatteryLow       AlertType = "battery_low"
	AlertBatteryCritical  AlertType = "battery_critical"
	AlertOffline          AlertType = "offline"
	AlertUnauthorizedZone AlertType = "unauthorized_zone_entry"
	AlertAuthorizedExit   AlertType = "authorized_zone_exit"
	AlertTheft            AlertType = "theft_detection"
	AlertUnderutilized    AlertType = "underutilization"
	AlertMaintenanceDue   AlertType = "maintenance_overdue"
)

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is an alert as constructed by the core. Persistence, notification and
// broadcast happen downstream; the core never mutates an alert after creation.
type Alert struct {
	ID              string            `json:"id"`
	Type            AlertType         `json:"type"`
	Severity        AlertSeverity     `json:"severity"`
	AssetID         string            `json:"asset_id"`
	Message         string            `json:"message"`
	Description     string            `json:"description,omitempty"`
	SuggestedAction string            `json:"suggested_action,omitempty"`
	Lat             *float64          `json:"latitude,omitempty"`
	Lon             *float64          `json:"longitude,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
	AutoResolvable  bool              `json:"auto_resolvable"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

func NewAlert(t AlertType, severity AlertSeverity, assetID, message string) *Alert {
	return &Alert{
		ID:        uuid.NewString(),
		Type:      t,
		Severity:  severity,
		AssetID:   assetID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}
