package domain

import "time"

// AssetSnapshot is the transient per-asset view the rules engine evaluates.
// It is assembled by the caller from current state; the engine keeps none of it.
type AssetSnapshot struct {
	AssetID          string
	BatteryLevel     *float64
	LastSeen         time.Time
	MovementMeters   float64
	MovedAt          time.Time
	InRestrictedZone bool
	ExitedAuthorized bool
	MaintenanceDue   *time.Time
	Now              time.Time
}
