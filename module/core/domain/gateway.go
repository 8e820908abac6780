package domain

// Gateway is a fixed BLE gateway as known to the gateway registry.
type Gateway struct {
	GatewayID    string   `json:"gateway_id"`
	Lat          float64  `json:"latitude"`
	Lon          float64  `json:"longitude"`
	BatteryLevel *float64 `json:"battery_level,omitempty"`
	Status       string   `json:"status,omitempty"`
}
