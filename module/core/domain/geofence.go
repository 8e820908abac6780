package domain

type GeofenceType string

const (
	GeofenceCircular GeofenceType = "circular"
	GeofencePolygon  GeofenceType = "polygon"
)

type GeofenceClassification string

const (
	GeofenceAuthorized GeofenceClassification = "authorized"
	GeofenceRestricted GeofenceClassification = "restricted"
)

// Geofence is an authorization or restriction boundary. For circular fences
// Center*/Radius are meaningful; for polygon fences Vertices is meaningful.
// Vertices are [lat, lon] pairs, implicitly closed.
type Geofence struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Type           GeofenceType           `json:"type"`
	CenterLat      float64                `json:"center_latitude,omitempty"`
	CenterLon      float64                `json:"center_longitude,omitempty"`
	RadiusMeters   float64                `json:"radius_meters,omitempty"`
	Vertices       [][2]float64           `json:"vertices,omitempty"`
	Classification GeofenceClassification `json:"classification"`
	AlertOnEntry   bool                   `json:"alert_on_entry"`
	AlertOnExit    bool                   `json:"alert_on_exit"`
	SiteID         string                 `json:"site_id,omitempty"`
}

type GeofenceEventType string

const (
	GeofenceEntry GeofenceEventType = "geofence_entry"
	GeofenceExit  GeofenceEventType = "geofence_exit"
)

type GeofenceEvent struct {
	AssetID    string            `json:"asset_id"`
	GeofenceID string            `json:"geofence_id"`
	Event      GeofenceEventType `json:"event"`
	Lat        float64           `json:"latitude"`
	Lon        float64           `json:"longitude"`
	Timestamp  int64             `json:"timestamp"`
}
