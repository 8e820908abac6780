// Package geo holds the pure geometry and signal-propagation math used by
// location estimation and geofence evaluation. Nothing in here keeps state.
package geo

import "math"

const earthRadiusMeters = 6371000

const (
	// Log-distance path-loss inversion bounds. Estimates outside this range
	// carry no useful information for indoor/yard-scale BLE gateways.
	minDistanceMeters = 0.1
	maxDistanceMeters = 1000

	// Returned when the path-loss model cannot be inverted (zero exponent,
	// non-finite intermediate).
	fallbackDistanceMeters = 50
)

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// HaversineDistance returns the great-circle distance between two points in
// meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Bearing returns the initial bearing from point 1 to point 2 in degrees,
// normalized to [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLon := toRad(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	deg := toDeg(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// RSSIToDistance inverts the log-distance path-loss model
//
//	rssi = referencePower - 10*n*log10(d/referenceDistance)
//
// returning an estimated distance in meters clamped to
// [0.1, 1000]. A zero path-loss exponent or a non-finite result yields the
// 50 m fallback.
func RSSIToDistance(rssi int, referenceDistance, referencePower, pathLossExponent float64) float64 {
	if pathLossExponent == 0 {
		return fallbackDistanceMeters
	}
	exp := (referencePower - float64(rssi)) / (10 * pathLossExponent)
	d := referenceDistance * math.Pow(10, exp)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return fallbackDistanceMeters
	}
	if d < minDistanceMeters {
		return minDistanceMeters
	}
	if d > maxDistanceMeters {
		return maxDistanceMeters
	}
	return d
}

// RSSIToWeight maps an RSSI reading to a weight for position averaging.
// RSSI is normalized from [-100, -30] dBm into [0, 1] and the weight is
// 10^(2*normalized), so strong signals dominate super-linearly.
func RSSIToWeight(rssi int) float64 {
	normalized := (float64(rssi) + 100) / 70
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}
	return math.Pow(10, 2*normalized)
}

// PointInPolygon reports whether (lat, lon) falls inside the polygon given as
// [lat, lon] vertex pairs, implicitly closed. Ray casting; points on an edge
// or vertex count as inside. The crossing accumulator starts at -Inf so a
// leading horizontal edge can never toggle on an unset intersection.
func PointInPolygon(lat, lon float64, vertices [][2]float64) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	if onPolygonBoundary(lat, lon, vertices) {
		return true
	}

	inside := false
	xinters := math.Inf(-1)

	p1x, p1y := vertices[0][0], vertices[0][1]
	for i := 1; i <= n; i++ {
		p2x, p2y := vertices[i%n][0], vertices[i%n][1]
		if lon > math.Min(p1y, p2y) && lon <= math.Max(p1y, p2y) && lat <= math.Max(p1x, p2x) {
			if p1y != p2y {
				xinters = (lon-p1y)*(p2x-p1x)/(p2y-p1y) + p1x
			}
			if p1x == p2x || lat <= xinters {
				inside = !inside
			}
		}
		p1x, p1y = p2x, p2y
	}
	return inside
}

const boundaryEpsilon = 1e-9

func onPolygonBoundary(lat, lon float64, vertices [][2]float64) bool {
	n := len(vertices)
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		if onSegment(lat, lon, a[0], a[1], b[0], b[1]) {
			return true
		}
	}
	return false
}

func onSegment(px, py, ax, ay, bx, by float64) bool {
	cross := (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	if math.Abs(cross) > boundaryEpsilon {
		return false
	}
	return px >= math.Min(ax, bx)-boundaryEpsilon && px <= math.Max(ax, bx)+boundaryEpsilon &&
		py >= math.Min(ay, by)-boundaryEpsilon && py <= math.Max(ay, by)+boundaryEpsilon
}

// InCircle reports whether (lat, lon) lies within radiusMeters of the center.
func InCircle(lat, lon, centerLat, centerLon, radiusMeters float64) bool {
	return HaversineDistance(lat, lon, centerLat, centerLon) <= radiusMeters
}
