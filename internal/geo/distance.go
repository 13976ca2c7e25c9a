package geo

import "math"

const earthRadiusMeters = 6371000

// Verification is the outcome of comparing a reported position against the
// service address.
type Verification struct {
	DistanceMeters float64
	Verified       bool
}

// Distance returns the great-circle distance in meters between two
// coordinates using the haversine formula.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Verify computes the distance between the service address and the reported
// position and compares it against maxMeters.
func Verify(serviceLat, serviceLng, actualLat, actualLng, maxMeters float64) Verification {
	d := Distance(serviceLat, serviceLng, actualLat, actualLng)
	return Verification{
		DistanceMeters: d,
		Verified:       d <= maxMeters,
	}
}

// ValidCoordinates reports whether lat/lng fall within the WGS84 domain.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
