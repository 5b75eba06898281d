package domain

import "math"

// RadialConstraint restricts results to a distance band around a point.
// Radii are in degrees of great-circle arc, matching the FDSN radial
// parameter convention.
type RadialConstraint struct {
	Latitude  float64
	Longitude float64
	MinRadius *float64
	MaxRadius *float64
}

// GreatCircleDeg returns the great-circle distance between two points in
// degrees of arc, computed with the haversine formula.
func GreatCircleDeg(lat1, lon1, lat2, lon2 float64) float64 {
	const deg2rad = math.Pi / 180

	phi1 := lat1 * deg2rad
	phi2 := lat2 * deg2rad
	dPhi := (lat2 - lat1) * deg2rad
	dLambda := (lon2 - lon1) * deg2rad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(a))) / deg2rad
}

// Matches reports whether a point lies inside the constraint's band.
func (c *RadialConstraint) Matches(p Point) bool {
	d := GreatCircleDeg(c.Latitude, c.Longitude, p.Latitude, p.Longitude)
	if c.MinRadius != nil && d < *c.MinRadius {
		return false
	}
	if c.MaxRadius != nil && d > *c.MaxRadius {
		return false
	}
	return true
}

// FilterByRadius returns the records inside the constraint's band,
// preserving order. Records without geometry are dropped whenever a
// constraint is active; a nil constraint keeps everything.
func FilterByRadius(records []IndexRecord, c *RadialConstraint) []IndexRecord {
	if c == nil {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if r.Geometry == nil {
			continue
		}
		if c.Matches(*r.Geometry) {
			out = append(out, r)
		}
	}
	return out
}
