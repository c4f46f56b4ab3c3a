package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Dist returns the Euclidean distance between two points in normalized
// image space.
func Dist(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// PointToSegmentDist computes the distance from point P to segment AB,
// and returns the projection ratio along AB (clamped to [0,1]).
func PointToSegmentDist(p, a, b orb.Point) (dist float64, ratio float64) {
	if a == b {
		return planar.Distance(p, a), 0
	}

	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy

	// Project P onto line AB, clamp to [0,1].
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := orb.Point{a[0] + t*dx, a[1] + t*dy}
	return planar.Distance(p, closest), t
}

// Bearing returns the direction of travel from a to b in degrees,
// measured clockwise from image-up. Image y grows downward, so 0° points
// toward the top of the image, 90° toward the right edge.
func Bearing(a, b orb.Point) float64 {
	deg := math.Atan2(b[0]-a[0], -(b[1]-a[1])) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// TurnAngle returns the signed angle from a facing bearing to a new
// bearing, normalized into (-180, 180]. Positive is a clockwise (right)
// turn, negative counter-clockwise (left).
func TurnAngle(facing, bearing float64) float64 {
	d := math.Mod(bearing-facing, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
