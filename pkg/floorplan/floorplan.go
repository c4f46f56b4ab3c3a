// Package floorplan converts between the coordinate spaces a campus map
// deals with (image pixels, on-screen display coordinates, GPS) and the
// canonical normalized image space used by the rest of the system, where
// x and y both run 0..1 and y grows downward.
package floorplan

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// ErrNoDimensions is returned when the floor-plan image's natural
// dimensions are not known yet.
var ErrNoDimensions = errors.New("natural image dimensions unknown")

// ErrUnmapped is returned when a position falls outside the calibrated
// campus area.
var ErrUnmapped = errors.New("position outside mapped area")

// GeoPoint is a GPS fix.
type GeoPoint struct {
	Lat float64 `toml:"lat" json:"lat"`
	Lon float64 `toml:"lon" json:"lon"`
}

// Calibration ties the floor-plan image to the physical campus: the
// image's natural pixel dimensions, a GPS fix for each image corner, and
// the real-world scale of one pixel.
//
// The four corners are treated as a rectangle for bilinear interpolation.
// If the surveyed corners are not affinely consistent the interpolation
// is an approximation; that error is accepted, not corrected.
type Calibration struct {
	NaturalWidth  float64 `toml:"natural_width" json:"naturalWidth"`
	NaturalHeight float64 `toml:"natural_height" json:"naturalHeight"`

	TopLeft     GeoPoint `toml:"top_left" json:"topLeft"`
	TopRight    GeoPoint `toml:"top_right" json:"topRight"`
	BottomLeft  GeoPoint `toml:"bottom_left" json:"bottomLeft"`
	BottomRight GeoPoint `toml:"bottom_right" json:"bottomRight"`

	FeetPerPixel float64 `toml:"feet_per_pixel" json:"feetPerPixel"`
}

// Viewport describes how the image is presented on screen: an
// object-contain fit inside a container, then zoomed and panned.
type Viewport struct {
	ContainerWidth  float64
	ContainerHeight float64
	Zoom            float64
	PanX            float64
	PanY            float64
}

// FromPixel converts natural-pixel coordinates to normalized image space.
func (c Calibration) FromPixel(x, y float64) (orb.Point, error) {
	if c.NaturalWidth <= 0 || c.NaturalHeight <= 0 {
		return orb.Point{}, ErrNoDimensions
	}
	nx := x / c.NaturalWidth
	ny := y / c.NaturalHeight
	if nx < 0 || nx > 1 || ny < 0 || ny > 1 {
		return orb.Point{}, ErrUnmapped
	}
	return orb.Point{nx, ny}, nil
}

// ToPixel converts a normalized point back to natural-pixel coordinates.
func (c Calibration) ToPixel(p orb.Point) (x, y float64, err error) {
	if c.NaturalWidth <= 0 || c.NaturalHeight <= 0 {
		return 0, 0, ErrNoDimensions
	}
	return p[0] * c.NaturalWidth, p[1] * c.NaturalHeight, nil
}

// FromDisplay converts on-screen coordinates to normalized image space by
// undoing the viewport transform: remove the letterbox offset and the
// combined contain/zoom scale first, then normalize the recovered pixel
// coordinates.
func (c Calibration) FromDisplay(x, y float64, vp Viewport) (orb.Point, error) {
	if c.NaturalWidth <= 0 || c.NaturalHeight <= 0 {
		return orb.Point{}, ErrNoDimensions
	}
	if vp.ContainerWidth <= 0 || vp.ContainerHeight <= 0 {
		return orb.Point{}, ErrUnmapped
	}

	zoom := vp.Zoom
	if zoom == 0 {
		zoom = 1
	}

	// object-contain: the image is scaled by the smaller ratio and
	// centered, leaving letterbox bars on the other axis.
	scale := math.Min(vp.ContainerWidth/c.NaturalWidth, vp.ContainerHeight/c.NaturalHeight) * zoom
	offsetX := (vp.ContainerWidth-c.NaturalWidth*scale)/2 + vp.PanX
	offsetY := (vp.ContainerHeight-c.NaturalHeight*scale)/2 + vp.PanY

	return c.FromPixel((x-offsetX)/scale, (y-offsetY)/scale)
}

// GeoBounds returns the lon/lat bounding box of the calibrated corners.
func (c Calibration) GeoBounds() orb.Bound {
	b := orb.Bound{
		Min: orb.Point{c.TopLeft.Lon, c.TopLeft.Lat},
		Max: orb.Point{c.TopLeft.Lon, c.TopLeft.Lat},
	}
	for _, g := range []GeoPoint{c.TopRight, c.BottomLeft, c.BottomRight} {
		b = b.Extend(orb.Point{g.Lon, g.Lat})
	}
	return b
}

// FromGeo converts a GPS fix to normalized image space by bilinear
// interpolation against the four calibrated corners. Latitude grows
// upward while image y grows downward, so y = 1 - latitude factor.
// Fixes outside the calibrated bounds return ErrUnmapped rather than a
// clamped guess, so callers can tell the user their position is unmapped.
func (c Calibration) FromGeo(g GeoPoint) (orb.Point, error) {
	if !c.Calibrated() {
		return orb.Point{}, ErrUnmapped
	}
	if !c.GeoBounds().Contains(orb.Point{g.Lon, g.Lat}) {
		return orb.Point{}, ErrUnmapped
	}

	topLat, bottomLat, leftLon, rightLon := c.edgeAverages()
	latFactor := clamp01((g.Lat - bottomLat) / (topLat - bottomLat))
	lonFactor := clamp01((g.Lon - leftLon) / (rightLon - leftLon))

	return orb.Point{lonFactor, 1 - latFactor}, nil
}

// edgeAverages collapses the four corners into the averaged edge
// latitudes/longitudes the bilinear interpolation divides by.
func (c Calibration) edgeAverages() (topLat, bottomLat, leftLon, rightLon float64) {
	topLat = (c.TopLeft.Lat + c.TopRight.Lat) / 2
	bottomLat = (c.BottomLeft.Lat + c.BottomRight.Lat) / 2
	leftLon = (c.TopLeft.Lon + c.BottomLeft.Lon) / 2
	rightLon = (c.TopRight.Lon + c.BottomRight.Lon) / 2
	return
}

// Calibrated reports whether the four GPS corners have been surveyed and
// span a usable area. The averaged edge values must differ, since those
// are the interpolation divisors: skewed corners whose averages coincide
// would otherwise divide by zero.
func (c Calibration) Calibrated() bool {
	corners := []GeoPoint{c.TopLeft, c.TopRight, c.BottomLeft, c.BottomRight}
	for _, g := range corners {
		if g.Lat == 0 && g.Lon == 0 {
			return false
		}
	}
	topLat, bottomLat, leftLon, rightLon := c.edgeAverages()
	return topLat != bottomLat && leftLon != rightLon
}

// FeetBetween measures the real-world distance between two normalized
// points, via natural-pixel space and the calibrated pixel scale.
func (c Calibration) FeetBetween(a, b orb.Point) float64 {
	dx := (b[0] - a[0]) * c.NaturalWidth
	dy := (b[1] - a[1]) * c.NaturalHeight
	return math.Sqrt(dx*dx+dy*dy) * c.FeetPerPixel
}

// MigrateLegacyPoint converts a point from a legacy dataset that stored
// absolute pixel coordinates without a coordinateSystem marker. The point
// is normalized against the current image dimensions and clamped to [0,1].
func (c Calibration) MigrateLegacyPoint(x, y float64) (orb.Point, error) {
	if c.NaturalWidth <= 0 || c.NaturalHeight <= 0 {
		return orb.Point{}, ErrNoDimensions
	}
	return orb.Point{clamp01(x / c.NaturalWidth), clamp01(y / c.NaturalHeight)}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
