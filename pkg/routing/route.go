package routing

import (
	"github.com/paulmach/orb"

	"campusnav/pkg/graph"
)

// PointKind tags a RoutePoint with where it came from.
type PointKind string

const (
	PointWaypoint    PointKind = "waypoint"
	PointRoom        PointKind = "room"
	PointCurrent     PointKind = "current"
	PointDestination PointKind = "destination"
)

// RoutePoint is one point of a composed route polyline.
type RoutePoint struct {
	ID   string
	Name string
	At   orb.Point
	Kind PointKind
}

// Route is the transient result of one routing request. It is replaced
// wholesale on recomputation, never patched.
type Route struct {
	Points []RoutePoint

	// Seq orders concurrent requests; a result with a lower Seq than one
	// already applied is stale and must be dropped.
	Seq uint64

	// Generation is the graph generation the route was computed against.
	Generation uint64
}

func waypointPoint(w graph.Waypoint) RoutePoint {
	return RoutePoint{ID: w.ID, Name: w.Name, At: w.At, Kind: PointWaypoint}
}
