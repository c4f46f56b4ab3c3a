// Package graph holds the in-memory navigation model for one floor plan:
// waypoints, rooms, and the manually authored paths between them.
package graph

import "github.com/paulmach/orb"

// Kind classifies a waypoint.
type Kind string

const (
	KindCorridor    Kind = "corridor"
	KindJunction    Kind = "junction"
	KindEntrance    Kind = "entrance"
	KindRoom        Kind = "room"
	KindDestination Kind = "destination"
)

// IsValid reports whether k is a known waypoint kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindCorridor, KindJunction, KindEntrance, KindRoom, KindDestination:
		return true
	default:
		return false
	}
}

// Waypoint is a graph node used purely for routing. Coordinates are
// normalized image space (0..1, y down).
type Waypoint struct {
	ID   string
	Name string
	At   orb.Point
	Kind Kind
}

// Room is a selectable origin or destination. Rooms are not graph nodes;
// they attach to the graph via a spur path or nearest-waypoint anchoring.
type Room struct {
	ID   string
	Name string
	At   orb.Point
}

// Path is an authored edge. WaypointA is always set. Exactly one of
// WaypointB (a bidirectional waypoint-waypoint edge) or RoomB (a spur
// that anchors a room to WaypointA) is set.
type Path struct {
	ID        string
	WaypointA string
	WaypointB string
	RoomB     string
}
