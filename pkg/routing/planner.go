package routing

import (
	"fmt"
	"sync/atomic"

	"github.com/paulmach/orb"

	"campusnav/pkg/graph"
)

// Endpoint identifies where a route starts or ends: a room, an explicit
// waypoint, or a free position such as the user's current location.
// Exactly one of RoomID, WaypointID, or At should be set.
type Endpoint struct {
	RoomID     string
	WaypointID string
	At         *orb.Point
	Name       string // label for free positions
}

// Planner resolves endpoints against the graph and runs route requests.
type Planner struct {
	g   *graph.Graph
	seq atomic.Uint64
}

// NewPlanner creates a planner over the given graph.
func NewPlanner(g *graph.Graph) *Planner {
	return &Planner{g: g}
}

// Route computes a route between two endpoints. The search runs over a
// snapshot taken at call time, so graph edits made while a search is in
// flight never corrupt it.
func (p *Planner) Route(start, end Endpoint) (*Route, error) {
	startPoint, startAnchor, err := p.resolve(start)
	if err != nil {
		return nil, err
	}
	endPoint, endAnchor, err := p.resolve(end)
	if err != nil {
		return nil, err
	}

	snap := p.g.Snapshot()
	nodes, err := FindPath(snap, startAnchor.ID, endAnchor.ID)
	if err != nil {
		return nil, err
	}

	points, err := Compose(startPoint, startAnchor, nodes, endPoint, endAnchor)
	if err != nil {
		return nil, err
	}

	return &Route{
		Points:     points,
		Seq:        p.seq.Add(1),
		Generation: snap.Generation(),
	}, nil
}

// resolve turns an endpoint into its polyline point and its graph anchor.
// For rooms, a manually authored spur path always takes precedence over
// nearest-waypoint guessing; free positions anchor to the nearest
// waypoint.
func (p *Planner) resolve(ep Endpoint) (RoutePoint, graph.Waypoint, error) {
	switch {
	case ep.WaypointID != "":
		w, ok := p.g.Waypoint(ep.WaypointID)
		if !ok {
			return RoutePoint{}, graph.Waypoint{}, fmt.Errorf("%w: waypoint %s", graph.ErrNotFound, ep.WaypointID)
		}
		return waypointPoint(w), w, nil

	case ep.RoomID != "":
		r, ok := p.g.Room(ep.RoomID)
		if !ok {
			return RoutePoint{}, graph.Waypoint{}, fmt.Errorf("%w: room %s", graph.ErrNotFound, ep.RoomID)
		}
		point := RoutePoint{ID: r.ID, Name: r.Name, At: r.At, Kind: PointRoom}
		if anchor, ok := p.g.SpurAnchor(r.ID); ok {
			return point, anchor, nil
		}
		anchor, ok := p.g.NearestWaypoint(r.At)
		if !ok {
			return RoutePoint{}, graph.Waypoint{}, ErrNoRoute
		}
		return point, anchor, nil

	case ep.At != nil:
		name := ep.Name
		if name == "" {
			name = "Current Location"
		}
		point := RoutePoint{ID: "current", Name: name, At: *ep.At, Kind: PointCurrent}
		anchor, ok := p.g.NearestWaypoint(*ep.At)
		if !ok {
			return RoutePoint{}, graph.Waypoint{}, ErrNoRoute
		}
		return point, anchor, nil

	default:
		return RoutePoint{}, graph.Waypoint{}, fmt.Errorf("%w: empty endpoint", graph.ErrInvalid)
	}
}
