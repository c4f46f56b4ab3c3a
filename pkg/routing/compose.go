package routing

import "campusnav/pkg/graph"

// Compose stitches the start point, the found waypoint path, and the end
// point into one polyline. The start point is suppressed when it
// coincides with its anchor waypoint (same ID or identical coordinates),
// avoiding a zero-length first segment. The end point is kept unless it
// IS the anchor, because the final step must still name the destination.
// An empty path is a failure: the composer never fabricates a two-point
// straight line where no route exists.
func Compose(start RoutePoint, startAnchor graph.Waypoint, nodes []graph.Waypoint, end RoutePoint, endAnchor graph.Waypoint) ([]RoutePoint, error) {
	if len(nodes) == 0 {
		return nil, ErrNoRoute
	}

	out := make([]RoutePoint, 0, len(nodes)+2)
	if start.ID != startAnchor.ID && start.At != startAnchor.At {
		out = append(out, start)
	}
	for _, w := range nodes {
		out = append(out, waypointPoint(w))
	}
	if end.ID != endAnchor.ID {
		end.Kind = PointDestination
		out = append(out, end)
	}
	return out, nil
}
