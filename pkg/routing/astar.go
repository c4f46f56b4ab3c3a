// Package routing finds walking routes over the navigation graph and
// composes them into polylines the directions generator can consume.
package routing

import (
	"errors"
	"fmt"

	"campusnav/pkg/geo"
	"campusnav/pkg/graph"
)

// ErrNoRoute is returned when no path connects the resolved anchors, or
// when the search safety cap is exceeded.
var ErrNoRoute = errors.New("no route found")

// FindPath runs A* over the snapshot from startID to endID and returns
// the waypoint sequence, inclusive of both endpoints. Edge cost and
// heuristic are both Euclidean distance in normalized space, so the
// heuristic never overestimates and the result is minimal-cost.
func FindPath(snap *graph.Snapshot, startID, endID string) ([]graph.Waypoint, error) {
	start, ok := snap.Waypoint(startID)
	if !ok {
		return nil, fmt.Errorf("%w: waypoint %s", graph.ErrNotFound, startID)
	}
	end, ok := snap.Waypoint(endID)
	if !ok {
		return nil, fmt.Errorf("%w: waypoint %s", graph.ErrNotFound, endID)
	}
	if startID == endID {
		return []graph.Waypoint{start}, nil
	}

	gScore := map[string]float64{startID: 0}
	cameFrom := map[string]string{}
	closed := map[string]bool{}

	var open minHeap
	pushSeq := 0
	open.Push(startID, geo.Dist(start.At, end.At), pushSeq)

	// Terminate even on a malformed graph: no search over n nodes needs
	// more than n² pops.
	n := snap.NumWaypoints()
	maxIterations := n * n

	for iterations := 0; open.Len() > 0; iterations++ {
		if iterations >= maxIterations {
			return nil, ErrNoRoute
		}

		current := open.Pop().node
		if current == endID {
			return reconstruct(snap, cameFrom, endID), nil
		}
		if closed[current] {
			continue // stale entry
		}
		closed[current] = true

		cw, _ := snap.Waypoint(current)
		for _, neighborID := range snap.Neighbors(current) {
			if closed[neighborID] {
				continue
			}
			nw, _ := snap.Waypoint(neighborID)
			tentative := gScore[current] + geo.Dist(cw.At, nw.At)
			if best, seen := gScore[neighborID]; seen && tentative >= best {
				continue
			}
			gScore[neighborID] = tentative
			cameFrom[neighborID] = current
			pushSeq++
			open.Push(neighborID, tentative+geo.Dist(nw.At, end.At), pushSeq)
		}
	}

	return nil, ErrNoRoute
}

// PathCost sums the Euclidean edge costs of a waypoint sequence.
func PathCost(nodes []graph.Waypoint) float64 {
	var total float64
	for i := 0; i < len(nodes)-1; i++ {
		total += geo.Dist(nodes[i].At, nodes[i+1].At)
	}
	return total
}

func reconstruct(snap *graph.Snapshot, cameFrom map[string]string, endID string) []graph.Waypoint {
	var ids []string
	for id := endID; ; {
		ids = append(ids, id)
		prev, ok := cameFrom[id]
		if !ok {
			break
		}
		id = prev
	}
	// Reverse into start → end order.
	nodes := make([]graph.Waypoint, len(ids))
	for i, id := range ids {
		w, _ := snap.Waypoint(id)
		nodes[len(ids)-1-i] = w
	}
	return nodes
}
