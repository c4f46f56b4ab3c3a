package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// ErrNotFound is returned when a referenced waypoint, room, or path does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an ID is already taken.
var ErrDuplicate = errors.New("already exists")

// ErrInvalid is returned for malformed input; the graph is unchanged.
var ErrInvalid = errors.New("invalid input")

// Graph owns the waypoints, rooms, and paths for the current map session.
// It is not safe for concurrent use; callers serialize access.
type Graph struct {
	waypoints map[string]*Waypoint
	rooms     map[string]*Room
	paths     map[string]*Path

	// adj holds waypoint-waypoint adjacency, both directions. Spur paths
	// are deliberately not part of it; the path finder looks them up via
	// SpurAnchor when resolving room endpoints.
	adj map[string][]string

	// spurs maps a room ID to the anchoring waypoint IDs of its spur
	// paths, in authoring order.
	spurs map[string][]string

	// pairs indexes paths by unordered endpoint pair for duplicate checks.
	pairs map[string]string

	index      rtree.RTreeG[string]
	generation uint64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		waypoints: make(map[string]*Waypoint),
		rooms:     make(map[string]*Room),
		paths:     make(map[string]*Path),
		adj:       make(map[string][]string),
		spurs:     make(map[string][]string),
		pairs:     make(map[string]string),
	}
}

// Generation increments on every successful mutation. Route results carry
// the generation they were computed against so stale results are detectable.
func (g *Graph) Generation() uint64 { return g.generation }

// AddWaypoint inserts a waypoint.
func (g *Graph) AddWaypoint(w Waypoint) error {
	if w.ID == "" {
		return fmt.Errorf("%w: waypoint id is empty", ErrInvalid)
	}
	if !w.Kind.IsValid() {
		return fmt.Errorf("%w: waypoint kind %q", ErrInvalid, w.Kind)
	}
	if err := validatePoint(w.At); err != nil {
		return fmt.Errorf("waypoint %s: %w", w.ID, err)
	}
	if _, ok := g.waypoints[w.ID]; ok {
		return fmt.Errorf("%w: waypoint %s", ErrDuplicate, w.ID)
	}
	g.waypoints[w.ID] = &w
	g.index.Insert([2]float64{w.At[0], w.At[1]}, [2]float64{w.At[0], w.At[1]}, w.ID)
	g.generation++
	return nil
}

// AddRoom inserts a room.
func (g *Graph) AddRoom(r Room) error {
	if r.ID == "" {
		return fmt.Errorf("%w: room id is empty", ErrInvalid)
	}
	if err := validatePoint(r.At); err != nil {
		return fmt.Errorf("room %s: %w", r.ID, err)
	}
	if _, ok := g.rooms[r.ID]; ok {
		return fmt.Errorf("%w: room %s", ErrDuplicate, r.ID)
	}
	g.rooms[r.ID] = &r
	g.generation++
	return nil
}

// RenameRoom changes a room's display name in place.
func (g *Graph) RenameRoom(id, name string) error {
	r, ok := g.rooms[id]
	if !ok {
		return fmt.Errorf("%w: room %s", ErrNotFound, id)
	}
	r.Name = name
	g.generation++
	return nil
}

// AddPath inserts an edge. Both endpoints must exist, and exactly one of
// WaypointB/RoomB must be set. A duplicate of an existing unordered pair
// is not an error; the existing path is returned unchanged.
func (g *Graph) AddPath(p Path) (Path, error) {
	if p.ID == "" {
		return Path{}, fmt.Errorf("%w: path id is empty", ErrInvalid)
	}
	if (p.WaypointB == "") == (p.RoomB == "") {
		return Path{}, fmt.Errorf("%w: path %s must set exactly one of waypointB/roomB", ErrInvalid, p.ID)
	}
	if _, ok := g.paths[p.ID]; ok {
		return Path{}, fmt.Errorf("%w: path %s", ErrDuplicate, p.ID)
	}
	if _, ok := g.waypoints[p.WaypointA]; !ok {
		return Path{}, fmt.Errorf("%w: waypoint %s", ErrNotFound, p.WaypointA)
	}

	var key string
	if p.WaypointB != "" {
		if _, ok := g.waypoints[p.WaypointB]; !ok {
			return Path{}, fmt.Errorf("%w: waypoint %s", ErrNotFound, p.WaypointB)
		}
		if p.WaypointA == p.WaypointB {
			return Path{}, fmt.Errorf("%w: path %s is a self-loop", ErrInvalid, p.ID)
		}
		key = pairKey(p.WaypointA, p.WaypointB)
	} else {
		if _, ok := g.rooms[p.RoomB]; !ok {
			return Path{}, fmt.Errorf("%w: room %s", ErrNotFound, p.RoomB)
		}
		key = pairKey(p.WaypointA, "room:"+p.RoomB)
	}

	if existingID, ok := g.pairs[key]; ok {
		return *g.paths[existingID], nil
	}

	g.paths[p.ID] = &p
	g.pairs[key] = p.ID
	if p.WaypointB != "" {
		g.adj[p.WaypointA] = append(g.adj[p.WaypointA], p.WaypointB)
		g.adj[p.WaypointB] = append(g.adj[p.WaypointB], p.WaypointA)
	} else {
		g.spurs[p.RoomB] = append(g.spurs[p.RoomB], p.WaypointA)
	}
	g.generation++
	return p, nil
}

// RemoveWaypoint deletes a waypoint and every path incident to it.
func (g *Graph) RemoveWaypoint(id string) error {
	w, ok := g.waypoints[id]
	if !ok {
		return fmt.Errorf("%w: waypoint %s", ErrNotFound, id)
	}
	for pathID, p := range g.paths {
		if p.WaypointA == id || p.WaypointB == id {
			g.removePath(pathID)
		}
	}
	delete(g.waypoints, id)
	delete(g.adj, id)
	g.index.Delete([2]float64{w.At[0], w.At[1]}, [2]float64{w.At[0], w.At[1]}, id)
	g.generation++
	return nil
}

// RemoveRoom deletes a room and any spur paths anchoring it. Callers
// holding a route that references the room are responsible for clearing it.
func (g *Graph) RemoveRoom(id string) error {
	if _, ok := g.rooms[id]; !ok {
		return fmt.Errorf("%w: room %s", ErrNotFound, id)
	}
	for pathID, p := range g.paths {
		if p.RoomB == id {
			g.removePath(pathID)
		}
	}
	delete(g.rooms, id)
	delete(g.spurs, id)
	g.generation++
	return nil
}

// RemovePath deletes a single path.
func (g *Graph) RemovePath(id string) error {
	if _, ok := g.paths[id]; !ok {
		return fmt.Errorf("%w: path %s", ErrNotFound, id)
	}
	g.removePath(id)
	g.generation++
	return nil
}

func (g *Graph) removePath(id string) {
	p := g.paths[id]
	delete(g.paths, id)
	if p.WaypointB != "" {
		delete(g.pairs, pairKey(p.WaypointA, p.WaypointB))
		g.adj[p.WaypointA] = removeID(g.adj[p.WaypointA], p.WaypointB)
		g.adj[p.WaypointB] = removeID(g.adj[p.WaypointB], p.WaypointA)
	} else {
		delete(g.pairs, pairKey(p.WaypointA, "room:"+p.RoomB))
		g.spurs[p.RoomB] = removeID(g.spurs[p.RoomB], p.WaypointA)
		if len(g.spurs[p.RoomB]) == 0 {
			delete(g.spurs, p.RoomB)
		}
	}
}

// Waypoint looks up a waypoint by ID.
func (g *Graph) Waypoint(id string) (Waypoint, bool) {
	w, ok := g.waypoints[id]
	if !ok {
		return Waypoint{}, false
	}
	return *w, true
}

// Room looks up a room by ID.
func (g *Graph) Room(id string) (Room, bool) {
	r, ok := g.rooms[id]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Neighbors returns the waypoints adjacent to id, in authoring order.
func (g *Graph) Neighbors(id string) []Waypoint {
	ids := g.adj[id]
	out := make([]Waypoint, 0, len(ids))
	for _, nid := range ids {
		out = append(out, *g.waypoints[nid])
	}
	return out
}

// SpurAnchor returns the anchoring waypoint of the room's first authored
// spur path, if one exists.
func (g *Graph) SpurAnchor(roomID string) (Waypoint, bool) {
	ids := g.spurs[roomID]
	if len(ids) == 0 {
		return Waypoint{}, false
	}
	return *g.waypoints[ids[0]], true
}

// NearestWaypoint returns the waypoint closest to p by Euclidean distance,
// or false if the graph has no waypoints.
func (g *Graph) NearestWaypoint(p orb.Point) (Waypoint, bool) {
	var best string
	found := false
	g.index.Nearby(
		rtree.BoxDist[float64, string]([2]float64{p[0], p[1]}, [2]float64{p[0], p[1]}, nil),
		func(min, max [2]float64, id string, dist float64) bool {
			best = id
			found = true
			return false // first hit is the nearest
		},
	)
	if !found {
		return Waypoint{}, false
	}
	return *g.waypoints[best], true
}

// Waypoints returns all waypoints sorted by ID.
func (g *Graph) Waypoints() []Waypoint {
	out := make([]Waypoint, 0, len(g.waypoints))
	for _, w := range g.waypoints {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Rooms returns all rooms sorted by ID.
func (g *Graph) Rooms() []Room {
	out := make([]Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Paths returns all paths sorted by ID.
func (g *Graph) Paths() []Path {
	out := make([]Path, 0, len(g.paths))
	for _, p := range g.paths {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NumWaypoints returns the waypoint count.
func (g *Graph) NumWaypoints() int { return len(g.waypoints) }

// NumRooms returns the room count.
func (g *Graph) NumRooms() int { return len(g.rooms) }

// NumPaths returns the path count.
func (g *Graph) NumPaths() int { return len(g.paths) }

func validatePoint(p orb.Point) error {
	if p[0] < 0 || p[0] > 1 || p[1] < 0 || p[1] > 1 {
		return fmt.Errorf("%w: coordinates %v outside normalized space", ErrInvalid, p)
	}
	return nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
