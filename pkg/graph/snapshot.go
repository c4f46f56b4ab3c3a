package graph

// Snapshot is an immutable copy of the waypoint set and adjacency taken
// at the start of a search call, so a search never observes a
// mid-mutation graph and a concurrent edit never corrupts an iteration.
type Snapshot struct {
	waypoints map[string]Waypoint
	adj       map[string][]string
	gen       uint64
}

// Snapshot copies the searchable part of the graph.
func (g *Graph) Snapshot() *Snapshot {
	s := &Snapshot{
		waypoints: make(map[string]Waypoint, len(g.waypoints)),
		adj:       make(map[string][]string, len(g.adj)),
		gen:       g.generation,
	}
	for id, w := range g.waypoints {
		s.waypoints[id] = *w
	}
	for id, neighbors := range g.adj {
		s.adj[id] = append([]string(nil), neighbors...)
	}
	return s
}

// Waypoint looks up a waypoint by ID.
func (s *Snapshot) Waypoint(id string) (Waypoint, bool) {
	w, ok := s.waypoints[id]
	return w, ok
}

// Neighbors returns the adjacent waypoint IDs in authoring order.
func (s *Snapshot) Neighbors(id string) []string { return s.adj[id] }

// NumWaypoints returns the waypoint count.
func (s *Snapshot) NumWaypoints() int { return len(s.waypoints) }

// Generation returns the graph generation this snapshot was taken at.
func (s *Snapshot) Generation() uint64 { return s.gen }
