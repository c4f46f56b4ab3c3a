package routing

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"campusnav/pkg/graph"
)

func pointIDs(points []RoutePoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.ID
	}
	return out
}

func TestRouteEndToEnd(t *testing.T) {
	g := buildCampus(t)
	planner := NewPlanner(g)

	route, err := planner.Route(Endpoint{RoomID: "R1"}, Endpoint{RoomID: "R2"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	// R1 coincides with its anchor W1, so its own point is suppressed;
	// the destination room keeps its point so the final step can name it.
	got := pointIDs(route.Points)
	if !equalIDs(got, []string{"W1", "W2", "W3", "R2"}) {
		t.Fatalf("route points = %v, want [W1 W2 W3 R2]", got)
	}
	if last := route.Points[len(route.Points)-1]; last.Kind != PointDestination {
		t.Errorf("last point kind = %s, want destination", last.Kind)
	}
}

func TestRouteSpurAnchorPrecedence(t *testing.T) {
	g := graph.New()

	// Room R sits right next to W1, but an authored spur anchors it to
	// the farther W2. The spur must win over proximity.
	for _, w := range []graph.Waypoint{
		{ID: "W1", Name: "Near", At: orb.Point{0.3, 0.3}, Kind: graph.KindCorridor},
		{ID: "W2", Name: "Far", At: orb.Point{0.7, 0.7}, Kind: graph.KindCorridor},
		{ID: "W3", Name: "Goal", At: orb.Point{0.7, 0.3}, Kind: graph.KindCorridor},
	} {
		if err := g.AddWaypoint(w); err != nil {
			t.Fatalf("AddWaypoint: %v", err)
		}
	}
	if err := g.AddRoom(graph.Room{ID: "R", Name: "Room R", At: orb.Point{0.31, 0.31}}); err != nil {
		t.Fatalf("AddRoom: %v", err)
	}
	for _, p := range []graph.Path{
		{ID: "P1", WaypointA: "W2", RoomB: "R"},
		{ID: "P2", WaypointA: "W1", WaypointB: "W3"},
		{ID: "P3", WaypointA: "W2", WaypointB: "W3"},
	} {
		if _, err := g.AddPath(p); err != nil {
			t.Fatalf("AddPath: %v", err)
		}
	}

	planner := NewPlanner(g)
	_, anchor, err := planner.resolve(Endpoint{RoomID: "R"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if anchor.ID != "W2" {
		t.Errorf("anchor = %s, want spur waypoint W2, not nearest W1", anchor.ID)
	}
}

func TestRouteNearestAnchorWithoutSpur(t *testing.T) {
	g := buildCampus(t)
	if err := g.RemovePath("P3"); err != nil { // drop R1's spur
		t.Fatalf("RemovePath: %v", err)
	}

	planner := NewPlanner(g)
	_, anchor, err := planner.resolve(Endpoint{RoomID: "R1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if anchor.ID != "W1" {
		t.Errorf("anchor = %s, want nearest W1", anchor.ID)
	}
}

func TestRouteFromCurrentLocation(t *testing.T) {
	g := buildCampus(t)
	planner := NewPlanner(g)

	at := orb.Point{0.21, 0.22}
	route, err := planner.Route(Endpoint{At: &at}, Endpoint{RoomID: "R2"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	first := route.Points[0]
	if first.Kind != PointCurrent || first.At != at {
		t.Errorf("first point = %+v, want current-location point at %v", first, at)
	}
	if route.Points[1].ID != "W1" {
		t.Errorf("second point = %s, want anchor W1", route.Points[1].ID)
	}
}

func TestRouteNoPath(t *testing.T) {
	g := buildCampus(t)
	planner := NewPlanner(g)

	_, err := planner.Route(Endpoint{WaypointID: "W1"}, Endpoint{WaypointID: "W9"})
	if !errors.Is(err, ErrNoRoute) {
		t.Errorf("err = %v, want ErrNoRoute", err)
	}
}

func TestRouteSeqIncreases(t *testing.T) {
	g := buildCampus(t)
	planner := NewPlanner(g)

	first, err := planner.Route(Endpoint{RoomID: "R1"}, Endpoint{RoomID: "R2"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	second, err := planner.Route(Endpoint{RoomID: "R1"}, Endpoint{RoomID: "R2"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if second.Seq <= first.Seq {
		t.Errorf("Seq did not increase: %d then %d", first.Seq, second.Seq)
	}
}

func TestRouteEmptyEndpoint(t *testing.T) {
	planner := NewPlanner(buildCampus(t))

	_, err := planner.Route(Endpoint{}, Endpoint{RoomID: "R2"})
	if !errors.Is(err, graph.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestComposeSuppressesCoincidentEndpoints(t *testing.T) {
	g := buildCampus(t)
	snap := g.Snapshot()
	nodes, err := FindPath(snap, "W1", "W3")
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}

	w1, _ := g.Waypoint("W1")
	w3, _ := g.Waypoint("W3")
	r1, _ := g.Room("R1")
	start := RoutePoint{ID: r1.ID, Name: r1.Name, At: r1.At, Kind: PointRoom}

	// End room away from its anchor keeps its own point, tagged as the
	// destination.
	end := RoutePoint{ID: "R9", Name: "Room 999", At: orb.Point{0.55, 0.55}, Kind: PointRoom}
	points, err := Compose(start, w1, nodes, end, w3)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !equalIDs(pointIDs(points), []string{"W1", "W2", "W3", "R9"}) {
		t.Errorf("points = %v, want [W1 W2 W3 R9]", pointIDs(points))
	}
	if last := points[len(points)-1]; last.Kind != PointDestination {
		t.Errorf("last point kind = %s, want destination", last.Kind)
	}
}

func TestComposeRejectsEmptyPath(t *testing.T) {
	g := buildCampus(t)
	w1, _ := g.Waypoint("W1")
	w3, _ := g.Waypoint("W3")

	start := RoutePoint{ID: "R1", At: orb.Point{0.2, 0.2}, Kind: PointRoom}
	end := RoutePoint{ID: "R2", At: orb.Point{0.5, 0.5}, Kind: PointRoom}

	if _, err := Compose(start, w1, nil, end, w3); !errors.Is(err, ErrNoRoute) {
		t.Errorf("err = %v, want ErrNoRoute", err)
	}
}
