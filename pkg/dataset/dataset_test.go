package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"campusnav/pkg/floorplan"
	"campusnav/pkg/graph"
)

const goodDoc = `{
  "waypoints": [
    {"id": "W1", "name": "West Junction", "x": 0.2, "y": 0.2, "kind": "junction"},
    {"id": "W2", "name": "Mid Hall", "x": 0.5, "y": 0.2, "kind": "corridor"}
  ],
  "rooms": [
    {"id": "R1", "name": "Room 101", "x": 0.2, "y": 0.25}
  ],
  "paths": [
    {"id": "P1", "waypointA": "W1", "waypointB": "W2"},
    {"id": "P2", "waypointA": "W1", "roomB": "R1"}
  ],
  "version": "2",
  "coordinateSystem": "normalized"
}`

func testCal() floorplan.Calibration {
	return floorplan.Calibration{NaturalWidth: 2000, NaturalHeight: 1000}
}

func TestDecodeAndBuild(t *testing.T) {
	doc, err := Decode(strings.NewReader(goodDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	g, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.NumWaypoints() != 2 || g.NumRooms() != 1 || g.NumPaths() != 2 {
		t.Errorf("built graph has %d/%d/%d entities, want 2/1/2",
			g.NumWaypoints(), g.NumRooms(), g.NumPaths())
	}
	anchor, ok := g.SpurAnchor("R1")
	if !ok || anchor.ID != "W1" {
		t.Errorf("SpurAnchor(R1) = %v, %v, want W1", anchor.ID, ok)
	}
}

func TestDecodeMissingArrays(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no waypoints", `{"rooms": [], "paths": []}`},
		{"no rooms", `{"waypoints": [], "paths": []}`},
		{"no paths", `{"waypoints": [], "rooms": []}`},
		{"empty object", `{}`},
		{"not json", `<dataset/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.in)); !errors.Is(err, ErrBadFormat) {
				t.Errorf("Decode = %v, want ErrBadFormat", err)
			}
		})
	}
}

func TestDecodeEmptyArraysOK(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"waypoints": [], "rooms": [], "paths": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	g, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.NumWaypoints() != 0 {
		t.Errorf("empty dataset built %d waypoints", g.NumWaypoints())
	}
}

func TestBuildRejectsDanglingPath(t *testing.T) {
	doc := &Document{
		Waypoints: []Waypoint{{ID: "W1", X: 0.2, Y: 0.2, Kind: "corridor"}},
		Paths:     []Path{{ID: "P1", WaypointA: "W1", WaypointB: "W9"}},
	}
	if _, err := doc.Build(); !errors.Is(err, ErrBadFormat) {
		t.Errorf("Build with dangling path = %v, want ErrBadFormat", err)
	}
}

func TestMigrateLegacyPixels(t *testing.T) {
	doc := &Document{
		Waypoints: []Waypoint{{ID: "W1", X: 400, Y: 250, Kind: "corridor"}},
		Rooms:     []Room{{ID: "R1", X: 2500, Y: -10}},
	}
	if err := doc.Migrate(testCal()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if got := (orb.Point{doc.Waypoints[0].X, doc.Waypoints[0].Y}); got != (orb.Point{0.2, 0.25}) {
		t.Errorf("migrated waypoint = %v, want {0.2 0.25}", got)
	}
	// Out-of-bounds pixels clamp rather than produce invalid coordinates.
	if got := (orb.Point{doc.Rooms[0].X, doc.Rooms[0].Y}); got != (orb.Point{1, 0}) {
		t.Errorf("migrated room = %v, want {1 0}", got)
	}
	if doc.CoordinateSystem != CoordinateSystem {
		t.Errorf("CoordinateSystem = %q after migration", doc.CoordinateSystem)
	}
}

func TestMigrateSkipsNormalized(t *testing.T) {
	doc := &Document{
		Waypoints:        []Waypoint{{ID: "W1", X: 0.2, Y: 0.25}},
		CoordinateSystem: CoordinateSystem,
	}
	if err := doc.Migrate(testCal()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if doc.Waypoints[0].X != 0.2 {
		t.Errorf("normalized coordinates were re-migrated: x = %v", doc.Waypoints[0].X)
	}
}

func TestMigrateLegacyNeedsDimensions(t *testing.T) {
	doc := &Document{Waypoints: []Waypoint{{ID: "W1", X: 400, Y: 250}}}
	if err := doc.Migrate(floorplan.Calibration{}); !errors.Is(err, ErrBadFormat) {
		t.Errorf("Migrate without dimensions = %v, want ErrBadFormat", err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	doc, err := Decode(strings.NewReader(goodDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	g, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(g).Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	doc2, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode exported: %v", err)
	}
	if doc2.CoordinateSystem != CoordinateSystem || doc2.Version != Version {
		t.Errorf("export markers = %q/%q", doc2.CoordinateSystem, doc2.Version)
	}
	g2, err := doc2.Build()
	if err != nil {
		t.Fatalf("Build exported: %v", err)
	}
	if g2.NumWaypoints() != g.NumWaypoints() || g2.NumRooms() != g.NumRooms() || g2.NumPaths() != g.NumPaths() {
		t.Errorf("round trip lost entities: %d/%d/%d vs %d/%d/%d",
			g2.NumWaypoints(), g2.NumRooms(), g2.NumPaths(),
			g.NumWaypoints(), g.NumRooms(), g.NumPaths())
	}
}

func TestLoadMissingFileGivesEmptyGraph(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "nope.json"), testCal())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NumWaypoints() != 0 {
		t.Errorf("missing file produced %d waypoints", g.NumWaypoints())
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.json")

	g := graph.New()
	if err := g.AddWaypoint(graph.Waypoint{ID: "W1", Name: "Lobby", At: orb.Point{0.1, 0.1}, Kind: graph.KindEntrance}); err != nil {
		t.Fatalf("AddWaypoint: %v", err)
	}
	if err := Save(path, g); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after Save")
	}

	g2, err := Load(path, testCal())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	w, ok := g2.Waypoint("W1")
	if !ok || w.Name != "Lobby" || w.Kind != graph.KindEntrance {
		t.Errorf("loaded waypoint = %+v, %v", w, ok)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"waypoints": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, testCal()); !errors.Is(err, ErrBadFormat) {
		t.Errorf("Load bad file = %v, want ErrBadFormat", err)
	}
}
