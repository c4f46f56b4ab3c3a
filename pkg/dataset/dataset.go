// Package dataset reads and writes the navigation dataset: the JSON
// document holding every waypoint, room, and path for a floor plan.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"

	"campusnav/pkg/floorplan"
	"campusnav/pkg/graph"
)

// ErrBadFormat marks a dataset that fails schema validation. Imports
// are atomic: a bad document leaves the existing graph untouched.
var ErrBadFormat = errors.New("dataset: bad format")

// CoordinateSystem is the marker written into every modern export.
// Documents without it predate normalization and carry absolute pixel
// coordinates that must be migrated on import.
const CoordinateSystem = "normalized"

// Version is written into exports for forward compatibility.
const Version = "2"

// Waypoint is the wire form of a graph waypoint.
type Waypoint struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Kind string  `json:"kind"`
}

// Room is the wire form of a room.
type Room struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Path is the wire form of an edge. Exactly one of WaypointB and RoomB
// is set.
type Path struct {
	ID        string `json:"id"`
	WaypointA string `json:"waypointA"`
	WaypointB string `json:"waypointB,omitempty"`
	RoomB     string `json:"roomB,omitempty"`
}

// Document is the full dataset file.
type Document struct {
	Waypoints        []Waypoint `json:"waypoints"`
	Rooms            []Room     `json:"rooms"`
	Paths            []Path     `json:"paths"`
	Version          string     `json:"version,omitempty"`
	CoordinateSystem string     `json:"coordinateSystem,omitempty"`
}

// Decode parses and validates a dataset document. All three arrays must
// be present (empty is fine, missing is not), so a truncated or foreign
// JSON object cannot wipe a graph on import.
func Decode(r io.Reader) (*Document, error) {
	var raw struct {
		Waypoints        *[]Waypoint `json:"waypoints"`
		Rooms            *[]Room     `json:"rooms"`
		Paths            *[]Path     `json:"paths"`
		Version          string      `json:"version"`
		CoordinateSystem string      `json:"coordinateSystem"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if raw.Waypoints == nil || raw.Rooms == nil || raw.Paths == nil {
		return nil, fmt.Errorf("%w: waypoints, rooms, and paths arrays are required", ErrBadFormat)
	}
	return &Document{
		Waypoints:        *raw.Waypoints,
		Rooms:            *raw.Rooms,
		Paths:            *raw.Paths,
		Version:          raw.Version,
		CoordinateSystem: raw.CoordinateSystem,
	}, nil
}

// Migrate rewrites pixel coordinates into normalized space when the
// document lacks the coordinate system marker. Documents already
// normalized pass through unchanged.
func (d *Document) Migrate(cal floorplan.Calibration) error {
	if d.CoordinateSystem == CoordinateSystem {
		return nil
	}
	for i := range d.Waypoints {
		p, err := cal.MigrateLegacyPoint(d.Waypoints[i].X, d.Waypoints[i].Y)
		if err != nil {
			return fmt.Errorf("%w: waypoint %q: %v", ErrBadFormat, d.Waypoints[i].ID, err)
		}
		d.Waypoints[i].X, d.Waypoints[i].Y = p[0], p[1]
	}
	for i := range d.Rooms {
		p, err := cal.MigrateLegacyPoint(d.Rooms[i].X, d.Rooms[i].Y)
		if err != nil {
			return fmt.Errorf("%w: room %q: %v", ErrBadFormat, d.Rooms[i].ID, err)
		}
		d.Rooms[i].X, d.Rooms[i].Y = p[0], p[1]
	}
	d.CoordinateSystem = CoordinateSystem
	return nil
}

// Build constructs a fresh graph from the document. Nothing is mutated
// on error, so callers can swap in the result only on success.
func (d *Document) Build() (*graph.Graph, error) {
	g := graph.New()
	for _, w := range d.Waypoints {
		kind := graph.Kind(w.Kind)
		if w.Kind == "" {
			kind = graph.KindCorridor
		}
		if err := g.AddWaypoint(graph.Waypoint{
			ID:   w.ID,
			Name: w.Name,
			At:   orb.Point{w.X, w.Y},
			Kind: kind,
		}); err != nil {
			return nil, fmt.Errorf("%w: waypoint %q: %v", ErrBadFormat, w.ID, err)
		}
	}
	for _, r := range d.Rooms {
		if err := g.AddRoom(graph.Room{ID: r.ID, Name: r.Name, At: orb.Point{r.X, r.Y}}); err != nil {
			return nil, fmt.Errorf("%w: room %q: %v", ErrBadFormat, r.ID, err)
		}
	}
	for _, p := range d.Paths {
		if _, err := g.AddPath(graph.Path{
			ID:        p.ID,
			WaypointA: p.WaypointA,
			WaypointB: p.WaypointB,
			RoomB:     p.RoomB,
		}); err != nil {
			return nil, fmt.Errorf("%w: path %q: %v", ErrBadFormat, p.ID, err)
		}
	}
	return g, nil
}

// Export captures the graph as a document ready for encoding.
func Export(g *graph.Graph) *Document {
	doc := &Document{
		Waypoints:        make([]Waypoint, 0, g.NumWaypoints()),
		Rooms:            make([]Room, 0, g.NumRooms()),
		Paths:            make([]Path, 0, g.NumPaths()),
		Version:          Version,
		CoordinateSystem: CoordinateSystem,
	}
	for _, w := range g.Waypoints() {
		doc.Waypoints = append(doc.Waypoints, Waypoint{
			ID: w.ID, Name: w.Name, X: w.At[0], Y: w.At[1], Kind: string(w.Kind),
		})
	}
	for _, r := range g.Rooms() {
		doc.Rooms = append(doc.Rooms, Room{ID: r.ID, Name: r.Name, X: r.At[0], Y: r.At[1]})
	}
	for _, p := range g.Paths() {
		doc.Paths = append(doc.Paths, Path{
			ID: p.ID, WaypointA: p.WaypointA, WaypointB: p.WaypointB, RoomB: p.RoomB,
		})
	}
	return doc
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Load reads a dataset file, migrating legacy coordinates if needed,
// and builds the graph. A missing file yields an empty graph so a new
// deployment starts clean.
func Load(path string, cal floorplan.Calibration) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return graph.New(), nil
		}
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	if err := doc.Migrate(cal); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	g, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return g, nil
}

// Save writes the graph to path, replacing any previous file through a
// rename so readers never see a partial write.
func Save(path string, g *graph.Graph) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Export(g).Encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
