package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/paulmach/orb"

	"campusnav/pkg/dataset"
	"campusnav/pkg/directions"
	"campusnav/pkg/floorplan"
	"campusnav/pkg/graph"
	"campusnav/pkg/position"
	"campusnav/pkg/routing"
	"campusnav/pkg/tracking"
)

const maxBodyBytes = 1 << 20

// Handlers holds the HTTP handlers and their dependencies. The graph is
// single-writer, so every access goes through mu.
type Handlers struct {
	mu      sync.Mutex
	graph   *graph.Graph
	planner *routing.Planner

	gen      *directions.Generator
	cal      floorplan.Calibration
	provider position.Provider
	tracker  *tracking.Tracker
	hub      *TrackHub

	// defaultDoc captures the graph as it was at startup, for reset.
	defaultDoc *dataset.Document

	// lastSeq is the sequence of the last route applied to the tracker;
	// results numbered at or below it are stale and dropped. lastEnd
	// remembers the active destination so off-route recomputes can
	// re-target it.
	lastSeq uint64
	lastEnd routing.Endpoint
	hasDest bool
}

// NewHandlers creates handlers around the graph. provider, tracker, and
// hub may be nil when positioning is not configured.
func NewHandlers(g *graph.Graph, gen *directions.Generator, cal floorplan.Calibration, provider position.Provider, tracker *tracking.Tracker, hub *TrackHub) *Handlers {
	return &Handlers{
		graph:      g,
		planner:    routing.NewPlanner(g),
		gen:        gen,
		cal:        cal,
		provider:   provider,
		tracker:    tracker,
		hub:        hub,
		defaultDoc: dataset.Export(g),
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start, err := toEndpoint(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	end, err := toEndpoint(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	h.mu.Lock()
	route, err := h.planner.Route(start, end)
	if err == nil {
		h.lastEnd = end
		h.hasDest = true
	}
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.applyRoute(route)

	resp := RouteResponse{
		Points:     make([]RoutePointJSON, len(route.Points)),
		Directions: h.gen.Directions(route.Points),
		Seq:        route.Seq,
	}
	for i, p := range route.Points {
		resp.Points[i] = RoutePointJSON{
			ID: p.ID, Name: p.Name, X: p.At[0], Y: p.At[1], Kind: string(p.Kind),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// applyRoute hands a computed route to the off-route monitor. Two
// requests can overlap, so a result numbered at or below the last
// applied sequence lost the race and is dropped rather than clobbering
// the newer route.
func (h *Handlers) applyRoute(route *routing.Route) bool {
	h.mu.Lock()
	if route.Seq <= h.lastSeq {
		h.mu.Unlock()
		return false
	}
	h.lastSeq = route.Seq
	h.mu.Unlock()

	if h.tracker != nil {
		h.tracker.SetRoute(route.Points)
	}
	return true
}

// Recompute plans a fresh route from a deviated position to the active
// destination and hands it to the off-route monitor. When no route
// exists the current route is retained rather than discarded.
func (h *Handlers) Recompute(at orb.Point) {
	h.mu.Lock()
	if !h.hasDest {
		h.mu.Unlock()
		return
	}
	route, err := h.planner.Route(routing.Endpoint{At: &at}, h.lastEnd)
	h.mu.Unlock()
	if err != nil {
		log.Printf("recompute from (%.3f, %.3f) failed: %v", at[0], at[1], err)
		return
	}
	h.applyRoute(route)
}

// AttachTracker wires the off-route monitor and its stream hub after
// construction, for callers whose tracker callbacks close over the
// handlers themselves.
func (h *Handlers) AttachTracker(tracker *tracking.Tracker, hub *TrackHub) {
	h.tracker = tracker
	h.hub = hub
}

// HandleListWaypoints handles GET /api/v1/waypoints.
func (h *Handlers) HandleListWaypoints(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	doc := dataset.Export(h.graph)
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, doc.Waypoints)
}

// HandleCreateWaypoint handles POST /api/v1/waypoints.
func (h *Handlers) HandleCreateWaypoint(w http.ResponseWriter, r *http.Request) {
	var req WaypointRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	wp := graph.Waypoint{ID: req.ID, Name: req.Name, At: orb.Point{req.X, req.Y}, Kind: graph.Kind(req.Kind)}

	h.mu.Lock()
	err := h.graph.AddWaypoint(wp)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataset.Waypoint{
		ID: wp.ID, Name: wp.Name, X: wp.At[0], Y: wp.At[1], Kind: string(wp.Kind),
	})
}

// HandleDeleteWaypoint handles DELETE /api/v1/waypoints/{id}. Incident
// paths are removed with it.
func (h *Handlers) HandleDeleteWaypoint(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.mu.Lock()
	err := h.graph.RemoveWaypoint(id)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListRooms handles GET /api/v1/rooms. An optional ?q= filters by
// case-insensitive substring over id and name.
func (h *Handlers) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))

	h.mu.Lock()
	rooms := h.graph.Rooms()
	h.mu.Unlock()

	out := make([]dataset.Room, 0, len(rooms))
	for _, room := range rooms {
		if q != "" &&
			!strings.Contains(strings.ToLower(room.ID), q) &&
			!strings.Contains(strings.ToLower(room.Name), q) {
			continue
		}
		out = append(out, dataset.Room{ID: room.ID, Name: room.Name, X: room.At[0], Y: room.At[1]})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreateRoom handles POST /api/v1/rooms.
func (h *Handlers) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	room := graph.Room{ID: req.ID, Name: req.Name, At: orb.Point{req.X, req.Y}}

	h.mu.Lock()
	err := h.graph.AddRoom(room)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataset.Room{ID: room.ID, Name: room.Name, X: room.At[0], Y: room.At[1]})
}

// HandleRenameRoom handles PATCH /api/v1/rooms/{id}.
func (h *Handlers) HandleRenameRoom(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req RoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.mu.Lock()
	err := h.graph.RenameRoom(id, req.Name)
	room, _ := h.graph.Room(id)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataset.Room{ID: room.ID, Name: room.Name, X: room.At[0], Y: room.At[1]})
}

// HandleDeleteRoom handles DELETE /api/v1/rooms/{id}.
func (h *Handlers) HandleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.mu.Lock()
	err := h.graph.RemoveRoom(id)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreatePath handles POST /api/v1/paths.
func (h *Handlers) HandleCreatePath(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	h.mu.Lock()
	p, err := h.graph.AddPath(graph.Path{
		ID: req.ID, WaypointA: req.WaypointA, WaypointB: req.WaypointB, RoomB: req.RoomB,
	})
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// A duplicate unordered pair returns the existing path unchanged.
	writeJSON(w, http.StatusCreated, dataset.Path{
		ID: p.ID, WaypointA: p.WaypointA, WaypointB: p.WaypointB, RoomB: p.RoomB,
	})
}

// HandleDeletePath handles DELETE /api/v1/paths/{id}.
func (h *Handlers) HandleDeletePath(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.mu.Lock()
	err := h.graph.RemovePath(id)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExportDataset handles GET /api/v1/dataset.
func (h *Handlers) HandleExportDataset(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	doc := dataset.Export(h.graph)
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	doc.Encode(w)
}

// HandleImportDataset handles PUT /api/v1/dataset. The import is
// all-or-nothing: the live graph is replaced only after the document
// validates and builds.
func (h *Handlers) HandleImportDataset(w http.ResponseWriter, r *http.Request) {
	doc, err := dataset.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := doc.Migrate(h.cal); err != nil {
		writeDomainError(w, err)
		return
	}
	g, err := doc.Build()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.replaceGraph(g)
	h.mu.Lock()
	stats := h.stats()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

// HandleResetDataset handles POST /api/v1/dataset/reset, restoring the
// graph captured at startup.
func (h *Handlers) HandleResetDataset(w http.ResponseWriter, r *http.Request) {
	g, err := h.defaultDoc.Build()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.replaceGraph(g)
	h.mu.Lock()
	stats := h.stats()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

// replaceGraph swaps in a freshly built graph. The planner's request
// sequence restarts with it, so the stale-route bookkeeping and the
// remembered destination reset too.
func (h *Handlers) replaceGraph(g *graph.Graph) {
	h.mu.Lock()
	h.graph = g
	h.planner = routing.NewPlanner(g)
	h.lastSeq = 0
	h.hasDest = false
	h.mu.Unlock()

	if h.tracker != nil {
		h.tracker.SetRoute(nil)
	}
}

// HandlePosition handles GET /api/v1/position.
func (h *Handlers) HandlePosition(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusNotFound, "location_unavailable", "")
		return
	}
	pos, err := h.provider.Position(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	stats := h.stats()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

// stats is called with mu held.
func (h *Handlers) stats() StatsResponse {
	return StatsResponse{
		NumWaypoints: h.graph.NumWaypoints(),
		NumRooms:     h.graph.NumRooms(),
		NumPaths:     h.graph.NumPaths(),
		Generation:   h.graph.Generation(),
	}
}

func toEndpoint(e EndpointJSON) (routing.Endpoint, error) {
	ep := routing.Endpoint{RoomID: e.RoomID, WaypointID: e.WaypointID, Name: e.Name}
	if e.X != nil || e.Y != nil {
		if e.X == nil || e.Y == nil {
			return routing.Endpoint{}, errors.New("x and y must be set together")
		}
		if err := validateCoord(*e.X, *e.Y); err != nil {
			return routing.Endpoint{}, err
		}
		ep.At = &orb.Point{*e.X, *e.Y}
	}
	return ep, nil
}

func validateCoord(x, y float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return errors.New("coordinates outside normalized space")
	}
	return nil
}

// decodeBody enforces Content-Type and parses the JSON body, writing the
// error response itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, routing.ErrNoRoute):
		writeError(w, http.StatusNotFound, "no_route_found", "")
	case errors.Is(err, floorplan.ErrUnmapped), errors.Is(err, floorplan.ErrNoDimensions):
		writeError(w, http.StatusUnprocessableEntity, "unmapped_location", "")
	case errors.Is(err, dataset.ErrBadFormat):
		writeError(w, http.StatusBadRequest, "import_failed", "")
	case errors.Is(err, graph.ErrDuplicate):
		writeError(w, http.StatusConflict, "already_exists", "")
	case errors.Is(err, graph.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, graph.ErrInvalid):
		writeError(w, http.StatusBadRequest, "invalid_request", "")
	case errors.Is(err, position.ErrUnavailable):
		writeError(w, http.StatusNotFound, "location_unavailable", "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}
