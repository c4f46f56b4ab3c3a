package api

// EndpointJSON names one end of a route request. Exactly one of RoomID,
// WaypointID, or the X/Y pair should be set; X/Y describe a free point
// such as the walker's current position.
type EndpointJSON struct {
	RoomID     string   `json:"roomId,omitempty"`
	WaypointID string   `json:"waypointId,omitempty"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Name       string   `json:"name,omitempty"`
}

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start EndpointJSON `json:"start"`
	End   EndpointJSON `json:"end"`
}

// RoutePointJSON is one stop along a computed route.
type RoutePointJSON struct {
	ID   string  `json:"id"`
	Name string  `json:"name,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Kind string  `json:"kind"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	Points     []RoutePointJSON `json:"points"`
	Directions []string         `json:"directions"`
	Seq        uint64           `json:"seq"`
}

// WaypointRequest is the JSON body for creating a waypoint.
type WaypointRequest struct {
	ID   string  `json:"id,omitempty"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Kind string  `json:"kind"`
}

// RoomRequest is the JSON body for creating or renaming a room.
type RoomRequest struct {
	ID   string  `json:"id,omitempty"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PathRequest is the JSON body for creating a path.
type PathRequest struct {
	ID        string `json:"id,omitempty"`
	WaypointA string `json:"waypointA"`
	WaypointB string `json:"waypointB,omitempty"`
	RoomB     string `json:"roomB,omitempty"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumWaypoints int    `json:"num_waypoints"`
	NumRooms     int    `json:"num_rooms"`
	NumPaths     int    `json:"num_paths"`
	Generation   uint64 `json:"generation"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
