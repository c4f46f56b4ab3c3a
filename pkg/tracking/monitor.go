// Package tracking watches a live position against the active route and
// asks for a recompute when the walker strays.
package tracking

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"campusnav/pkg/geo"
	"campusnav/pkg/position"
	"campusnav/pkg/routing"
)

// OnRoute reports whether p lies within tolerance of the route polyline,
// measured as the minimum point-to-segment distance over all consecutive
// pairs. A route with fewer than two points cannot be followed.
func OnRoute(p orb.Point, route []routing.RoutePoint, tolerance float64) bool {
	if len(route) < 2 {
		return false
	}
	for i := 0; i < len(route)-1; i++ {
		dist, _ := geo.PointToSegmentDist(p, route[i].At, route[i+1].At)
		if dist <= tolerance {
			return true
		}
	}
	return false
}

// Config holds tracker tuning.
type Config struct {
	Interval time.Duration // polling period
	// Tolerance is the maximum normalized distance from the route before
	// the walker counts as off route.
	Tolerance float64
	// MinMovement is how far the position must move since the last check
	// before the route is re-evaluated, damping sensor jitter.
	MinMovement float64
}

// Sample is one tracking observation delivered to subscribers.
type Sample struct {
	Position position.Position `json:"position"`
	OnRoute  bool              `json:"onRoute"`
}

// Tracker polls a position provider and compares each sample against the
// active route. Going off route triggers the deviation callback — a
// recompute request, not a mutation; the stale route stays active until
// someone replaces it.
type Tracker struct {
	provider position.Provider
	cfg      Config

	// onDeviate is called outside the tracker's lock.
	onDeviate func(position.Position)
	onSample  func(Sample)

	mu          sync.Mutex
	route       []routing.RoutePoint
	lastChecked *orb.Point
	cancel      context.CancelFunc
	done        chan struct{}
}

// New creates a stopped tracker. onDeviate may be nil; onSample may be
// nil.
func New(provider position.Provider, cfg Config, onDeviate func(position.Position), onSample func(Sample)) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	return &Tracker{
		provider:  provider,
		cfg:       cfg,
		onDeviate: onDeviate,
		onSample:  onSample,
	}
}

// SetRoute replaces the route being followed and resets movement state.
// A nil route disables off-route checks without stopping the poller.
func (t *Tracker) SetRoute(route []routing.RoutePoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.route = route
	t.lastChecked = nil
}

// Start launches the polling loop. Calling Start on a running tracker is
// a no-op, so repeated enable requests never stack loops.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(ctx, t.done)
}

// Stop cancels the polling loop and waits for it to exit. Stopping a
// stopped tracker is a no-op.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the polling loop is active.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.poll(ctx)
		}
	}
}

func (t *Tracker) poll(ctx context.Context) {
	pos, err := t.provider.Position(ctx)
	if err != nil {
		log.Printf("tracking: position poll failed: %v", err)
		return
	}

	t.mu.Lock()
	route := t.route
	moved := t.lastChecked == nil || geo.Dist(*t.lastChecked, pos.At) > t.cfg.MinMovement
	if moved {
		at := pos.At
		t.lastChecked = &at
	}
	t.mu.Unlock()

	onRoute := len(route) >= 2 && OnRoute(pos.At, route, t.cfg.Tolerance)
	if t.onSample != nil {
		t.onSample(Sample{Position: pos, OnRoute: onRoute})
	}
	if moved && len(route) >= 2 && !onRoute && t.onDeviate != nil {
		t.onDeviate(pos)
	}
}
