package position

import (
	"context"
	"sync"

	"github.com/paulmach/orb"
)

// historyLimit bounds the rolling sample history kept for smoothing.
const historyLimit = 10

// minAccuracy is the floor below which an estimate is considered noise
// and the next method is tried instead.
const minAccuracy = 0.1

// Hybrid tries positioning methods in preference order, keeps a short
// sample history for smoothing, and falls back to the last known
// position when every method fails.
type Hybrid struct {
	providers []Provider

	mu      sync.Mutex
	history []Position
	last    *Position
}

// NewHybrid creates a hybrid provider trying the given providers in order.
func NewHybrid(providers ...Provider) *Hybrid {
	return &Hybrid{providers: providers}
}

// Position returns the first usable estimate. A method that errors or
// reports accuracy at or below the noise floor is skipped. When all
// methods fail the last known position is returned, and ErrUnavailable
// only when there is none.
func (h *Hybrid) Position(ctx context.Context) (Position, error) {
	for _, p := range h.providers {
		pos, err := p.Position(ctx)
		if err != nil || pos.Accuracy <= minAccuracy {
			continue
		}
		h.record(pos)
		return pos, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last != nil {
		return *h.last, nil
	}
	return Position{}, ErrUnavailable
}

// Smoothed blends the most recent samples (up to three, weighted 0.2,
// 0.3, 0.5 oldest to newest, scaled by each sample's accuracy) to damp
// sensor jitter. Returns false when no samples exist.
func (h *Hybrid) Smoothed() (Position, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.history) == 0 {
		return Position{}, false
	}
	if len(h.history) == 1 {
		return h.history[0], true
	}

	recent := h.history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	weights := [3]float64{0.2, 0.3, 0.5}
	// With two samples, use the two most-recent weights.
	offset := 3 - len(recent)

	var totalWeight, x, y, accuracySum float64
	for i, pos := range recent {
		w := weights[offset+i] * pos.Accuracy
		totalWeight += w
		x += pos.At[0] * w
		y += pos.At[1] * w
		accuracySum += pos.Accuracy
	}
	if totalWeight == 0 {
		if h.last != nil {
			return *h.last, true
		}
		return Position{}, false
	}

	return Position{
		At:       orb.Point{x / totalWeight, y / totalWeight},
		Accuracy: accuracySum / float64(len(recent)),
		Method:   MethodHybrid,
	}, true
}

// History returns a copy of the rolling sample history.
func (h *Hybrid) History() []Position {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Position(nil), h.history...)
}

// ClearHistory drops the history and the last known position.
func (h *Hybrid) ClearHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = nil
	h.last = nil
}

func (h *Hybrid) record(pos Position) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, pos)
	if len(h.history) > historyLimit {
		h.history = h.history[len(h.history)-historyLimit:]
	}
	h.last = &pos
}
