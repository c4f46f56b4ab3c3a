package api

import (
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"campusnav/pkg/tracking"
)

// TrackHub fans tracking samples out to every connected client. The
// tracker publishes; websocket handlers subscribe.
type TrackHub struct {
	mu   sync.Mutex
	subs map[chan tracking.Sample]struct{}
}

// NewTrackHub creates an empty hub.
func NewTrackHub() *TrackHub {
	return &TrackHub{subs: make(map[chan tracking.Sample]struct{})}
}

// Publish delivers a sample to every subscriber. Slow clients drop
// samples rather than stall the tracker.
func (t *TrackHub) Publish(s tracking.Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (t *TrackHub) subscribe() chan tracking.Sample {
	ch := make(chan tracking.Sample, 8)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()
	return ch
}

func (t *TrackHub) unsubscribe(ch chan tracking.Sample) {
	t.mu.Lock()
	delete(t.subs, ch)
	t.mu.Unlock()
}

// HandleTrack handles GET /api/v1/track: a websocket that streams live
// position samples with on/off-route status until the client goes away.
func (h *Handlers) HandleTrack(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusNotFound, "location_unavailable", "")
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer c.CloseNow()

	ch := h.hub.subscribe()
	defer h.hub.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case s := <-ch:
			if err := wsjson.Write(ctx, c, s); err != nil {
				return
			}
		}
	}
}
