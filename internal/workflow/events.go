package workflow

import (
	"sync"
	"time"
)

// Event stage identifiers surfaced to observers.
const (
	EventStageWhisper   = "whisper"
	EventStageBeat      = "beat"
	EventStageFFmpeg    = "ffmpeg"
	EventStageFinalize  = "finalize"
	EventStageDone      = "done"
	EventStageError     = "error"
	EventStageCancelled = "cancelled"
)

// Event is one progress update pushed to observers. Percent is monotonically
// non-decreasing within a stage and resets to 0 at stage transitions.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Percent   float64   `json:"percent"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Stage == EventStageDone || e.Stage == EventStageError || e.Stage == EventStageCancelled
}

// subscriberBuffer bounds how far an observer may lag before events drop.
const subscriberBuffer = 64

// Hub fans progress events out to observers of one task. Subscribers receive
// events published after they attach, never history; the hub closes every
// subscription after a terminal event.
type Hub struct {
	mu      sync.Mutex
	nextSeq uint64
	subs    map[chan Event]struct{}
	done    bool
	last    *Event
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Publish delivers an event to every live subscriber. A slow subscriber that
// filled its buffer loses the oldest event rather than blocking the pipeline.
// A terminal event closes the hub.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return
	}
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- evt
		}
	}

	if evt.Terminal() {
		h.done = true
		h.last = &evt
		for ch := range h.subs {
			close(ch)
		}
		h.subs = nil
	}
}

// Subscribe attaches a new observer. When the hub already closed, the channel
// replays only the terminal event and closes immediately.
func (h *Hub) Subscribe() <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.done {
		if h.last != nil {
			ch <- *h.last
		}
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe detaches an observer before stream end.
func (h *Hub) Unsubscribe(ch <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return
	}
	for sub := range h.subs {
		if sub == ch {
			delete(h.subs, sub)
			close(sub)
			return
		}
	}
}

// Closed reports whether the hub has delivered its terminal event.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}
