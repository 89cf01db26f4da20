package realtime

import (
	"sync"

	"clipforge/domain/model"
)

// ProgressHub fans progress events out to every live subscriber of a job.
// The registry lives entirely in process memory: the persisted job record is
// the source of truth, so a restart only forces clients to reconnect.
type ProgressHub struct {
	mu   sync.RWMutex
	jobs map[string]map[chan model.ProgressEvent]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{jobs: make(map[string]map[chan model.ProgressEvent]struct{})}
}

// Subscribe registers a new subscriber for jobID. The caller drains the
// returned channel until it is closed.
func (h *ProgressHub) Subscribe(jobID string) chan model.ProgressEvent {
	ch := make(chan model.ProgressEvent, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.jobs[jobID] == nil {
		h.jobs[jobID] = make(map[chan model.ProgressEvent]struct{})
	}
	h.jobs[jobID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a single subscriber without affecting others. The last
// subscriber leaving discards the job entry.
func (h *ProgressHub) Unsubscribe(jobID string, ch chan model.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.jobs[jobID]
	if subs == nil {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.jobs, jobID)
	}
}

// Publish delivers evt to every current subscriber of jobID. Delivery is
// non-blocking per subscriber; a full or abandoned channel never stalls the
// caller or the remaining subscribers. A terminal event tears down every
// subscription for the job after delivery.
func (h *ProgressHub) Publish(jobID string, evt model.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.jobs[jobID]
	if subs == nil {
		return
	}
	for ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
	if evt.Status.Terminal() {
		for ch := range subs {
			close(ch)
		}
		delete(h.jobs, jobID)
	}
}

// Subscribers reports the current subscriber count for jobID.
func (h *ProgressHub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.jobs[jobID])
}
