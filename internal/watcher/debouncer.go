package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events for the same path so one save in
// an editor (write, rename, chmod) becomes one index run. Merge rules:
//
//	create + modify = create
//	create + delete = dropped
//	modify + delete = delete
//	delete + create = modify
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]*pending
	out     chan []Event
	timer   *time.Timer
	stopped bool
}

type pending struct {
	event   Event
	firstOp Op
}

// NewDebouncer creates a debouncer emitting after window of quiet.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*pending),
		out:     make(chan []Event, 10),
	}
}

// Add records an event, merging it with any pending one for the path.
func (d *Debouncer) Add(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if p, ok := d.pending[ev.Path]; ok {
		merged, keep := merge(p, ev)
		if !keep {
			delete(d.pending, ev.Path)
		} else {
			p.event = merged
		}
	} else {
		d.pending[ev.Path] = &pending{event: ev, firstOp: ev.Op}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// merge applies the coalescing table. keep is false when the events
// cancel out.
func merge(p *pending, ev Event) (Event, bool) {
	switch p.firstOp {
	case OpCreate:
		switch ev.Op {
		case OpModify:
			return p.event, true
		case OpDelete:
			return Event{}, false
		}
	case OpDelete:
		if ev.Op == OpCreate {
			ev.Op = OpModify
			return ev, true
		}
	}
	return ev, true
}

// Output returns the batch channel. Closed by Stop.
func (d *Debouncer) Output() <-chan []Event {
	return d.out
}

// Stop drops pending events and closes the output channel. Safe to
// call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.out)
}

// flush emits everything pending as one batch.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]Event, 0, len(d.pending))
	for _, p := range d.pending {
		batch = append(batch, p.event)
	}
	d.pending = make(map[string]*pending)

	select {
	case d.out <- batch:
	default:
		// A stalled consumer loses the batch; the next change will
		// requeue the paths.
	}
}
