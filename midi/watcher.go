package midi

import (
	"context"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-perform/debug"
)

// DeviceEvent is emitted when a watched input connects or disconnects
type DeviceEvent struct {
	Type DeviceEventType
	Port string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Watcher keeps the configured inputs open across hot-plugs. Messages from
// every open input arrive on one channel.
type Watcher struct {
	wanted   []string
	inputs   map[string]*Input
	mu       sync.RWMutex
	events   chan DeviceEvent
	msgs     chan gomidi.Message
	pollRate time.Duration
	timeout  time.Duration
}

// NewWatcher watches for input ports matching the given names.
func NewWatcher(names []string) *Watcher {
	return &Watcher{
		wanted:   names,
		inputs:   make(map[string]*Input),
		events:   make(chan DeviceEvent, 16),
		msgs:     make(chan gomidi.Message, inputBuffer),
		pollRate: time.Second,
		timeout:  DefaultTimeout,
	}
}

// Events returns a channel of connect/disconnect events
func (w *Watcher) Events() <-chan DeviceEvent {
	return w.events
}

// Messages returns the merged message stream of all open inputs
func (w *Watcher) Messages() <-chan gomidi.Message {
	return w.msgs
}

// Connected returns the names of the open inputs, sorted
func (w *Watcher) Connected() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.inputs))
	for name := range w.inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *Watcher) Run(ctx context.Context) {
	if len(w.wanted) == 0 {
		return
	}
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	// Initial scan
	w.scan()

	for {
		select {
		case <-ctx.Done():
			w.closeAll()
			close(w.events)
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *Watcher) scan() {
	r, err := scan(w.timeout)
	if err != nil {
		// hung driver, skip this scan
		debug.Log("midi", "scan: %v", err)
		return
	}

	names := make([]string, len(r.ins))
	for i, p := range r.ins {
		names[i] = p.String()
	}

	w.mu.RLock()
	open := make(map[string]bool, len(w.inputs))
	for name := range w.inputs {
		open[name] = true
	}
	w.mu.RUnlock()

	toOpen, toClose := reconcile(w.wanted, names, open)

	for _, i := range toOpen {
		in, err := listen(r.ins[i], w.msgs)
		if err != nil {
			debug.Warn("midi", err, "connect %s", names[i])
			continue
		}
		w.mu.Lock()
		w.inputs[in.Name()] = in
		w.mu.Unlock()
		w.emit(DeviceEvent{Type: DeviceConnected, Port: in.Name()})
	}

	for _, name := range toClose {
		w.mu.Lock()
		in := w.inputs[name]
		delete(w.inputs, name)
		w.mu.Unlock()
		if in != nil {
			in.Close()
		}
		w.emit(DeviceEvent{Type: DeviceDisconnected, Port: name})
	}
}

func (w *Watcher) emit(ev DeviceEvent) {
	select {
	case w.events <- ev:
	default:
	}
}

// reconcile compares the ports present with the ports open. It returns the
// indexes into present to open and the open names that vanished.
func reconcile(wanted, present []string, open map[string]bool) (toOpen []int, toClose []string) {
	seen := make(map[string]bool, len(present))
	for _, want := range wanted {
		i := matchPort(present, want)
		if i < 0 {
			continue
		}
		name := present[i]
		if seen[name] {
			continue
		}
		seen[name] = true
		if !open[name] {
			toOpen = append(toOpen, i)
		}
	}
	for name := range open {
		if !seen[name] {
			toClose = append(toClose, name)
		}
	}
	sort.Strings(toClose)
	return toOpen, toClose
}

func (w *Watcher) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, in := range w.inputs {
		in.Close()
	}
	w.inputs = make(map[string]*Input)
}
