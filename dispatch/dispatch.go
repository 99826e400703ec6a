// Package dispatch is the single path every resolved action takes: it
// decides whether the action is recorded and then executes it.
package dispatch

import (
	"errors"

	"go-perform/action"
	"go-perform/debug"
	"go-perform/timeline"
)

var ErrNotReady = errors.New("dispatch: no execution sink")

// Dispatcher records user actions on the timeline while it is recording and
// forwards every action to the sink. It owns no state of its own.
type Dispatcher struct {
	timeline *timeline.Timeline
	sink     action.Sink
}

// New returns a dispatcher recording to tl and executing on sink.
// tl may be nil when nothing should be recorded.
func New(tl *timeline.Timeline, sink action.Sink) *Dispatcher {
	return &Dispatcher{timeline: tl, sink: sink}
}

// Handle runs one action. Only UserInput actions are recorded: replayed and
// phrase-fired actions still execute but are never captured again.
func (d *Dispatcher) Handle(a action.Action, param, value int, origin action.Origin) error {
	if d == nil || d.sink == nil {
		return ErrNotReady
	}

	if origin == action.UserInput && a.Recordable() && d.timeline.Recording() {
		if err := d.timeline.Record(a, param, value); err != nil {
			debug.Warn("dispatch", err, "not recorded: %s p=%d v=%d", a, param, value)
		}
	}

	debug.Log("dispatch", "%s %s p=%d v=%d row=%d", origin, a, param, value, d.timeline.Row())
	return d.sink.Execute(a, param, value)
}
