// Package timeline records performance actions against a row-quantized
// clock and replays them.
//
// A Timeline is driven by a single transport: Tick, DueEvents and Record are
// called from one goroutine and never re-entered. The type does no locking
// of its own.
package timeline

import (
	"errors"

	"go-perform/action"
)

// DefaultCapacity is the event ceiling used when New is given a size <= 0.
const DefaultCapacity = 10000

var (
	ErrCapacityExceeded = errors.New("timeline: capacity exceeded")
	ErrInvalidIndex     = errors.New("timeline: invalid index")
	ErrFileUnavailable  = errors.New("timeline: file unavailable")
)

// Event is one recorded action at an absolute row.
type Event struct {
	Row    int
	Action action.Action
	Param  int
	Value  int
}

// Timeline is a bounded, row-ordered event log with a playback cursor.
// Recording and playing are independent flags.
type Timeline struct {
	events   []Event
	capacity int

	row       int
	recording bool
	playing   bool
	cursor    int
}

// New returns an empty timeline holding at most capacity events.
func New(capacity int) *Timeline {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Timeline{
		events:   make([]Event, 0, min(capacity, 256)),
		capacity: capacity,
	}
}

// Tick advances the row by one while playing. It reports whether the row
// moved.
func (t *Timeline) Tick() bool {
	if t == nil || !t.playing {
		return false
	}
	t.row++
	return true
}

// SetRecording turns the recorder on or off. Turning it on discards the
// buffer and rewinds to row 0; turning it off keeps what was recorded.
func (t *Timeline) SetRecording(on bool) {
	if t == nil {
		return
	}
	if on {
		t.events = t.events[:0]
		t.row = 0
		t.cursor = 0
	}
	t.recording = on
}

// SetPlayback starts or stops playback. Playback always starts at row 0.
func (t *Timeline) SetPlayback(on bool) {
	if t == nil {
		return
	}
	if on {
		t.row = 0
		t.cursor = 0
	}
	t.playing = on
}

// Reset clears the buffer and rewinds the clock. Flags are left alone.
func (t *Timeline) Reset() {
	if t == nil {
		return
	}
	t.events = t.events[:0]
	t.row = 0
	t.cursor = 0
}

// Record appends an action at the current row if recording is on. It is a
// no-op when recording is off.
func (t *Timeline) Record(a action.Action, param, value int) error {
	if t == nil || !t.recording {
		return nil
	}
	if len(t.events) >= t.capacity {
		return ErrCapacityExceeded
	}
	n := len(t.events)
	if n == 0 || t.events[n-1].Row <= t.row {
		t.events = append(t.events, Event{Row: t.row, Action: a, Param: param, Value: value})
		return nil
	}
	// playback restarted underneath the recorder, so the tail is ahead of us
	_, err := t.Add(t.row, a, param, value)
	return err
}

// DueEvents returns the events scheduled for the current row. Events on
// earlier rows are skipped for good; the returned run stays in place so a
// second call in the same row returns it again.
func (t *Timeline) DueEvents() []Event {
	if t == nil {
		return nil
	}
	for t.cursor < len(t.events) && t.events[t.cursor].Row < t.row {
		t.cursor++
	}
	end := t.cursor
	for end < len(t.events) && t.events[end].Row == t.row {
		end++
	}
	if end == t.cursor {
		return nil
	}
	out := make([]Event, end-t.cursor)
	copy(out, t.events[t.cursor:end])
	return out
}

// Add inserts an event in row order, after any events already on that row,
// and returns its index.
func (t *Timeline) Add(row int, a action.Action, param, value int) (int, error) {
	if t == nil {
		return -1, ErrInvalidIndex
	}
	if row < 0 {
		return -1, ErrInvalidIndex
	}
	if len(t.events) >= t.capacity {
		return -1, ErrCapacityExceeded
	}

	// edits land near the end, so walk back from the tail
	i := len(t.events)
	for i > 0 && t.events[i-1].Row > row {
		i--
	}
	t.events = append(t.events, Event{})
	copy(t.events[i+1:], t.events[i:])
	t.events[i] = Event{Row: row, Action: a, Param: param, Value: value}

	if i < t.cursor {
		t.cursor++
	}
	return i, nil
}

// Delete removes the event at index. The cursor shifts with the buffer so
// nothing is skipped or replayed twice.
func (t *Timeline) Delete(index int) error {
	if t == nil || index < 0 || index >= len(t.events) {
		return ErrInvalidIndex
	}
	t.events = append(t.events[:index], t.events[index+1:]...)
	// everything before the cursor is on an earlier row, so stepping back
	// onto one of those is harmless: DueEvents walks past it again
	if index <= t.cursor && t.cursor > 0 {
		t.cursor--
	}
	return nil
}

// Row returns the current playback row.
func (t *Timeline) Row() int {
	if t == nil {
		return 0
	}
	return t.row
}

func (t *Timeline) Recording() bool { return t != nil && t.recording }
func (t *Timeline) Playing() bool   { return t != nil && t.playing }

// Len returns the number of events in the buffer.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.events)
}

// Cap returns the event ceiling.
func (t *Timeline) Cap() int {
	if t == nil {
		return 0
	}
	return t.capacity
}

// Cursor returns the playback cursor (an index into the buffer).
func (t *Timeline) Cursor() int {
	if t == nil {
		return 0
	}
	return t.cursor
}

// Event returns the event at index.
func (t *Timeline) Event(index int) (Event, bool) {
	if t == nil || index < 0 || index >= len(t.events) {
		return Event{}, false
	}
	return t.events[index], true
}

// Events returns a copy of the buffer.
func (t *Timeline) Events() []Event {
	if t == nil {
		return nil
	}
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}
