// Package session wires the timeline, dispatcher, phrase sequencer and
// engine together and drives them from one row clock.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-perform/action"
	"go-perform/debug"
	"go-perform/dispatch"
	"go-perform/engine"
	"go-perform/mapping"
	"go-perform/phrase"
	"go-perform/timeline"
)

// ErrPhraseBusy is returned when a phrase step tries to trigger a phrase.
var ErrPhraseBusy = errors.New("session: phrase trigger from inside a phrase step")

// inputBuffer bounds queued input between the UI/MIDI goroutines and Run.
const inputBuffer = 64

// pulsesPerBeat is the MIDI timing clock resolution.
const pulsesPerBeat = 24

// Pulser sends MIDI timing clock. midi.Output implements it.
type Pulser interface {
	Pulse(n int) error
}

// Options configures a session. Zero values take defaults.
type Options struct {
	Capacity    int
	RowsPerBeat int
	Clock       engine.Clock // may be nil
	SendClock   bool         // pulse Clock every row when MIDI sync is on
	Module      engine.Module
	Phrases     phrase.Source
}

// Status is a snapshot for the UI.
type Status struct {
	Engine    engine.State
	Row       int
	Recording bool
	Playing   bool
	Events    int
	Capacity  int

	Phrase     int // active phrase, -1 when none
	PhraseStep int
	PhraseName string

	LastAction string
	LastError  string
}

// Session owns the performance state. Row and Handle are serialized by mu;
// in normal use both run on the Run goroutine.
type Session struct {
	mu          sync.Mutex
	timeline    *timeline.Timeline
	seq         *phrase.Sequencer
	dispatcher  *dispatch.Dispatcher
	engine      *engine.Engine
	phrases     phrase.Source
	clock       engine.Clock
	sendClock   bool
	rowsPerBeat int
	pulseCarry  int // clock pulses owed, in 1/rowsPerBeat units

	lastAction string
	lastError  string

	inputs chan mapping.Binding

	statusMu sync.RWMutex
	status   Status

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// New builds a session and loads opts.Module.
func New(opts Options) *Session {
	if opts.Capacity <= 0 {
		opts.Capacity = timeline.DefaultCapacity
	}
	if opts.RowsPerBeat <= 0 {
		opts.RowsPerBeat = 4
	}

	s := &Session{
		timeline:    timeline.New(opts.Capacity),
		engine:      engine.New(opts.Clock),
		clock:       opts.Clock,
		sendClock:   opts.SendClock,
		rowsPerBeat: opts.RowsPerBeat,
		inputs:      make(chan mapping.Binding, inputBuffer),
		UpdateChan:  make(chan struct{}, 1),
	}
	s.seq = phrase.New(nil, phraseListener{s})
	s.dispatcher = dispatch.New(s.timeline, action.SinkFunc(s.execute))

	if opts.Module.Name == "" {
		opts.Module = engine.Module{Name: "(none)"}
	}
	s.LoadModule(opts.Module, opts.Phrases)
	return s
}

// LoadModule switches to a new module: the engine is reloaded, the
// timeline emptied and phrases re-pointed at src.
func (s *Session) LoadModule(m engine.Module, src phrase.Source) {
	s.mu.Lock()
	s.engine.Load(m)
	s.timeline.SetRecording(false)
	s.timeline.SetPlayback(false)
	s.timeline.Reset()
	s.phrases = src
	s.seq.SetSource(src)
	s.lastAction = ""
	s.lastError = ""
	s.mu.Unlock()
	s.publish()
}

// Handle runs one user action.
func (s *Session) Handle(b mapping.Binding) error {
	s.mu.Lock()
	err := s.handle(b.Action, b.Param, b.Value, action.UserInput)
	s.mu.Unlock()
	s.publish()
	return err
}

func (s *Session) handle(a action.Action, param, value int, origin action.Origin) error {
	err := s.dispatcher.Handle(a, param, value, origin)
	s.lastAction = describe(a, param, origin)
	if err != nil {
		s.lastError = err.Error()
		debug.Warn("session", err, "%s", s.lastAction)
	} else {
		s.lastError = ""
	}
	return err
}

func describe(a action.Action, param int, origin action.Origin) string {
	if key := a.ParamKey(); key != "" {
		return fmt.Sprintf("%s %s:%d (%s)", a, key, param, origin)
	}
	return fmt.Sprintf("%s (%s)", a, origin)
}

// Row advances one transport row: the timeline clock moves, active phrases
// step, then events due on the new row are replayed. A phrase replayed at
// row R fires its first step at R+1, as it did when it was played live.
func (s *Session) Row() {
	s.mu.Lock()
	s.row()
	s.mu.Unlock()
	s.publish()
}

func (s *Session) row() {
	ticked := s.timeline.Tick()
	s.seq.Update()
	if ticked {
		s.replayDue()
	}
	s.pulse()
}

func (s *Session) replayDue() {
	for _, ev := range s.timeline.DueEvents() {
		s.handle(ev.Action, ev.Param, ev.Value, action.Playback)
	}
}

func (s *Session) pulse() {
	p, ok := s.clock.(Pulser)
	if !ok || !s.sendClock {
		return
	}
	st := s.engine.Snapshot()
	if !st.MidiSync || !st.Playing {
		s.pulseCarry = 0
		return
	}
	s.pulseCarry += pulsesPerBeat
	n := s.pulseCarry / s.rowsPerBeat
	s.pulseCarry %= s.rowsPerBeat
	if n == 0 {
		return
	}
	if err := p.Pulse(n); err != nil {
		debug.LogEvery(50, "session", "clock pulse: %v", err)
	}
}

// execute is the dispatcher's sink. Performance and phrase actions are
// handled here; everything else goes to the engine.
func (s *Session) execute(a action.Action, param, value int) error {
	tl := s.timeline
	switch a {
	case action.PerfRecord:
		if tl.Recording() {
			tl.SetRecording(false)
			tl.SetPlayback(false)
		} else {
			tl.SetRecording(true)
			tl.SetPlayback(true)
		}
	case action.PerfPlay:
		if tl.Playing() && !tl.Recording() {
			tl.SetPlayback(false)
			return nil
		}
		tl.SetRecording(false)
		tl.SetPlayback(true)
		// row 0 is never ticked onto
		s.replayDue()
	case action.PerfStop:
		tl.SetRecording(false)
		tl.SetPlayback(false)
		s.seq.StopAll()

	case action.TriggerPhrase:
		if s.seq.Executing() {
			return ErrPhraseBusy
		}
		return s.seq.Trigger(param)
	case action.StopPhrases:
		s.seq.StopAll()

	default:
		return s.engine.Execute(a, param, value)
	}
	return nil
}

// phraseListener routes sequencer callbacks back into the session. It is
// only called from inside Row, with mu held.
type phraseListener struct{ s *Session }

func (l phraseListener) PhraseStep(index int, step phrase.Step) {
	l.s.handle(step.Action, step.Param, step.Value, action.PhraseStep)
}

func (l phraseListener) PhraseReset(index int) {
	debug.Log("session", "phrase %d start", index)
}

func (l phraseListener) PhraseComplete(index int) {
	debug.Log("session", "phrase %d complete", index)
}

// Submit queues a binding for the Run loop. It never blocks; false means
// the queue was full and the input was dropped.
func (s *Session) Submit(b mapping.Binding) bool {
	select {
	case s.inputs <- b:
		return true
	default:
		debug.Log("session", "input queue full, dropped %s", b.Action)
		return false
	}
}

// RowInterval returns the row period at the current tempo.
func (s *Session) RowInterval() time.Duration {
	s.mu.Lock()
	tempo := s.engine.Tempo()
	s.mu.Unlock()
	return rowInterval(tempo, s.rowsPerBeat)
}

func rowInterval(tempo, rowsPerBeat int) time.Duration {
	return time.Minute / time.Duration(tempo*rowsPerBeat)
}

// Run drives rows and handles submitted input until ctx is done. Every
// state change happens on this goroutine.
func (s *Session) Run(ctx context.Context) error {
	interval := s.RowInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	debug.Log("session", "run: row every %v", interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Row()
		case b := <-s.inputs:
			s.Handle(b)
		}
		// tempo actions retime the clock
		if next := s.RowInterval(); next != interval {
			interval = next
			ticker.Reset(interval)
		}
	}
}

// Status returns the latest snapshot.
func (s *Session) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st := s.status
	st.Engine.Channels = append([]engine.Channel(nil), s.status.Engine.Channels...)
	return st
}

// publish refreshes the snapshot and nudges the UI.
func (s *Session) publish() {
	s.mu.Lock()
	st := Status{
		Engine:     s.engine.Snapshot(),
		Row:        s.timeline.Row(),
		Recording:  s.timeline.Recording(),
		Playing:    s.timeline.Playing(),
		Events:     s.timeline.Len(),
		Capacity:   s.timeline.Cap(),
		Phrase:     -1,
		LastAction: s.lastAction,
		LastError:  s.lastError,
	}
	for _, slot := range s.seq.Slots() {
		if slot.Active() {
			st.Phrase = slot.Phrase
			st.PhraseStep = slot.Step
			if s.phrases != nil {
				if def, ok := s.phrases.Phrase(slot.Phrase); ok {
					st.PhraseName = def.Name
				}
			}
			break
		}
	}
	s.mu.Unlock()

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	select {
	case s.UpdateChan <- struct{}{}:
	default:
	}
}

// Events returns a copy of the recorded events.
func (s *Session) Events() []timeline.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Events()
}
