// Package engine is an in-memory stand-in for the module player. It applies
// action side effects to a playback model so sessions can run and be tested
// without an audio backend.
package engine

import (
	"fmt"

	"go-perform/action"
	"go-perform/debug"
)

const (
	MinTempo = 32
	MaxTempo = 255

	// pitch in semitones relative to the module
	MinPitch = -24
	MaxPitch = 24

	maxLevel = 127
)

// Clock receives MIDI master commands. midi.Output implements it.
type Clock interface {
	Start() error
	Stop() error
	Continue() error
}

// Module describes the loaded song, as far as the controls care.
type Module struct {
	Name     string
	Orders   int // length of the order list
	Patterns int
	Channels int
	Tempo    int
}

// Channel is the mixer state of one module channel.
type Channel struct {
	Muted  bool
	Solo   bool
	Volume int
}

// State is a snapshot of everything the engine tracks.
type State struct {
	Module   Module
	Playing  bool
	Order    int
	Pattern  int
	Queued   int // queued order, -1 when none
	QueuedPt int // queued pattern, -1 when none
	Looping  bool

	Tempo        int
	Pitch        int
	MasterVolume int
	Cutoff       int
	Resonance    int
	Echo         bool
	EchoAmount   int
	LastPad      int
	MidiSync     bool

	Channels []Channel
}

// Engine implements action.Sink over a State.
type Engine struct {
	state State
	clock Clock
}

// New returns an engine with an empty module. clock may be nil.
func New(clock Clock) *Engine {
	e := &Engine{clock: clock}
	e.Load(Module{Name: "(none)", Orders: 1, Patterns: 1, Channels: 8, Tempo: 125})
	return e
}

// Load resets the playback model for a new module.
func (e *Engine) Load(m Module) {
	if m.Channels <= 0 {
		m.Channels = 8
	}
	if m.Orders <= 0 {
		m.Orders = 1
	}
	if m.Patterns <= 0 {
		m.Patterns = 1
	}
	if m.Tempo <= 0 {
		m.Tempo = 125
	}
	channels := make([]Channel, m.Channels)
	for i := range channels {
		channels[i].Volume = maxLevel
	}
	e.state = State{
		Module:       m,
		Queued:       -1,
		QueuedPt:     -1,
		Tempo:        clamp(m.Tempo, MinTempo, MaxTempo),
		MasterVolume: maxLevel,
		Cutoff:       maxLevel,
		LastPad:      -1,
		Channels:     channels,
		MidiSync:     e.state.MidiSync,
	}
	debug.Log("engine", "loaded %q orders=%d channels=%d", m.Name, m.Orders, m.Channels)
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	s := e.state
	s.Channels = append([]Channel(nil), e.state.Channels...)
	return s
}

// Tempo returns the current tempo in BPM.
func (e *Engine) Tempo() int { return e.state.Tempo }

// Playing reports whether the module is playing.
func (e *Engine) Playing() bool { return e.state.Playing }

// Execute applies one action.
func (e *Engine) Execute(a action.Action, param, value int) error {
	s := &e.state
	switch a {
	case action.Play:
		s.Playing = true
		return e.sync(e.clockStart)
	case action.Stop:
		s.Playing = false
		return e.sync(e.clockStop)
	case action.TogglePlay:
		if s.Playing {
			return e.Execute(action.Stop, param, value)
		}
		return e.Execute(action.Play, param, value)

	case action.NextOrder:
		s.Order = (s.Order + 1) % s.Module.Orders
	case action.PrevOrder:
		s.Order = (s.Order - 1 + s.Module.Orders) % s.Module.Orders
	case action.RestartOrder:
		s.Order = 0
	case action.JumpOrder:
		if err := e.checkOrder(param); err != nil {
			return err
		}
		s.Order = param
	case action.QueueOrder:
		if err := e.checkOrder(param); err != nil {
			return err
		}
		s.Queued = param
	case action.JumpPattern, action.QueuePattern, action.LoopPattern:
		if param < 0 || param >= s.Module.Patterns {
			return fmt.Errorf("%s: pattern %d out of range", a, param)
		}
		switch a {
		case action.JumpPattern:
			s.Pattern = param
		case action.QueuePattern:
			s.QueuedPt = param
		default:
			s.Pattern = param
			s.Looping = !s.Looping
		}

	case action.ChannelMute, action.ChannelSolo, action.ChannelUnmute, action.ChannelVolume:
		if param < 0 || param >= len(s.Channels) {
			return fmt.Errorf("%s: channel %d out of range", a, param)
		}
		ch := &s.Channels[param]
		switch a {
		case action.ChannelMute:
			ch.Muted = !ch.Muted
		case action.ChannelSolo:
			ch.Solo = !ch.Solo
		case action.ChannelUnmute:
			ch.Muted = false
		default:
			ch.Volume = clamp(value, 0, maxLevel)
		}
	case action.MuteAll:
		for i := range s.Channels {
			s.Channels[i].Muted = true
		}
	case action.UnmuteAll:
		for i := range s.Channels {
			s.Channels[i].Muted = false
			s.Channels[i].Solo = false
		}
	case action.MasterVolume:
		s.MasterVolume = clamp(value, 0, maxLevel)

	case action.PitchUp:
		s.Pitch = clamp(s.Pitch+1, MinPitch, MaxPitch)
	case action.PitchDown:
		s.Pitch = clamp(s.Pitch-1, MinPitch, MaxPitch)
	case action.PitchSet:
		// 64 is the center of the 0-127 range
		s.Pitch = clamp((value-64)*MaxPitch/64, MinPitch, MaxPitch)
	case action.TempoUp:
		s.Tempo = clamp(s.Tempo+5, MinTempo, MaxTempo)
	case action.TempoDown:
		s.Tempo = clamp(s.Tempo-5, MinTempo, MaxTempo)
	case action.TempoSet:
		s.Tempo = clamp(value, MinTempo, MaxTempo)
	case action.FilterCutoff:
		s.Cutoff = clamp(value, 0, maxLevel)
	case action.FilterResonance:
		s.Resonance = clamp(value, 0, maxLevel)
	case action.EchoToggle:
		s.Echo = !s.Echo
	case action.EchoAmount:
		s.EchoAmount = clamp(value, 0, maxLevel)

	case action.TriggerPad:
		s.LastPad = param

	case action.MidiSyncToggle:
		s.MidiSync = !s.MidiSync
	case action.MidiMasterStart:
		return e.clockCall(e.clockStart)
	case action.MidiMasterStop:
		return e.clockCall(e.clockStop)
	case action.MidiMasterContinue:
		return e.clockCall(e.clockContinue)

	case action.None:
	default:
		return fmt.Errorf("engine: unhandled action %s", a)
	}
	return nil
}

func (e *Engine) checkOrder(order int) error {
	if order < 0 || order >= e.state.Module.Orders {
		return fmt.Errorf("order %d out of range", order)
	}
	return nil
}

func (e *Engine) clockStart() error    { return e.clock.Start() }
func (e *Engine) clockStop() error     { return e.clock.Stop() }
func (e *Engine) clockContinue() error { return e.clock.Continue() }

// sync forwards transport changes to the MIDI clock when sync is on.
func (e *Engine) sync(f func() error) error {
	if !e.state.MidiSync {
		return nil
	}
	return e.clockCall(f)
}

func (e *Engine) clockCall(f func() error) error {
	if e.clock == nil {
		debug.Log("engine", "no MIDI clock output")
		return nil
	}
	return f()
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
