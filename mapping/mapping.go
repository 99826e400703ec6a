// Package mapping resolves physical input (terminal keys, MIDI notes and
// CCs) into actions.
package mapping

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-perform/action"
	"go-perform/config"
)

// Omni matches every MIDI channel.
const Omni = -1

// Binding is a resolved (action, parameter, value) triple.
type Binding struct {
	Action action.Action
	Param  int
	Value  int
}

type midiKey struct {
	channel int
	number  int
}

// Resolver looks up bindings for raw input. The zero value resolves nothing.
type Resolver struct {
	keys  map[string]Binding
	cc    map[midiKey]Binding
	notes map[midiKey]Binding
}

// New returns an empty resolver.
func New() *Resolver {
	return &Resolver{
		keys:  make(map[string]Binding),
		cc:    make(map[midiKey]Binding),
		notes: make(map[midiKey]Binding),
	}
}

// FromConfig builds a resolver from the default key map overlaid with the
// configured bindings.
func FromConfig(m config.Mappings) (*Resolver, error) {
	r := New()
	for key, b := range DefaultKeys() {
		r.BindKey(key, b)
	}
	for _, k := range m.Keys {
		if !k.Action.Valid() {
			return nil, fmt.Errorf("key %q: no action", k.Key)
		}
		r.BindKey(k.Key, Binding{Action: k.Action, Param: k.Param, Value: k.Value})
	}
	for _, c := range m.CC {
		if !c.Action.Valid() {
			return nil, fmt.Errorf("cc %d: no action", c.Controller)
		}
		if err := r.BindCC(c.Channel, c.Controller, Binding{Action: c.Action, Param: c.Param}); err != nil {
			return nil, err
		}
	}
	for _, n := range m.Notes {
		if !n.Action.Valid() {
			return nil, fmt.Errorf("note %d: no action", n.Note)
		}
		if err := r.BindNote(n.Channel, n.Note, Binding{Action: n.Action, Param: n.Param}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// BindKey maps a terminal key name (as bubbletea reports it) to b.
func (r *Resolver) BindKey(key string, b Binding) {
	r.keys[key] = b
}

// BindCC maps a controller number on channel (0-15 or Omni) to b.
func (r *Resolver) BindCC(channel, controller int, b Binding) error {
	if err := checkMIDI(channel, controller); err != nil {
		return fmt.Errorf("cc binding: %w", err)
	}
	r.cc[midiKey{channel, controller}] = b
	return nil
}

// BindNote maps a note number on channel (0-15 or Omni) to b.
func (r *Resolver) BindNote(channel, note int, b Binding) error {
	if err := checkMIDI(channel, note); err != nil {
		return fmt.Errorf("note binding: %w", err)
	}
	r.notes[midiKey{channel, note}] = b
	return nil
}

func checkMIDI(channel, number int) error {
	if channel < Omni || channel > 15 {
		return fmt.Errorf("channel %d out of range", channel)
	}
	if number < 0 || number > 127 {
		return fmt.Errorf("number %d out of range", number)
	}
	return nil
}

// ResolveKey returns the binding for a key press.
func (r *Resolver) ResolveKey(key string) (Binding, bool) {
	if r == nil {
		return Binding{}, false
	}
	b, ok := r.keys[key]
	return b, ok
}

// ResolveMessage returns the binding for a MIDI message. Only note-ons with
// a velocity and control changes resolve; the velocity or CC value becomes
// the binding value.
func (r *Resolver) ResolveMessage(msg gomidi.Message) (Binding, bool) {
	if r == nil {
		return Binding{}, false
	}
	var channel, number, value uint8
	switch {
	case msg.GetControlChange(&channel, &number, &value):
		return lookup(r.cc, channel, number, value)
	case msg.GetNoteOn(&channel, &number, &value) && value > 0:
		return lookup(r.notes, channel, number, value)
	}
	return Binding{}, false
}

func lookup(table map[midiKey]Binding, channel, number, value uint8) (Binding, bool) {
	b, ok := table[midiKey{int(channel), int(number)}]
	if !ok {
		b, ok = table[midiKey{Omni, int(number)}]
	}
	if !ok {
		return Binding{}, false
	}
	b.Value = int(value)
	return b, true
}

// Keys returns the key bindings, for help screens.
func (r *Resolver) Keys() map[string]Binding {
	out := make(map[string]Binding, len(r.keys))
	for k, b := range r.keys {
		out[k] = b
	}
	return out
}
