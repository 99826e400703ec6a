package action

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is a resolved performance command. The set is closed; None is the
// zero value and also what unknown names degrade to.
type Action int

const (
	None Action = iota

	// Transport
	Play
	Stop
	TogglePlay
	NextOrder
	PrevOrder
	JumpOrder
	QueueOrder
	JumpPattern
	QueuePattern
	LoopPattern
	RestartOrder

	// Channels
	ChannelMute
	ChannelSolo
	ChannelUnmute
	ChannelVolume

	// Mixer
	MuteAll
	UnmuteAll
	MasterVolume

	// Effects
	PitchUp
	PitchDown
	PitchSet
	TempoUp
	TempoDown
	TempoSet
	FilterCutoff
	FilterResonance
	EchoToggle
	EchoAmount

	// Pads and phrases
	TriggerPad
	TriggerPhrase
	StopPhrases

	// Performance recorder
	PerfRecord
	PerfPlay
	PerfStop

	// MIDI sync / master
	MidiSyncToggle
	MidiMasterStart
	MidiMasterStop
	MidiMasterContinue

	numActions
)

var names = [numActions]string{
	None:               "NONE",
	Play:               "PLAY",
	Stop:               "STOP",
	TogglePlay:         "TOGGLE_PLAY",
	NextOrder:          "NEXT_ORDER",
	PrevOrder:          "PREV_ORDER",
	JumpOrder:          "JUMP_TO_ORDER",
	QueueOrder:         "QUEUE_ORDER",
	JumpPattern:        "JUMP_TO_PATTERN",
	QueuePattern:       "QUEUE_PATTERN",
	LoopPattern:        "LOOP_PATTERN",
	RestartOrder:       "RESTART_ORDER",
	ChannelMute:        "CHANNEL_MUTE",
	ChannelSolo:        "CHANNEL_SOLO",
	ChannelUnmute:      "CHANNEL_UNMUTE",
	ChannelVolume:      "CHANNEL_VOLUME",
	MuteAll:            "MUTE_ALL",
	UnmuteAll:          "UNMUTE_ALL",
	MasterVolume:       "MASTER_VOLUME",
	PitchUp:            "PITCH_UP",
	PitchDown:          "PITCH_DOWN",
	PitchSet:           "PITCH_SET",
	TempoUp:            "TEMPO_UP",
	TempoDown:          "TEMPO_DOWN",
	TempoSet:           "TEMPO_SET",
	FilterCutoff:       "FILTER_CUTOFF",
	FilterResonance:    "FILTER_RESONANCE",
	EchoToggle:         "ECHO_TOGGLE",
	EchoAmount:         "ECHO_AMOUNT",
	TriggerPad:         "TRIGGER_PAD",
	TriggerPhrase:      "TRIGGER_PHRASE",
	StopPhrases:        "STOP_PHRASES",
	PerfRecord:         "PERF_RECORD",
	PerfPlay:           "PERF_PLAY",
	PerfStop:           "PERF_STOP",
	MidiSyncToggle:     "MIDI_SYNC_TOGGLE",
	MidiMasterStart:    "MIDI_MASTER_START",
	MidiMasterStop:     "MIDI_MASTER_STOP",
	MidiMasterContinue: "MIDI_MASTER_CONTINUE",
}

var byName = func() map[string]Action {
	m := make(map[string]Action, numActions)
	for i, n := range names {
		m[n] = Action(i)
	}
	return m
}()

// All returns every action except None, in declaration order.
func All() []Action {
	out := make([]Action, 0, numActions-1)
	for a := None + 1; a < numActions; a++ {
		out = append(out, a)
	}
	return out
}

// Parse looks up an action by name. Matching is case-insensitive.
// Unknown names return None and false.
func Parse(name string) (Action, bool) {
	a, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok || a == None {
		return None, false
	}
	return a, true
}

// Valid reports whether a is a known action other than None.
func (a Action) Valid() bool {
	return a > None && a < numActions
}

func (a Action) String() string {
	if a < 0 || a >= numActions {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return names[a]
}

// ParamKey returns the persisted key for the action's parameter, or "" when
// the parameter is not meaningful for this action.
func (a Action) ParamKey() string {
	switch a {
	case ChannelMute, ChannelSolo, ChannelUnmute, ChannelVolume:
		return "ch"
	case JumpOrder, QueueOrder:
		return "order"
	case JumpPattern, QueuePattern, LoopPattern:
		return "pattern"
	case TriggerPad:
		return "pad"
	case TriggerPhrase:
		return "phrase"
	}
	return ""
}

// Recordable reports whether the performance recorder should capture a.
// Recorder controls are excluded so a replay can never toggle the recorder.
func (a Action) Recordable() bool {
	switch a {
	case None, PerfRecord, PerfPlay, PerfStop:
		return false
	}
	return a.Valid()
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("unknown action %q", string(text))
	}
	*a = parsed
	return nil
}

func (a Action) MarshalYAML() (any, error) {
	return a.String(), nil
}

func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: action must be a name", value.Line)
	}
	if err := a.UnmarshalText([]byte(value.Value)); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}
