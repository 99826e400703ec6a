package mapping

import (
	"strconv"

	"go-perform/action"
)

// DefaultKeys is the built-in keyboard layout. Number keys 1-8 toggle
// channel mutes, shifted numbers trigger phrases.
func DefaultKeys() map[string]Binding {
	keys := map[string]Binding{
		" ":      {Action: action.TogglePlay},
		"r":      {Action: action.PerfRecord},
		"p":      {Action: action.PerfPlay},
		"s":      {Action: action.PerfStop},
		"m":      {Action: action.MuteAll},
		"u":      {Action: action.UnmuteAll},
		"right":  {Action: action.NextOrder},
		"left":   {Action: action.PrevOrder},
		"up":     {Action: action.TempoUp},
		"down":   {Action: action.TempoDown},
		"]":      {Action: action.PitchUp},
		"[":      {Action: action.PitchDown},
		"e":      {Action: action.EchoToggle},
		"x":      {Action: action.StopPhrases},
		"home":   {Action: action.RestartOrder},
		"ctrl+s": {Action: action.MidiSyncToggle},
	}
	shifted := []string{"!", "@", "#", "$", "%", "^", "&", "*"}
	for i := 0; i < 8; i++ {
		keys[strconv.Itoa(i+1)] = Binding{Action: action.ChannelMute, Param: i}
		keys[shifted[i]] = Binding{Action: action.TriggerPhrase, Param: i}
	}
	return keys
}
