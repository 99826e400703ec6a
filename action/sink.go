package action

// Origin tags where a dispatched action came from. The dispatcher uses it to
// decide whether an action may be recorded.
type Origin int

const (
	UserInput  Origin = iota // keys, MIDI notes and CCs
	Playback                 // replayed from the performance timeline
	PhraseStep               // fired by the phrase sequencer
)

func (o Origin) String() string {
	switch o {
	case UserInput:
		return "input"
	case Playback:
		return "playback"
	case PhraseStep:
		return "phrase"
	}
	return "unknown"
}

// Sink applies the side effect of an action (mute, jump, pitch change...).
// Execute runs synchronously and must be done before it returns.
type Sink interface {
	Execute(a Action, param, value int) error
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(a Action, param, value int) error

// Execute calls f.
func (f SinkFunc) Execute(a Action, param, value int) error {
	return f(a, param, value)
}

// NoopSink drops all actions.
type NoopSink struct{}

// Execute ignores the action.
func (NoopSink) Execute(a Action, param, value int) error {
	return nil
}
