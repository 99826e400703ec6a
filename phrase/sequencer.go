// Package phrase runs short authored action programs ("phrases") on a
// relative row timeline.
package phrase

import (
	"errors"

	"go-perform/action"
	"go-perform/debug"
)

// MaxActive is the number of playback slots. Trigger only ever uses slot 0.
const MaxActive = 16

var (
	ErrNotReady     = errors.New("phrase: no phrase source")
	ErrInvalidIndex = errors.New("phrase: invalid phrase index")
	ErrEmptyPhrase  = errors.New("phrase: phrase has no steps")
)

// Step fires an action Offset rows after the phrase was triggered.
type Step struct {
	Offset int           `yaml:"offset"`
	Action action.Action `yaml:"action"`
	Param  int           `yaml:"param,omitempty"`
	Value  int           `yaml:"value,omitempty"`
}

// Definition is an authored phrase. Steps are ordered by Offset.
type Definition struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Source owns the phrase definitions of the loaded module.
type Source interface {
	PhraseCount() int
	Phrase(index int) (Definition, bool)
}

// Listener receives the sequencer's side effects.
type Listener interface {
	// PhraseStep executes one step of the phrase at index.
	PhraseStep(index int, s Step)
	// PhraseReset runs before a trigger clears the running slots.
	PhraseReset(index int)
	// PhraseComplete runs when the last step of a phrase has fired.
	PhraseComplete(index int)
}

// Slot is one playback slot. Phrase is -1 when the slot is idle.
type Slot struct {
	Phrase   int
	Step     int
	Position int
}

func (s Slot) Active() bool { return s.Phrase >= 0 }

// Sequencer advances triggered phrases once per row.
type Sequencer struct {
	src      Source
	listener Listener
	slots    [MaxActive]Slot
	gen      int // bumped whenever the slot table is cleared

	executing bool
}

// New returns a sequencer reading phrases from src and reporting to l.
// Either may be nil.
func New(src Source, l Listener) *Sequencer {
	s := &Sequencer{src: src, listener: l}
	s.clear()
	return s
}

func (s *Sequencer) clear() {
	s.gen++
	for i := range s.slots {
		s.slots[i] = Slot{Phrase: -1}
	}
}

// SetSource points the sequencer at a new module's phrases and stops
// anything that was running.
func (s *Sequencer) SetSource(src Source) {
	if s == nil {
		return
	}
	s.src = src
	s.clear()
}

// Trigger starts the phrase at index from its first step, replacing
// whatever was playing.
func (s *Sequencer) Trigger(index int) error {
	if s == nil || s.src == nil {
		return ErrNotReady
	}
	if index < 0 || index >= s.src.PhraseCount() {
		return ErrInvalidIndex
	}
	def, ok := s.src.Phrase(index)
	if !ok {
		return ErrInvalidIndex
	}
	if len(def.Steps) == 0 {
		return ErrEmptyPhrase
	}

	if s.listener != nil {
		s.listener.PhraseReset(index)
	}
	s.clear()
	s.slots[0] = Slot{Phrase: index}
	debug.Log("phrase", "trigger %d %q (%d steps)", index, def.Name, len(def.Steps))
	return nil
}

// Update fires every due step of each active slot and advances it by one
// row. Call once per transport row while playing.
func (s *Sequencer) Update() {
	if s == nil {
		return
	}
	for i := range s.slots {
		slot := &s.slots[i]
		if !slot.Active() {
			continue
		}
		def, ok := s.phrase(slot.Phrase)
		if !ok {
			*slot = Slot{Phrase: -1}
			continue
		}

		for slot.Step < len(def.Steps) && def.Steps[slot.Step].Offset <= slot.Position {
			gen := s.gen
			step := def.Steps[slot.Step]
			slot.Step++
			s.fire(slot.Phrase, step)
			if s.gen != gen {
				// the step stopped or retriggered phrases; the table is new
				return
			}
		}
		slot.Position++

		// Position has already advanced, so a finished phrase always
		// covered at least one row and completes here.
		if slot.Step >= len(def.Steps) {
			index, played := slot.Phrase, slot.Position
			*slot = Slot{Phrase: -1}
			if s.listener != nil {
				s.listener.PhraseComplete(index)
			}
			debug.Log("phrase", "complete %d after %d rows", index, played)
		}
	}
}

func (s *Sequencer) phrase(index int) (Definition, bool) {
	if s.src == nil || index < 0 || index >= s.src.PhraseCount() {
		return Definition{}, false
	}
	return s.src.Phrase(index)
}

func (s *Sequencer) fire(index int, step Step) {
	if s.listener == nil {
		return
	}
	s.executing = true
	defer func() { s.executing = false }()
	s.listener.PhraseStep(index, step)
}

// StopAll clears every slot without firing completion.
func (s *Sequencer) StopAll() {
	if s == nil {
		return
	}
	s.clear()
}

// Executing reports whether a step callback is running right now.
func (s *Sequencer) Executing() bool {
	return s != nil && s.executing
}

// IsActive reports whether any slot is playing.
func (s *Sequencer) IsActive() bool {
	return s.ActiveCount() > 0
}

// ActiveCount returns the number of playing slots.
func (s *Sequencer) ActiveCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, slot := range s.slots {
		if slot.Active() {
			n++
		}
	}
	return n
}

// Slots returns a copy of the slot table.
func (s *Sequencer) Slots() [MaxActive]Slot {
	if s == nil {
		var idle [MaxActive]Slot
		for i := range idle {
			idle[i].Phrase = -1
		}
		return idle
	}
	return s.slots
}
