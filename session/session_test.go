package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-perform/action"
	"go-perform/engine"
	"go-perform/mapping"
	"go-perform/phrase"
	"go-perform/timeline"
)

func newSession(t *testing.T, src phrase.Source) *Session {
	t.Helper()
	return New(Options{
		Module:  engine.Module{Name: "acid.xm", Orders: 4, Patterns: 4, Channels: 4, Tempo: 140},
		Phrases: src,
	})
}

func press(t *testing.T, s *Session, a action.Action, param int) {
	t.Helper()
	require.NoError(t, s.Handle(mapping.Binding{Action: a, Param: param}))
}

func allMuted(st Status) bool {
	for _, ch := range st.Engine.Channels {
		if !ch.Muted {
			return false
		}
	}
	return true
}

func TestRecordAndReplay(t *testing.T) {
	s := newSession(t, nil)

	press(t, s, action.PerfRecord, 0)
	st := s.Status()
	require.True(t, st.Recording)
	require.True(t, st.Playing, "recording runs the clock")

	press(t, s, action.ChannelMute, 1)
	s.Row()
	s.Row()
	press(t, s, action.MuteAll, 0)
	press(t, s, action.PerfStop, 0)

	assert.Equal(t, []timeline.Event{
		{Row: 0, Action: action.ChannelMute, Param: 1},
		{Row: 2, Action: action.MuteAll},
	}, s.Events())

	press(t, s, action.UnmuteAll, 0)
	assert.Len(t, s.Events(), 2, "not recording")

	press(t, s, action.PerfPlay, 0)
	st = s.Status()
	assert.True(t, st.Playing)
	assert.True(t, st.Engine.Channels[1].Muted, "row 0 replays on play")
	assert.False(t, st.Engine.Channels[0].Muted)

	s.Row()
	assert.False(t, allMuted(s.Status()))
	s.Row()
	st = s.Status()
	assert.True(t, allMuted(st))
	assert.Equal(t, 2, st.Row)
	assert.Contains(t, st.LastAction, "playback")
	assert.Len(t, s.Events(), 2, "replayed events are not recorded again")
}

func TestPhraseStepsNotRecorded(t *testing.T) {
	lib := &phrase.Library{Phrases: []phrase.Definition{{
		Name: "fill",
		Steps: []phrase.Step{
			{Offset: 0, Action: action.MuteAll},
			{Offset: 1, Action: action.UnmuteAll},
		},
	}}}
	s := newSession(t, lib)

	press(t, s, action.PerfRecord, 0)
	press(t, s, action.TriggerPhrase, 0)
	st := s.Status()
	assert.Equal(t, 0, st.Phrase)
	assert.Equal(t, "fill", st.PhraseName)

	s.Row()
	st = s.Status()
	assert.True(t, allMuted(st))
	assert.Contains(t, st.LastAction, "phrase")

	s.Row()
	st = s.Status()
	assert.False(t, allMuted(st))
	assert.Equal(t, -1, st.Phrase, "phrase completed")

	assert.Equal(t, []timeline.Event{{Row: 0, Action: action.TriggerPhrase}}, s.Events())
}

func TestReplayedPhraseKeepsLiveTiming(t *testing.T) {
	lib := &phrase.Library{Phrases: []phrase.Definition{{
		Name:  "drop",
		Steps: []phrase.Step{{Offset: 0, Action: action.MuteAll}},
	}}}
	s := newSession(t, lib)

	firstMutedRow := func() int {
		t.Helper()
		for i := 0; i < 8; i++ {
			s.Row()
			if st := s.Status(); allMuted(st) {
				return st.Row
			}
		}
		t.Fatal("phrase never fired")
		return -1
	}

	press(t, s, action.PerfRecord, 0)
	s.Row()
	s.Row()
	press(t, s, action.TriggerPhrase, 0)
	live := firstMutedRow()
	press(t, s, action.PerfStop, 0)
	press(t, s, action.UnmuteAll, 0)
	require.Equal(t, []timeline.Event{{Row: 2, Action: action.TriggerPhrase}}, s.Events())

	press(t, s, action.PerfPlay, 0)
	replayed := firstMutedRow()
	assert.Equal(t, 3, live)
	assert.Equal(t, live, replayed)
}

func TestReplayIgnoresRecorderControls(t *testing.T) {
	dir := t.TempDir()
	data := "[Performance]\nmodule=acid.xm\n\n[Events]\nEVT_00_00=MUTE_ALL\nEVT_00_01=PERF_RECORD\nEVT_00_02=UNMUTE_ALL\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "set.perf"), []byte(data), 0644))

	s := newSession(t, nil)
	skipped, err := s.LoadPerformance(dir, "set")
	require.NoError(t, err)
	require.Zero(t, skipped)
	require.Equal(t, 2, s.Status().Events)

	press(t, s, action.PerfPlay, 0)
	assert.True(t, allMuted(s.Status()))
	s.Row()
	s.Row()
	st := s.Status()
	assert.False(t, st.Recording)
	assert.True(t, st.Playing)
	assert.Equal(t, 2, st.Events)
	assert.False(t, allMuted(st))
}

func TestNestedTriggerRefused(t *testing.T) {
	lib := &phrase.Library{Phrases: []phrase.Definition{
		{Name: "outer", Steps: []phrase.Step{
			{Offset: 0, Action: action.TriggerPhrase, Param: 1},
			{Offset: 0, Action: action.MuteAll},
		}},
		{Name: "inner", Steps: []phrase.Step{
			{Offset: 0, Action: action.UnmuteAll},
		}},
	}}
	s := newSession(t, lib)

	press(t, s, action.TriggerPhrase, 0)
	s.Row()

	st := s.Status()
	assert.Equal(t, -1, st.Phrase, "inner phrase never started")
	assert.True(t, allMuted(st), "outer phrase kept running")
}

func TestTriggerWithoutPhrases(t *testing.T) {
	s := newSession(t, nil)
	err := s.Handle(mapping.Binding{Action: action.TriggerPhrase})
	assert.ErrorIs(t, err, phrase.ErrNotReady)
	assert.NotEmpty(t, s.Status().LastError)

	press(t, s, action.StopPhrases, 0)
	assert.Empty(t, s.Status().LastError)
}

func TestPerfPlayToggle(t *testing.T) {
	s := newSession(t, nil)

	press(t, s, action.PerfPlay, 0)
	assert.True(t, s.Status().Playing)
	press(t, s, action.PerfPlay, 0)
	assert.False(t, s.Status().Playing)

	press(t, s, action.PerfRecord, 0)
	s.Row()
	press(t, s, action.PerfPlay, 0)
	st := s.Status()
	assert.False(t, st.Recording)
	assert.True(t, st.Playing)
	assert.Equal(t, 0, st.Row)

	press(t, s, action.PerfRecord, 0)
	press(t, s, action.PerfRecord, 0)
	st = s.Status()
	assert.False(t, st.Recording)
	assert.False(t, st.Playing)
}

func TestCapacityIsSoft(t *testing.T) {
	s := New(Options{Capacity: 1})
	press(t, s, action.PerfRecord, 0)
	press(t, s, action.ChannelMute, 0)
	press(t, s, action.ChannelMute, 1)

	st := s.Status()
	assert.Equal(t, 1, st.Events)
	assert.True(t, st.Engine.Channels[1].Muted, "still executed")
}

func TestEngineErrorsSurface(t *testing.T) {
	s := newSession(t, nil)
	err := s.Handle(mapping.Binding{Action: action.JumpOrder, Param: 9})
	assert.Error(t, err)
	assert.Contains(t, s.Status().LastError, "out of range")
}

func TestLoadModuleClears(t *testing.T) {
	lib := &phrase.Library{Phrases: []phrase.Definition{{Name: "a", Steps: []phrase.Step{{Offset: 4, Action: action.MuteAll}}}}}
	s := newSession(t, lib)
	press(t, s, action.PerfRecord, 0)
	press(t, s, action.MuteAll, 0)
	press(t, s, action.TriggerPhrase, 0)

	s.LoadModule(engine.Module{Name: "next.mod", Channels: 6}, nil)
	st := s.Status()
	assert.Zero(t, st.Events)
	assert.False(t, st.Recording)
	assert.Equal(t, -1, st.Phrase)
	assert.Len(t, st.Engine.Channels, 6)
	assert.Equal(t, "next.mod", st.Engine.Module.Name)
}

type pulseClock struct {
	starts int
	pulses int
}

func (c *pulseClock) Start() error {
	c.starts++
	return nil
}

func (c *pulseClock) Stop() error     { return nil }

func (c *pulseClock) Continue() error { return nil }

func (c *pulseClock) Pulse(n int) error {
	c.pulses += n
	return nil
}

func TestClockPulses(t *testing.T) {
	clock := &pulseClock{}
	s := New(Options{Clock: clock, SendClock: true, RowsPerBeat: 4})

	press(t, s, action.Play, 0)
	s.Row()
	assert.Zero(t, clock.pulses, "sync off")

	press(t, s, action.MidiSyncToggle, 0)
	press(t, s, action.Stop, 0)
	press(t, s, action.Play, 0)
	assert.Equal(t, 1, clock.starts)
	s.Row()
	s.Row()
	assert.Equal(t, 12, clock.pulses)
}

func TestClockPulsesCarryRemainder(t *testing.T) {
	for _, rpb := range []int{5, 7, 32} {
		clock := &pulseClock{}
		s := New(Options{Clock: clock, SendClock: true, RowsPerBeat: rpb})
		press(t, s, action.MidiSyncToggle, 0)
		press(t, s, action.Play, 0)
		for i := 0; i < 3*rpb; i++ {
			s.Row()
		}
		assert.Equal(t, 3*24, clock.pulses, "rows per beat %d", rpb)
	}
}

func TestRowInterval(t *testing.T) {
	assert.Equal(t, 120*time.Millisecond, rowInterval(125, 4))

	s := New(Options{})
	before := s.RowInterval()
	press(t, s, action.TempoUp, 0)
	assert.Less(t, s.RowInterval(), before)
}

func TestRunHandlesSubmittedInput(t *testing.T) {
	s := newSession(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.True(t, s.Submit(mapping.Binding{Action: action.MuteAll}))
	require.Eventually(t, func() bool {
		return allMuted(s.Status())
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestSubmitDropsWhenFull(t *testing.T) {
	s := newSession(t, nil)
	for i := 0; i < inputBuffer; i++ {
		require.True(t, s.Submit(mapping.Binding{Action: action.PitchUp}))
	}
	assert.False(t, s.Submit(mapping.Binding{Action: action.PitchUp}))
}
