package midi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestMatchPort(t *testing.T) {
	names := []string{"Launchpad X LPX MIDI", "nanoKONTROL2", "nanoKONTROL2 CTRL"}
	assert.Equal(t, 2, matchPort(names, "nanokontrol2 ctrl"))
	assert.Equal(t, 1, matchPort(names, "NANOKONTROL2"))
	assert.Equal(t, 0, matchPort(names, "launchpad"))
	assert.Equal(t, -1, matchPort(names, "keystation"))
	assert.Equal(t, -1, matchPort(names, "  "))
}

func TestReconcile(t *testing.T) {
	present := []string{"Through", "nanoKONTROL2", "Keystation 49"}

	toOpen, toClose := reconcile([]string{"nano", "keystation"}, present, map[string]bool{})
	assert.Equal(t, []int{1, 2}, toOpen)
	assert.Empty(t, toClose)

	toOpen, toClose = reconcile([]string{"nano", "keystation"}, present[:2],
		map[string]bool{"nanoKONTROL2": true, "Keystation 49": true})
	assert.Empty(t, toOpen)
	assert.Equal(t, []string{"Keystation 49"}, toClose)

	toOpen, _ = reconcile([]string{"nano", "nanokontrol2"}, present, map[string]bool{})
	assert.Equal(t, []int{1}, toOpen, "two names matching one port open it once")
}

func TestInputDropsWhenFull(t *testing.T) {
	in := newInput("test", nil)
	for i := 0; i < inputBuffer+5; i++ {
		in.deliver(gomidi.NoteOn(0, 60, 100))
	}
	assert.Len(t, in.Messages(), inputBuffer)
	assert.Equal(t, uint64(5), in.Dropped())

	require.NoError(t, in.Close())
	require.NoError(t, in.Close())
	n := 0
	for range in.Messages() {
		n++
	}
	assert.Equal(t, inputBuffer, n)
}

func TestInputSharedChannelStaysOpen(t *testing.T) {
	shared := make(chan gomidi.Message, 1)
	in := newInput("test", shared)
	in.deliver(gomidi.ControlChange(0, 7, 1))
	require.NoError(t, in.Close())

	msg, ok := <-shared
	require.True(t, ok)
	assert.Equal(t, gomidi.ControlChange(0, 7, 1), msg)
	shared <- gomidi.ControlChange(0, 7, 2)
	assert.Len(t, shared, 1)
}

func TestOutputClock(t *testing.T) {
	var sent []gomidi.Message
	o := &Output{name: "test", send: func(msg gomidi.Message) error {
		sent = append(sent, msg)
		return nil
	}}

	require.NoError(t, o.Start())
	require.NoError(t, o.Pulse(3))
	require.NoError(t, o.Continue())
	require.NoError(t, o.Stop())

	require.Len(t, sent, 6)
	assert.Equal(t, gomidi.Start(), sent[0])
	assert.Equal(t, gomidi.TimingClock(), sent[1])
	assert.Equal(t, gomidi.Continue(), sent[4])
	assert.Equal(t, gomidi.Stop(), sent[5])

	require.NoError(t, o.Close())
	require.NoError(t, o.Start())
	assert.Len(t, sent, 6, "closed output sends nothing")
}

func TestOutputError(t *testing.T) {
	boom := errors.New("boom")
	o := &Output{name: "test", send: func(gomidi.Message) error { return boom }}
	assert.ErrorIs(t, o.Pulse(2), boom)
}
