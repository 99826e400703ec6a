package midi

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-perform/debug"
)

// inputBuffer is the per-port message queue depth
const inputBuffer = 64

// Input is an open MIDI input port. Incoming messages are queued on a
// buffered channel; when the reader falls behind, messages are dropped
// rather than blocking the driver callback.
type Input struct {
	name     string
	stopFunc func()
	msgs     chan gomidi.Message
	owned    bool // msgs is ours to close
	dropped  atomic.Uint64
	once     sync.Once
}

func newInput(name string, msgs chan gomidi.Message) *Input {
	in := &Input{name: name, msgs: msgs}
	if msgs == nil {
		in.msgs = make(chan gomidi.Message, inputBuffer)
		in.owned = true
	}
	return in
}

// OpenInput opens the input port matching name.
func OpenInput(name string, timeout time.Duration) (*Input, error) {
	r, err := scan(timeout)
	if err != nil {
		return nil, err
	}
	port, err := findIn(r.ins, name)
	if err != nil {
		return nil, err
	}
	return listen(port, nil)
}

// listen starts delivering messages from port into msgs (a fresh channel
// when nil).
func listen(port drivers.In, msgs chan gomidi.Message) (*Input, error) {
	in := newInput(port.String(), msgs)
	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		in.deliver(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", port.String(), err)
	}
	in.stopFunc = stop
	debug.Log("midi", "input open: %s", in.name)
	return in, nil
}

func (in *Input) deliver(msg gomidi.Message) {
	select {
	case in.msgs <- msg:
	default:
		n := in.dropped.Add(1)
		debug.LogEvery(100, "midi", "%s: dropped %d messages", in.name, n)
	}
}

// Name returns the port name.
func (in *Input) Name() string { return in.name }

// Messages returns the incoming message queue.
func (in *Input) Messages() <-chan gomidi.Message { return in.msgs }

// Dropped returns how many messages were discarded on a full queue.
func (in *Input) Dropped() uint64 { return in.dropped.Load() }

// Close stops listening. Safe to call more than once.
func (in *Input) Close() error {
	in.once.Do(func() {
		if in.stopFunc != nil {
			in.stopFunc()
		}
		if in.owned {
			close(in.msgs)
		}
		debug.Log("midi", "input closed: %s", in.name)
	})
	return nil
}
