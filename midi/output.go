package midi

import (
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-perform/debug"
)

// PulsesPerBeat is the MIDI timing clock resolution.
const PulsesPerBeat = 24

// Output is an open MIDI output port used as the master clock.
type Output struct {
	name string
	mu   sync.Mutex
	send func(msg gomidi.Message) error
}

// OpenOutput opens the output port matching name.
func OpenOutput(name string, timeout time.Duration) (*Output, error) {
	r, err := scan(timeout)
	if err != nil {
		return nil, err
	}
	port, err := findOut(r.outs, name)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", port.String(), err)
	}
	debug.Log("midi", "output open: %s", port.String())
	return &Output{name: port.String(), send: send}, nil
}

// Name returns the port name.
func (o *Output) Name() string { return o.name }

func (o *Output) write(msg gomidi.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return nil
	}
	if err := o.send(msg); err != nil {
		return fmt.Errorf("midi out %s: %w", o.name, err)
	}
	return nil
}

// Start sends a MIDI start.
func (o *Output) Start() error { return o.write(gomidi.Start()) }

// Stop sends a MIDI stop.
func (o *Output) Stop() error { return o.write(gomidi.Stop()) }

// Continue sends a MIDI continue.
func (o *Output) Continue() error { return o.write(gomidi.Continue()) }

// Pulse sends n timing clock messages.
func (o *Output) Pulse(n int) error {
	for i := 0; i < n; i++ {
		if err := o.write(gomidi.TimingClock()); err != nil {
			return err
		}
	}
	return nil
}

// Close silences the port. The driver keeps the port itself.
func (o *Output) Close() error {
	o.mu.Lock()
	o.send = nil
	o.mu.Unlock()
	return nil
}
