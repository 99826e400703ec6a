// Package midi connects the controls to MIDI hardware: input ports feed
// mapped actions, an output port carries master clock commands.
package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DefaultTimeout bounds a port scan. CoreMIDI can hang.
const DefaultTimeout = 3 * time.Second

var (
	ErrScanTimeout  = errors.New("midi: port scan timed out")
	ErrPortNotFound = errors.New("midi: port not found")
)

// Ports lists the port names seen by one scan.
type Ports struct {
	In  []string
	Out []string
}

type scanResult struct {
	ins  []drivers.In
	outs []drivers.Out
}

// scan fetches the driver's ports, giving up after timeout.
func scan(timeout time.Duration) (scanResult, error) {
	ch := make(chan scanResult, 1)
	go func() {
		ins := gomidi.GetInPorts()
		outs := gomidi.GetOutPorts()
		ch <- scanResult{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		return r, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return scanResult{}, ErrScanTimeout
	}
}

// ListPorts returns the names of all input and output ports.
func ListPorts(timeout time.Duration) (Ports, error) {
	r, err := scan(timeout)
	if err != nil {
		return Ports{}, err
	}
	var p Ports
	for _, in := range r.ins {
		p.In = append(p.In, in.String())
	}
	for _, out := range r.outs {
		p.Out = append(p.Out, out.String())
	}
	return p, nil
}

// matchPort returns the index of the port called want. An exact
// (case-insensitive) match wins over a substring match; -1 when none.
func matchPort(names []string, want string) int {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return -1
	}
	partial := -1
	for i, name := range names {
		name = strings.ToLower(name)
		if name == want {
			return i
		}
		if partial < 0 && strings.Contains(name, want) {
			partial = i
		}
	}
	return partial
}

func findIn(ins []drivers.In, want string) (drivers.In, error) {
	names := make([]string, len(ins))
	for i, p := range ins {
		names[i] = p.String()
	}
	i := matchPort(names, want)
	if i < 0 {
		return nil, fmt.Errorf("%w: input %q", ErrPortNotFound, want)
	}
	return ins[i], nil
}

func findOut(outs []drivers.Out, want string) (drivers.Out, error) {
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	i := matchPort(names, want)
	if i < 0 {
		return nil, fmt.Errorf("%w: output %q", ErrPortNotFound, want)
	}
	return outs[i], nil
}
