package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go-perform/config"
	"go-perform/mapping"
	"go-perform/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "monitor":
		err = monitor(arg(2))
	case "clock":
		err = clock(arg(2))
	case "watch":
		err = watch(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List all MIDI ports")
	fmt.Println("  monitor <port>  - Print messages and the actions they map to")
	fmt.Println("  clock <port>    - Send start, 4 beats of clock, stop")
	fmt.Println("  watch <port>... - Report connects/disconnects")
}

func listPorts() error {
	fmt.Println("(waiting up to 3 seconds...)")
	ports, err := midi.ListPorts(midi.DefaultTimeout)
	if err != nil {
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ports.In {
		fmt.Printf("  %d: %s\n", i, p)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range ports.Out {
		fmt.Printf("  %d: %s\n", i, p)
	}
	return nil
}

func monitor(port string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	resolver, err := mapping.FromConfig(cfg.Mappings)
	if err != nil {
		return err
	}

	in, err := midi.OpenInput(port, midi.DefaultTimeout)
	if err != nil {
		return err
	}
	defer in.Close()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.Name())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n%d messages dropped\n", in.Dropped())
			return nil
		case msg := <-in.Messages():
			if b, ok := resolver.ResolveMessage(msg); ok {
				fmt.Printf("%-32s -> %s p=%d v=%d\n", msg, b.Action, b.Param, b.Value)
			} else {
				fmt.Printf("%-32s    (unmapped)\n", msg)
			}
		}
	}
}

func clock(port string) error {
	out, err := midi.OpenOutput(port, midi.DefaultTimeout)
	if err != nil {
		return err
	}
	defer out.Close()

	const bpm = 120
	pulse := time.Minute / (bpm * midi.PulsesPerBeat)

	fmt.Printf("Sending clock to %s at %d BPM\n", out.Name(), bpm)
	if err := out.Start(); err != nil {
		return err
	}
	for i := 0; i < 4*midi.PulsesPerBeat; i++ {
		if err := out.Pulse(1); err != nil {
			return err
		}
		if i%midi.PulsesPerBeat == 0 {
			fmt.Printf("  beat %d\n", i/midi.PulsesPerBeat+1)
		}
		time.Sleep(pulse)
	}
	return out.Stop()
}

func watch(ports []string) error {
	if len(ports) == 0 {
		return fmt.Errorf("no ports to watch")
	}
	fmt.Println("Polling for device changes. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := midi.NewWatcher(ports)
	go w.Run(ctx)

	for ev := range w.Events() {
		state := "connected"
		if ev.Type == midi.DeviceDisconnected {
			state = "disconnected"
		}
		fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), ev.Port, state)
	}
	return nil
}
