package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-perform/config"
	"go-perform/debug"
	"go-perform/engine"
	"go-perform/mapping"
	"go-perform/midi"
	"go-perform/phrase"
	"go-perform/session"
	"go-perform/theme"
	"go-perform/tui"
)

var playFlags struct {
	tempo       int
	rowsPerBeat int
	capacity    int
	phrases     string
	inputs      []string
	output      string
	clock       bool
	module      engine.Module
}

func init() {
	rootCmd.AddCommand(playCmd)

	f := playCmd.Flags()
	f.IntVar(&playFlags.tempo, "tempo", 0, "tempo in BPM (default from config)")
	f.IntVar(&playFlags.rowsPerBeat, "rows-per-beat", 0, "rows per beat (default from config)")
	f.IntVar(&playFlags.capacity, "capacity", 0, "maximum recorded events")
	f.StringVar(&playFlags.phrases, "phrases", "", "phrase library (YAML)")
	f.StringSliceVar(&playFlags.inputs, "input", nil, "MIDI input port to watch (repeatable)")
	f.StringVar(&playFlags.output, "output", "", "MIDI output port for clock and transport")
	f.BoolVar(&playFlags.clock, "clock", false, "send MIDI timing clock while synced")
	f.StringVar(&playFlags.module.Name, "module", "(none)", "module name shown and saved with performances")
	f.IntVar(&playFlags.module.Orders, "orders", 16, "module order list length")
	f.IntVar(&playFlags.module.Patterns, "patterns", 16, "module pattern count")
	f.IntVar(&playFlags.module.Channels, "channels", 0, "module channel count (default from config)")
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the performance view",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyPlayFlags(cmd, cfg)
		if cfg.Debug && !debug.Enabled() {
			if err := debug.Enable(""); err != nil {
				return err
			}
		}
		return runPlay(cfg)
	},
}

// applyPlayFlags lets explicitly set flags override the config file
func applyPlayFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("tempo") {
		cfg.Transport.Tempo = playFlags.tempo
	}
	if f.Changed("rows-per-beat") {
		cfg.Transport.RowsPerBeat = playFlags.rowsPerBeat
	}
	if f.Changed("channels") {
		cfg.Transport.Channels = playFlags.module.Channels
	}
	if f.Changed("capacity") {
		cfg.Capacity = playFlags.capacity
	}
	if f.Changed("phrases") {
		cfg.PhraseFile = playFlags.phrases
	}
	for _, name := range playFlags.inputs {
		cfg.AddInput(config.InputConfig{PortName: name, AutoConnect: true})
	}
	if f.Changed("output") {
		cfg.Output.PortName = playFlags.output
	}
	if f.Changed("clock") {
		cfg.Output.Clock = playFlags.clock
	}
}

func runPlay(cfg *config.Config) error {
	resolver, err := mapping.FromConfig(cfg.Mappings)
	if err != nil {
		return fmt.Errorf("mappings: %w", err)
	}

	var phrases phrase.Source
	if cfg.PhraseFile != "" {
		lib, err := phrase.LoadLibrary(cfg.PhraseFile)
		if err != nil {
			return err
		}
		phrases = lib
	}

	palette := theme.DefaultPalette()
	if cfg.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.Palette); err != nil {
			return err
		}
	}

	opts := session.Options{
		Capacity:    cfg.Capacity,
		RowsPerBeat: cfg.Transport.RowsPerBeat,
		SendClock:   cfg.Output.Clock,
		Phrases:     phrases,
		Module:      playFlags.module,
	}
	opts.Module.Tempo = cfg.Transport.Tempo
	opts.Module.Channels = cfg.Transport.Channels

	if cfg.Output.PortName != "" {
		out, err := midi.OpenOutput(cfg.Output.PortName, midi.DefaultTimeout)
		if err != nil {
			return err
		}
		defer out.Close()
		opts.Clock = out
	}

	perfDir, err := session.PerformancesDir()
	if err != nil {
		return err
	}

	sess := session.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	// Watch configured inputs in background (handles hot-plug)
	var watcher *midi.Watcher
	if inputs := cfg.AutoConnectInputs(); len(inputs) > 0 {
		names := make([]string, len(inputs))
		for i, in := range inputs {
			names[i] = in.PortName
		}
		watcher = midi.NewWatcher(names)
		go watcher.Run(ctx)
	}

	m := tui.NewModel(sess, resolver, watcher, theme.New(palette), perfDir)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
