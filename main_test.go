package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-perform/config"
	"go-perform/session"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestEventsCommand(t *testing.T) {
	path := writeFile(t, "set.perf", "[Performance]\nmodule=a.xm\n\n[Events]\nEVT_01_00=CHANNEL_MUTE ch:3\nEVT_00_04=MUTE_ALL value:9\nbroken\n")

	out, errOut, err := run(t, "events", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"00", "04", "MUTE_ALL", "-", "9"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"01", "00", "CHANNEL_MUTE", "ch:3", "127"}, strings.Fields(lines[2]))
	assert.Equal(t, "2 events", lines[4])
	assert.Contains(t, errOut, "1 malformed lines skipped")

	out, _, err = run(t, "events", "--normalize", path)
	require.NoError(t, err)
	assert.Equal(t, "[Events]\nEVT_00_04=MUTE_ALL value:9\nEVT_01_00=CHANNEL_MUTE ch:3 value:127\n", out)
	require.NoError(t, eventsCmd.Flags().Set("normalize", "false"))
}

func TestEventsCommandWritesFile(t *testing.T) {
	path := writeFile(t, "set.perf", "[Performance]\nmodule=a.xm\n\n[Events]\nEVT_00_04=MUTE_ALL, PERF_RECORD\nEVT_00_01=CHANNEL_SOLO ch:1\n")
	out := filepath.Join(t.TempDir(), "frags", "set.events")

	stdout, _, err := run(t, "events", path, "-o", out)
	require.NoError(t, eventsCmd.Flags().Set("output", ""))
	require.NoError(t, err)
	assert.Equal(t, "wrote 2 events to "+out+"\n", stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[Events]\nEVT_00_01=CHANNEL_SOLO ch:1 value:127\nEVT_00_04=MUTE_ALL value:127\n", string(data))
}

func TestEventsCommandMissingFile(t *testing.T) {
	_, _, err := run(t, "events", filepath.Join(t.TempDir(), "nope.perf"))
	assert.Error(t, err)
}

func TestPhrasesCommand(t *testing.T) {
	path := writeFile(t, "phrases.yaml", `
phrases:
  - name: breakdown
    steps:
      - {offset: 0, action: MUTE_ALL}
      - {offset: 16, action: CHANNEL_UNMUTE, param: 2}
`)
	out, _, err := run(t, "phrases", path)
	require.NoError(t, err)
	assert.Contains(t, out, "breakdown")
	assert.Equal(t, []string{"1", "breakdown", "2", "17", "shift+1", "(!)"},
		strings.Fields(strings.Split(out, "\n")[1]))

	out, _, err = run(t, "phrases", path, "breakdown")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "1 breakdown [shift+1 (!)]", lines[0])
	assert.Equal(t, []string{"16", "CHANNEL_UNMUTE", "ch:2", "0"}, strings.Fields(lines[3]))

	_, _, err = run(t, "phrases", path, "nope")
	assert.ErrorContains(t, err, `no phrase named "nope"`)

	bad := writeFile(t, "bad.yaml", "phrases:\n  - name: x\n    steps:\n      - {offset: 0, action: NOPE}\n")
	_, _, err = run(t, "phrases", bad)
	assert.Error(t, err)
}

func TestInputsCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Cleanup(func() {
		configPath = ""
		_ = inputsSetCmd.Flags().Set("off", "false")
	})

	_, _, err := run(t, "--config", path, "inputs", "set", "nanoKONTROL2")
	require.NoError(t, err)
	_, _, err = run(t, "--config", path, "inputs", "set", "Launchpad")
	require.NoError(t, err)
	_, _, err = run(t, "--config", path, "inputs", "set", "Launchpad", "--off")
	require.NoError(t, err)

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []config.InputConfig{
		{PortName: "nanoKONTROL2", AutoConnect: true},
		{PortName: "Launchpad"},
	}, cfg.Inputs)

	out, _, err := run(t, "--config", path, "inputs", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Launchpad", "no"}, strings.Fields(lines[2]))

	_, _, err = run(t, "--config", path, "inputs", "rm", "nanoKONTROL2")
	require.NoError(t, err)
	_, _, err = run(t, "--config", path, "inputs", "rm", "nanoKONTROL2")
	assert.ErrorContains(t, err, "not configured")

	cfg, err = config.LoadFrom(path)
	require.NoError(t, err)
	require.Len(t, cfg.Inputs, 1)
	assert.Equal(t, "Launchpad", cfg.Inputs[0].PortName)
}

func TestPrintPerfs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPerfs(&buf, nil))
	assert.Equal(t, "no saved performances\n", buf.String())

	buf.Reset()
	require.NoError(t, printPerfs(&buf, []session.PerformanceInfo{
		{Name: "set", Module: "a.xm", Tempo: 125, Events: 3, Saved: time.Date(2024, 1, 2, 3, 4, 0, 0, time.Local)},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"set", "a.xm", "125", "3", "2024-01-02", "03:04"}, strings.Fields(lines[1]))
}

func TestApplyPlayFlags(t *testing.T) {
	require.NoError(t, playCmd.Flags().Parse([]string{"--tempo", "90", "--input", "nanoKONTROL2", "--clock"}))

	cfg := config.DefaultConfig()
	cfg.Transport.RowsPerBeat = 8
	applyPlayFlags(playCmd, cfg)
	assert.Equal(t, 90, cfg.Transport.Tempo)
	assert.Equal(t, 8, cfg.Transport.RowsPerBeat, "unset flags keep config values")
	assert.True(t, cfg.Output.Clock)
	require.Len(t, cfg.AutoConnectInputs(), 1)
	assert.Equal(t, "nanoKONTROL2", cfg.AutoConnectInputs()[0].PortName)
}
