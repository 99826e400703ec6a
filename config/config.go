package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go-perform/action"
)

// AppName names the config directory under ~/.config
const AppName = "go-perform"

// InputConfig defines a saved MIDI input
type InputConfig struct {
	PortName    string `json:"portName"`
	AutoConnect bool   `json:"autoConnect"`
}

// OutputConfig defines the MIDI output used for clock / master commands
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
	Clock    bool   `json:"clock,omitempty"` // send timing clock while playing
}

// TransportConfig sets the row clock
type TransportConfig struct {
	Tempo       int `json:"tempo"`
	RowsPerBeat int `json:"rowsPerBeat"`
	Channels    int `json:"channels"`
}

// KeyMapping binds a terminal key to an action
type KeyMapping struct {
	Key    string        `json:"key"`
	Action action.Action `json:"action"`
	Param  int           `json:"param,omitempty"`
	Value  int           `json:"value,omitempty"`
}

// CCMapping binds a MIDI controller to an action. The CC value becomes the
// action value. Channel -1 matches any channel.
type CCMapping struct {
	Channel    int           `json:"channel"`
	Controller int           `json:"controller"`
	Action     action.Action `json:"action"`
	Param      int           `json:"param,omitempty"`
}

// NoteMapping binds a MIDI note to an action. Velocity becomes the value.
type NoteMapping struct {
	Channel int           `json:"channel"`
	Note    int           `json:"note"`
	Action  action.Action `json:"action"`
	Param   int           `json:"param,omitempty"`
}

// Mappings is the input binding table
type Mappings struct {
	Keys  []KeyMapping  `json:"keys,omitempty"`
	CC    []CCMapping   `json:"cc,omitempty"`
	Notes []NoteMapping `json:"notes,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Inputs     []InputConfig   `json:"inputs,omitempty"`
	Output     OutputConfig    `json:"output,omitempty"`
	Transport  TransportConfig `json:"transport"`
	Capacity   int             `json:"capacity,omitempty"`
	PhraseFile string          `json:"phraseFile,omitempty"`
	Palette    string          `json:"palette,omitempty"` // GIMP .gpl file
	Mappings   Mappings        `json:"mappings,omitempty"`
	Debug      bool            `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Tempo:       125,
			RowsPerBeat: 4,
			Channels:    8,
		},
		Capacity: 10000,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, or returns defaults if not found.
// Zero transport values fall back to the defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fill()
	return cfg, nil
}

func (c *Config) fill() {
	def := DefaultConfig()
	if c.Transport.Tempo <= 0 {
		c.Transport.Tempo = def.Transport.Tempo
	}
	if c.Transport.RowsPerBeat <= 0 {
		c.Transport.RowsPerBeat = def.Transport.RowsPerBeat
	}
	if c.Transport.Channels <= 0 {
		c.Transport.Channels = def.Transport.Channels
	}
	if c.Capacity <= 0 {
		c.Capacity = def.Capacity
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindInput finds an input config by port name
func (c *Config) FindInput(portName string) *InputConfig {
	for i := range c.Inputs {
		if c.Inputs[i].PortName == portName {
			return &c.Inputs[i]
		}
	}
	return nil
}

// AddInput adds or updates an input config
func (c *Config) AddInput(in InputConfig) {
	for i := range c.Inputs {
		if c.Inputs[i].PortName == in.PortName {
			c.Inputs[i] = in
			return
		}
	}
	c.Inputs = append(c.Inputs, in)
}

// RemoveInput drops the input config for portName
func (c *Config) RemoveInput(portName string) {
	for i := range c.Inputs {
		if c.Inputs[i].PortName == portName {
			c.Inputs = append(c.Inputs[:i], c.Inputs[i+1:]...)
			return
		}
	}
}

// AutoConnectInputs returns inputs with autoConnect enabled
func (c *Config) AutoConnectInputs() []InputConfig {
	var result []InputConfig
	for _, in := range c.Inputs {
		if in.AutoConnect {
			result = append(result, in)
		}
	}
	return result
}
