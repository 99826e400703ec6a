package phrase

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Library is a phrase Source loaded from a YAML file:
//
//	phrases:
//	  - name: breakdown
//	    steps:
//	      - {offset: 0, action: MUTE_ALL}
//	      - {offset: 16, action: CHANNEL_UNMUTE, param: 0}
type Library struct {
	Phrases []Definition `yaml:"phrases"`
}

// PhraseCount implements Source.
func (l *Library) PhraseCount() int {
	if l == nil {
		return 0
	}
	return len(l.Phrases)
}

// Phrase implements Source.
func (l *Library) Phrase(index int) (Definition, bool) {
	if l == nil || index < 0 || index >= len(l.Phrases) {
		return Definition{}, false
	}
	return l.Phrases[index], true
}

// Index returns the index of the phrase called name, or -1.
func (l *Library) Index(name string) int {
	for i, p := range l.Phrases {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// ParseLibrary decodes and validates a phrase file.
func ParseLibrary(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse phrases: %w", err)
	}
	for i, p := range lib.Phrases {
		for j, s := range p.Steps {
			if s.Offset < 0 {
				return nil, fmt.Errorf("phrase %d (%s) step %d: negative offset", i, p.Name, j)
			}
			if j > 0 && s.Offset < p.Steps[j-1].Offset {
				return nil, fmt.Errorf("phrase %d (%s) step %d: offset %d before previous step", i, p.Name, j, s.Offset)
			}
		}
	}
	return &lib, nil
}

// LoadLibrary reads a phrase file from disk.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLibrary(data)
}
