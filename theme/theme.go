package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Channel strip
	ChannelOpen  rune // □ audible
	ChannelMuted rune // ■ muted
	ChannelSolo  rune // ◆ soloed

	// Transport
	Record rune // ● recording
	Play   rune // ▶ timeline playing
	Stop   rune // ■ idle

	// Meters
	MeterFull  rune
	MeterEmpty rune
}

// New builds a theme on palette (DefaultPalette when nil)
func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			ChannelOpen:  '□',
			ChannelMuted: '■',
			ChannelSolo:  '◆',

			Record: '●',
			Play:   '▶',
			Stop:   '■',

			MeterFull:  '█',
			MeterEmpty: '·',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2
	RoleFG      = 0.6
	RoleAccent  = 0.5
	RoleRecord  = 0.45
	RoleActive  = 0.75
	RoleWarning = 0.85
	RoleSuccess = 1.0
)

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Record() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleRecord))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// RGB returns raw RGB for any normalized value
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
