// Package widgets renders the small building blocks of the status view.
package widgets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPad renders a single colored cell
func RenderPad(color [3]uint8, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(symbol))
}

// Cell is one entry of a strip
type Cell struct {
	Color  [3]uint8
	Symbol rune
}

// RenderStrip renders cells with spacing, numbered underneath from 1
func RenderStrip(cells []Cell) string {
	var top, bottom strings.Builder
	for i, c := range cells {
		if i > 0 {
			top.WriteString(" ")
			bottom.WriteString(" ")
		}
		top.WriteString(RenderPad(c.Color, c.Symbol))
		bottom.WriteString(fmt.Sprintf("%d", (i+1)%10))
	}
	return top.String() + "\n" + bottom.String()
}

// Meter renders a fixed-width fill bar for n of total
func Meter(n, total, width int, full, empty rune) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = n * width / total
	}
	if n > 0 && filled == 0 {
		filled = 1
	}
	filled = min(filled, width)
	return strings.Repeat(string(full), filled) + strings.Repeat(string(empty), width-filled)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-8s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// SortKeys orders bindings by key name
func SortKeys(keys []KeyBinding) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Key < keys[j].Key })
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
