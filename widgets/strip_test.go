package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestMeter(t *testing.T) {
	assert.Equal(t, "....", Meter(0, 100, 4, '#', '.'))
	assert.Equal(t, "#...", Meter(1, 100, 4, '#', '.'), "any content shows")
	assert.Equal(t, "##..", Meter(50, 100, 4, '#', '.'))
	assert.Equal(t, "####", Meter(200, 100, 4, '#', '.'))
	assert.Equal(t, "", Meter(1, 1, 0, '#', '.'))
}

func TestRenderStrip(t *testing.T) {
	out := RenderStrip([]Cell{{Symbol: 'a'}, {Symbol: 'b'}, {Symbol: 'c'}})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "1 2 3", lines[1])
	assert.Equal(t, 5, lipgloss.Width(lines[0]))
}

func TestRenderKeyHelp(t *testing.T) {
	keys := []KeyBinding{{"r", "record"}, {"m", "mute all"}}
	SortKeys(keys)
	out := RenderKeyHelp([]KeySection{{Title: "Perform", Keys: keys}})
	assert.Equal(t, "Perform\n  m        mute all\n  r        record", out)
}
