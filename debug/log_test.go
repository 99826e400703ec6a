package debug

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogWritesCategory(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("timeline", "row=%d", 12)
	Warn("dispatch", errors.New("full"), "dropped %s", "MUTE_ALL")

	out := buf.String()
	assert.Contains(t, out, "cat=timeline")
	assert.Contains(t, out, "row=12")
	assert.Contains(t, out, "dropped MUTE_ALL")
	assert.Contains(t, out, "full")
}

func TestDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	Disable()

	Log("timeline", "hidden")
	assert.False(t, Enabled())
	assert.Empty(t, buf.String())
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 6; i++ {
		LogEvery(3, "tick", "row step")
	}
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("row step")))
}
