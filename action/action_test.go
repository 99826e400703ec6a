package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseEveryName(t *testing.T) {
	for _, a := range All() {
		got, ok := Parse(a.String())
		require.True(t, ok, a.String())
		require.Equal(t, a, got)
	}
}

func TestParseUnknownAndNone(t *testing.T) {
	a, ok := Parse("EXPLODE")
	assert.False(t, ok)
	assert.Equal(t, None, a)

	a, ok = Parse("NONE")
	assert.False(t, ok)
	assert.Equal(t, None, a)

	a, ok = Parse("  mute_all ")
	assert.True(t, ok)
	assert.Equal(t, MuteAll, a)
}

func TestStringOutOfRange(t *testing.T) {
	assert.Equal(t, "Action(999)", Action(999).String())
	assert.False(t, Action(999).Valid())
	assert.False(t, Action(-1).Valid())
}

func TestParamKeyFamilies(t *testing.T) {
	cases := map[Action]string{
		ChannelMute:   "ch",
		ChannelVolume: "ch",
		JumpOrder:     "order",
		QueueOrder:    "order",
		JumpPattern:   "pattern",
		LoopPattern:   "pattern",
		TriggerPad:    "pad",
		TriggerPhrase: "phrase",
		MuteAll:       "",
		TempoSet:      "",
	}
	for a, key := range cases {
		assert.Equal(t, key, a.ParamKey(), a.String())
	}
}

func TestRecordable(t *testing.T) {
	assert.True(t, MuteAll.Recordable())
	assert.True(t, TriggerPhrase.Recordable())
	assert.False(t, PerfRecord.Recordable())
	assert.False(t, PerfPlay.Recordable())
	assert.False(t, PerfStop.Recordable())
	assert.False(t, None.Recordable())
}

func TestJSONText(t *testing.T) {
	var v struct {
		A Action `json:"a"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"channel_solo"}`), &v))
	assert.Equal(t, ChannelSolo, v.A)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"CHANNEL_SOLO"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a":"nope"}`), &v))
}

func TestYAML(t *testing.T) {
	var v struct {
		A Action `yaml:"a"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: TEMPO_UP\n"), &v))
	assert.Equal(t, TempoUp, v.A)

	err := yaml.Unmarshal([]byte("a: BOGUS\n"), &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOGUS")

	err = yaml.Unmarshal([]byte("a: [1, 2]\n"), &v)
	assert.Error(t, err)
}

func TestSinkFunc(t *testing.T) {
	var got []Action
	s := SinkFunc(func(a Action, param, value int) error {
		got = append(got, a)
		return nil
	})
	require.NoError(t, s.Execute(MuteAll, 0, 0))
	require.NoError(t, NoopSink{}.Execute(Stop, 0, 0))
	assert.Equal(t, []Action{MuteAll}, got)
	assert.Equal(t, "playback", Playback.String())
}
