package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestState_Equal(t *testing.T) {
	tests := map[string]struct {
		a, b State
		want bool
	}{
		"null":                 {a: NullState(), b: NullState(), want: true},
		"same string":          {a: StringState("on"), b: StringState("on"), want: true},
		"same number":          {a: NumberState(1), b: NumberState(1), want: true},
		"number vs its string": {a: NumberState(1), b: StringState("1"), want: false},
		"null vs empty string": {a: NullState(), b: StringState(""), want: false},
		"different numbers":    {a: NumberState(0), b: NumberState(1), want: false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "null", NullState().String())
	assert.Equal(t, "on", StringState("on").String())
	assert.Equal(t, "1", NumberState(1).String())
	assert.Equal(t, "21.5", NumberState(21.5).String())
}

func TestSnapshot_Encoding(t *testing.T) {
	snapshot := Snapshot{
		"LAMP":   NumberState(1),
		"SENSOR": StringState("21.5"),
		"HUMID":  NullState(),
	}

	b, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{"LAMP":1,"SENSOR":"21.5","HUMID":null}`, string(b))

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.True(t, decoded["LAMP"].Equal(NumberState(1)))
	assert.True(t, decoded["SENSOR"].Equal(StringState("21.5")))
	assert.True(t, decoded["HUMID"].IsNull())

	y, err := yaml.Marshal(snapshot)
	require.NoError(t, err)
	assert.Equal(t, "HUMID: null\nLAMP: 1\nSENSOR: \"21.5\"\n", string(y))
}

func TestDeviceDefinition(t *testing.T) {
	tests := map[string]struct {
		def          DeviceDefinition
		domain       Domain
		controllable bool
	}{
		"light":        {def: DeviceDefinition{Name: "lamp", EntityID: "light.lamp"}, domain: DomainLight, controllable: true},
		"climate":      {def: DeviceDefinition{Name: "fan", EntityID: "climate.fan"}, domain: DomainClimate, controllable: true},
		"sensor":       {def: DeviceDefinition{Name: "temp", EntityID: "sensor.temp"}, domain: "sensor"},
		"bus only":     {def: DeviceDefinition{Name: "humid", MqttStat: "home/humid/stat"}, domain: ""},
		"prefix match": {def: DeviceDefinition{Name: "x", EntityID: "lightning.x"}, domain: "lightning"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.domain, tt.def.Domain())
			assert.Equal(t, tt.controllable, tt.def.Controllable())
			assert.Equal(t, NormalizeName(tt.def.Name), tt.def.Key())
		})
	}
}

func TestLogTopic(t *testing.T) {
	assert.Equal(t, "", LogTopic(""))
	assert.Equal(t, "home/bridge/log", LogTopic("home/bridge"))
	assert.Equal(t, "/log", StartedTopic(""))
	assert.Equal(t, "home/bridge/log", StartedTopic("home/bridge"))
}
