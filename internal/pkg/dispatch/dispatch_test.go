package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
	"github.com/anicoll/smarthome-mcp/internal/pkg/registry"
)

type serviceCall struct {
	domain  string
	service string
	data    map[string]any
}

type MockHub struct {
	ConnectedFunc   func() bool
	CallServiceFunc func(ctx context.Context, domain, service string, data map[string]any) (json.RawMessage, error)

	calls []serviceCall
}

func (m *MockHub) Connected() bool {
	if m.ConnectedFunc != nil {
		return m.ConnectedFunc()
	}
	return true
}

func (m *MockHub) CallService(ctx context.Context, domain, service string, data map[string]any) (json.RawMessage, error) {
	m.calls = append(m.calls, serviceCall{domain: domain, service: service, data: data})
	if m.CallServiceFunc != nil {
		return m.CallServiceFunc(ctx, domain, service, data)
	}
	return json.RawMessage(`{"context":{"id":"1"}}`), nil
}

type MockBus struct {
	PublishFunc func(topic, payload string) error

	published map[string]string
}

func (m *MockBus) Publish(topic, payload string) error {
	if m.published == nil {
		m.published = map[string]string{}
	}
	m.published[topic] = payload
	if m.PublishFunc != nil {
		return m.PublishFunc(topic, payload)
	}
	return nil
}

func disconnected() bool { return false }

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]model.DeviceDefinition{
		{Name: "LAMP", EntityID: "light.lamp"},
		{Name: "FAN", EntityID: "climate.fan"},
		{Name: "HUMID", MqttStat: "home/humid/stat"},
		{Name: "SENSOR", EntityID: "sensor.temperature"},
		{Name: "BARE"},
		{Name: "BOTH", EntityID: "light.both", MqttStat: "home/both/stat"},
	})
	require.NoError(t, err)
	return reg
}

func TestChangeState_HubServices(t *testing.T) {
	tests := map[string]struct {
		name        string
		value       model.State
		wantDomain  string
		wantService string
		wantEntity  string
	}{
		"light toggles regardless of value": {
			name: "lamp", value: model.StringState("1"),
			wantDomain: "homeassistant", wantService: "toggle", wantEntity: "light.lamp",
		},
		"light toggles on zero too": {
			name: "LAMP", value: model.StringState("0"),
			wantDomain: "homeassistant", wantService: "toggle", wantEntity: "light.lamp",
		},
		"climate on": {
			name: "FAN", value: model.StringState("1"),
			wantDomain: "climate", wantService: "turn_on", wantEntity: "climate.fan",
		},
		"climate on from number": {
			name: "fan", value: model.NumberState(1),
			wantDomain: "climate", wantService: "turn_on", wantEntity: "climate.fan",
		},
		"climate on from word": {
			name: "fan", value: model.StringState("on"),
			wantDomain: "climate", wantService: "turn_on", wantEntity: "climate.fan",
		},
		"climate off": {
			name: "FAN", value: model.StringState("0"),
			wantDomain: "climate", wantService: "turn_off", wantEntity: "climate.fan",
		},
		"entity wins over bus topic": {
			name: "both", value: model.StringState("1"),
			wantDomain: "homeassistant", wantService: "toggle", wantEntity: "light.both",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			hub := &MockHub{}
			bus := &MockBus{}
			d := New(newRegistry(t), hub, bus)

			res, err := d.ChangeState(context.Background(), tt.name, tt.value)
			require.NoError(t, err)
			assert.True(t, res.OK)
			assert.JSONEq(t, `{"context":{"id":"1"}}`, string(res.Res))

			require.Len(t, hub.calls, 1)
			assert.Equal(t, serviceCall{
				domain:  tt.wantDomain,
				service: tt.wantService,
				data:    map[string]any{"entity_id": tt.wantEntity},
			}, hub.calls[0])
			assert.Empty(t, bus.published)
		})
	}
}

func TestChangeState_BusPublish(t *testing.T) {
	hub := &MockHub{}
	bus := &MockBus{}
	d := New(newRegistry(t), hub, bus)

	res, err := d.ChangeState(context.Background(), "humid", model.StringState("1"))
	require.NoError(t, err)
	assert.Equal(t, Result{OK: true}, res)
	assert.Equal(t, map[string]string{"home/humid/stat": "1"}, bus.published)
	assert.Empty(t, hub.calls)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(b))
}

func TestChangeState_Errors(t *testing.T) {
	tests := map[string]struct {
		name      string
		connected func() bool
		wantErr   error
	}{
		"unknown device":                  {name: "GHOST", wantErr: ErrNotFound},
		"unknown device without hub":      {name: "GHOST", connected: disconnected, wantErr: ErrNotFound},
		"unsupported domain":              {name: "SENSOR", wantErr: ErrUnsupportedDomain},
		"entity device without hub":       {name: "LAMP", connected: disconnected, wantErr: ErrConnectionUnavailable},
		"bus fallback unreachable":        {name: "BOTH", connected: disconnected, wantErr: ErrConnectionUnavailable},
		"bus device without hub":          {name: "HUMID", connected: disconnected, wantErr: ErrConnectionUnavailable},
		"device without any control path": {name: "BARE", wantErr: ErrUnsupportedDevice},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			hub := &MockHub{ConnectedFunc: tt.connected}
			bus := &MockBus{}
			d := New(newRegistry(t), hub, bus)

			_, err := d.ChangeState(context.Background(), tt.name, model.StringState("1"))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, hub.calls)
			assert.Empty(t, bus.published)
		})
	}
}

func TestChangeState_ExternalFailures(t *testing.T) {
	boom := errors.New("boom")
	hub := &MockHub{
		CallServiceFunc: func(context.Context, string, string, map[string]any) (json.RawMessage, error) {
			return nil, boom
		},
	}
	bus := &MockBus{PublishFunc: func(string, string) error { return boom }}
	d := New(newRegistry(t), hub, bus)

	_, err := d.ChangeState(context.Background(), "LAMP", model.StringState("1"))
	assert.ErrorIs(t, err, ErrExternalCall)
	assert.ErrorIs(t, err, boom)

	_, err = d.ChangeState(context.Background(), "HUMID", model.StringState("1"))
	assert.ErrorIs(t, err, ErrExternalCall)
	assert.ErrorIs(t, err, boom)
}
