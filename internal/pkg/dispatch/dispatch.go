// Package dispatch routes a requested state change to the hub or the bus.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
	"github.com/anicoll/smarthome-mcp/internal/pkg/registry"
)

var (
	ErrNotFound              = errors.New("device not found")
	ErrUnsupportedDomain     = errors.New("unsupported domain")
	ErrConnectionUnavailable = errors.New("home assistant connection not available")
	ErrUnsupportedDevice     = errors.New("unsupported device")
	ErrExternalCall          = errors.New("external call failed")
)

type hub interface {
	Connected() bool
	CallService(ctx context.Context, domain, service string, data map[string]any) (json.RawMessage, error)
}

type bus interface {
	Publish(topic, payload string) error
}

type finder interface {
	Find(name string) (*registry.Device, bool)
}

// Result is returned to the caller of a successful change.
type Result struct {
	OK  bool            `json:"ok"`
	Res json.RawMessage `json:"res,omitempty"`
}

type Dispatcher struct {
	devices finder
	hub     hub
	bus     bus
	logger  *zap.Logger
}

func New(devices finder, hub hub, bus bus) *Dispatcher {
	return &Dispatcher{
		devices: devices,
		hub:     hub,
		bus:     bus,
		logger:  zap.L(),
	}
}

// ChangeState resolves name to a device and sends value through the first
// path that applies: hub service call, then bus publish. A device with an
// entity id never falls back to the bus.
func (d *Dispatcher) ChangeState(ctx context.Context, name string, value model.State) (Result, error) {
	device, ok := d.devices.Find(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	hubConnected := d.hub != nil && d.hub.Connected()
	if device.EntityID != "" && hubConnected {
		return d.callHub(ctx, device.DeviceDefinition, value)
	}
	if !hubConnected {
		return Result{}, ErrConnectionUnavailable
	}
	if device.MqttStat != "" {
		if err := d.bus.Publish(device.MqttStat, value.String()); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrExternalCall, err)
		}
		d.logger.Info("state published", zap.String("device", device.Name), zap.String("topic", device.MqttStat), zap.Stringer("value", value))
		return Result{OK: true}, nil
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedDevice, device.Name)
}

func (d *Dispatcher) callHub(ctx context.Context, def model.DeviceDefinition, value model.State) (Result, error) {
	domain, service, err := serviceFor(def.Domain(), value)
	if err != nil {
		return Result{}, err
	}
	res, err := d.hub.CallService(ctx, domain.String(), service.String(), map[string]any{"entity_id": def.EntityID})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrExternalCall, err)
	}
	d.logger.Info("service called",
		zap.String("device", def.Name),
		zap.String("entity_id", def.EntityID),
		zap.String("service", domain.String()+"."+service.String()),
	)
	return Result{OK: true, Res: res}, nil
}

// serviceFor maps an entity domain to the service that changes it. On/off
// domains are toggled regardless of value.
func serviceFor(domain model.Domain, value model.State) (model.Domain, model.Service, error) {
	switch domain {
	case model.DomainLight, model.DomainSwitch, model.DomainHumidifier, model.DomainFan:
		return model.DomainHomeAssistant, model.ServiceToggle, nil
	case model.DomainClimate:
		if isOn(value) {
			return model.DomainClimate, model.ServiceTurnOn, nil
		}
		return model.DomainClimate, model.ServiceTurnOff, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedDomain, domain)
	}
}

func isOn(v model.State) bool {
	switch v.String() {
	case "1", "on":
		return true
	}
	return false
}
