// Package registry owns the configured devices and serialises every state write
// coming from the bus and the hub through a single consumer.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

var (
	ErrDuplicateDevice = errors.New("duplicate device name")
	ErrStopped         = errors.New("registry stopped")
)

type Source string

func (s Source) String() string {
	return string(s)
}

const (
	SourceMQTT Source = "mqtt"
	SourceHass Source = "hass"
)

// Update is a state observation for the device identified by Key.
type Update struct {
	Key    string
	Value  model.State
	Source Source
}

type stateObserver interface {
	StateUpdated(source string)
}

type Registry struct {
	devices  []*Device
	index    map[string]*Device
	updates  chan Update
	done     chan struct{}
	logger   *zap.Logger
	observer stateObserver
}

func WithObserver(o stateObserver) func(*Registry) {
	return func(r *Registry) {
		r.observer = o
	}
}

func WithBufferSize(size int) func(*Registry) {
	return func(r *Registry) {
		r.updates = make(chan Update, size)
	}
}

// New builds one device per definition, each starting with a null state.
func New(defs []model.DeviceDefinition, opts ...func(*Registry)) (*Registry, error) {
	r := &Registry{
		devices: make([]*Device, 0, len(defs)),
		index:   make(map[string]*Device, len(defs)),
		updates: make(chan Update, 256),
		done:    make(chan struct{}),
		logger:  zap.L(),
	}
	for _, o := range opts {
		o(r)
	}
	for _, def := range defs {
		if _, exists := r.index[def.Key()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDevice, def.Name)
		}
		d := &Device{DeviceDefinition: def, state: model.NullState()}
		r.devices = append(r.devices, d)
		r.index[def.Key()] = d
	}
	return r, nil
}

// List returns the live devices in configuration order.
func (r *Registry) List() []*Device {
	return r.devices
}

// Find looks a device up by name, ignoring case.
func (r *Registry) Find(name string) (*Device, bool) {
	d, ok := r.index[model.NormalizeName(name)]
	return d, ok
}

func (r *Registry) WithMqttStat() []*Device {
	return lo.Filter(r.devices, func(d *Device, _ int) bool {
		return d.MqttStat != ""
	})
}

func (r *Registry) WithEntityID() []*Device {
	return lo.Filter(r.devices, func(d *Device, _ int) bool {
		return d.EntityID != ""
	})
}

// ControllableNames are the names of devices whose entity can receive state changes.
func (r *Registry) ControllableNames() []string {
	return lo.FilterMap(r.devices, func(d *Device, _ int) (string, bool) {
		return d.Name, d.Controllable()
	})
}

// Snapshot maps every device name to its current state.
func (r *Registry) Snapshot() model.Snapshot {
	snapshot := make(model.Snapshot, len(r.devices))
	for _, d := range r.devices {
		snapshot[d.Name] = d.State()
	}
	return snapshot
}

// Submit queues an update for the consumer started by Run.
func (r *Registry) Submit(u Update) error {
	select {
	case <-r.done:
		return ErrStopped
	default:
	}
	select {
	case r.updates <- u:
		return nil
	case <-r.done:
		return ErrStopped
	}
}

// Run drains submitted updates until ctx is done. It must only be started once.
func (r *Registry) Run(ctx context.Context) error {
	defer close(r.done)
	for {
		select {
		case u := <-r.updates:
			r.Apply(u)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Apply writes the update when it changes the device state and reports whether it did.
// Unknown keys and unchanged values are dropped.
func (r *Registry) Apply(u Update) bool {
	d, ok := r.index[u.Key]
	if !ok {
		r.logger.Debug("update for unknown device", zap.String("device", u.Key), zap.Stringer("source", u.Source))
		return false
	}
	if !d.compareAndSet(u.Value) {
		return false
	}
	r.logger.Info("state update",
		zap.String("device", d.Name),
		zap.Stringer("value", u.Value),
		zap.Stringer("source", u.Source),
	)
	if r.observer != nil {
		r.observer.StateUpdated(u.Source.String())
	}
	return true
}
