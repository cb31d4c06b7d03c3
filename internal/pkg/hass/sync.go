package hass

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/coerce"
	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
	"github.com/anicoll/smarthome-mcp/internal/pkg/registry"
	"github.com/anicoll/smarthome-mcp/internal/pkg/template"
)

type hubClient interface {
	Connect(ctx context.Context) error
	SubscribeEntities(ctx context.Context, entityIDs []string, cb func(map[string]model.HubEntityState)) error
}

type updateSink interface {
	Submit(u registry.Update) error
}

// Sync feeds entity push updates for configured devices into the registry.
type Sync struct {
	client  hubClient
	devices []*registry.Device
	sink    updateSink
	logger  *zap.Logger
}

func NewSync(client hubClient, reg *registry.Registry) *Sync {
	return newSync(client, reg.WithEntityID(), reg)
}

func newSync(client hubClient, devices []*registry.Device, sink updateSink) *Sync {
	return &Sync{
		client:  client,
		devices: devices,
		sink:    sink,
		logger:  zap.L(),
	}
}

// Start connects once and subscribes to every device entity. A failed
// connection is returned as is and never retried.
func (s *Sync) Start(ctx context.Context) error {
	s.logger.Info("connecting to home assistant")
	if err := s.client.Connect(ctx); err != nil {
		return err
	}
	s.logger.Info("connected to home assistant")

	if len(s.devices) == 0 {
		return nil
	}
	entityIDs := lo.Uniq(lo.Map(s.devices, func(d *registry.Device, _ int) string {
		return d.EntityID
	}))
	return s.client.SubscribeEntities(ctx, entityIDs, s.onEntities)
}

func (s *Sync) onEntities(entities map[string]model.HubEntityState) {
	for _, d := range s.devices {
		entity, ok := entities[d.EntityID]
		if !ok {
			continue
		}
		err := s.sink.Submit(registry.Update{
			Key:    d.Key(),
			Value:  Resolve(d.DeviceDefinition, entity),
			Source: registry.SourceHass,
		})
		if err != nil {
			s.logger.Warn("dropping entity update", zap.String("device", d.Name), zap.Error(err))
		}
	}
}

// Resolve turns a pushed entity into the device state: the raw state is
// rendered through the device template when one is set, then coerced to the
// declared type.
func Resolve(def model.DeviceDefinition, entity model.HubEntityState) model.State {
	raw := entity.State
	if def.StateTemplate != "" {
		raw = template.Render(def.StateTemplate, raw)
	}
	return coerce.Coerce(raw, def.StateType)
}
