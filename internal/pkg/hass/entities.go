package hass

import (
	"context"
	"encoding/json"
	"maps"

	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

// SubscribeEntities streams the current state of the given entities. The callback
// receives the full entity map after every change and runs on the read goroutine.
func (s *service) SubscribeEntities(ctx context.Context, entityIDs []string, cb func(map[string]model.HubEntityState)) error {
	id := s.nextID.Add(1)
	entities := make(map[string]model.HubEntityState)

	s.mu.Lock()
	s.subscriptions[id] = func(raw json.RawMessage) {
		diff := model.EntityDiff{}
		if err := json.Unmarshal(raw, &diff); err != nil {
			s.logger.Warn("dropping unreadable entity event", zap.Error(err))
			return
		}
		applyDiff(entities, diff)
		cb(entities)
	}
	s.mu.Unlock()

	_, err := s.send(ctx, id, model.SubscribeEntitiesRequest{
		Request:   model.Request{ID: id, Type: model.SubscribeEntities},
		EntityIDs: entityIDs,
	})
	if err != nil {
		s.mu.Lock()
		delete(s.subscriptions, id)
		s.mu.Unlock()
		return err
	}
	return nil
}

func applyDiff(entities map[string]model.HubEntityState, diff model.EntityDiff) {
	for id, added := range diff.Added {
		entity := model.HubEntityState{Attributes: added.Attributes}
		if added.State != nil {
			entity.State = *added.State
		}
		entities[id] = entity
	}
	for id, change := range diff.Changed {
		entity, ok := entities[id]
		if !ok {
			continue
		}
		attrs := maps.Clone(entity.Attributes)
		if change.Plus != nil {
			if change.Plus.State != nil {
				entity.State = *change.Plus.State
			}
			if len(change.Plus.Attributes) > 0 && attrs == nil {
				attrs = make(map[string]any, len(change.Plus.Attributes))
			}
			maps.Copy(attrs, change.Plus.Attributes)
		}
		if change.Minus != nil {
			for _, key := range change.Minus.Attributes {
				delete(attrs, key)
			}
		}
		entity.Attributes = attrs
		entities[id] = entity
	}
	for _, id := range diff.Removed {
		delete(entities, id)
	}
}
