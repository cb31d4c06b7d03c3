package hass

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

// CallService invokes domain.service and returns the hub's raw result.
func (s *service) CallService(ctx context.Context, domain, service string, data map[string]any) (json.RawMessage, error) {
	id := s.nextID.Add(1)
	res, err := s.send(ctx, id, model.CallServiceRequest{
		Request:     model.Request{ID: id, Type: model.CallService},
		Domain:      domain,
		Service:     service,
		ServiceData: data,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("service called", zap.String("domain", domain), zap.String("service", service), zap.Any("data", data))
	return res, nil
}
