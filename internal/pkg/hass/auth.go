package hass

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
	ws "github.com/anicoll/smarthome-mcp/pkg/sockets"
)

// handleAuthRequired answers the greeting with the long lived access token.
func (s *service) handleAuthRequired(c ws.Connection) {
	data, err := json.Marshal(model.AuthRequest{
		Type:        model.Auth,
		AccessToken: s.token,
	})
	if err != nil {
		s.finishAuth(err)
		return
	}
	if err := c.Send(ws.Msg{Body: data}); err != nil {
		s.finishAuth(err)
		return
	}
	s.logger.Debug("sent msg", zap.Stringer("type", model.Auth))
}

func (s *service) finishAuth(err error) {
	s.mu.Lock()
	ch := s.authResult
	s.authResult = nil
	s.mu.Unlock()
	if ch == nil {
		return
	}
	ch <- err
}
