package mqtt

import (
	"errors"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

var ErrNotConnected = errors.New("mqtt client not connected")

// Publish sends payload without waiting for the broker. Only errors the client
// reports immediately, such as not being connected, are returned.
func (s *service) Publish(topic, payload string) error {
	token := s.client.Publish(topic, 0, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	default:
		return nil
	}
}

// PublishLog mirrors a log line to <base>/log. It is a no-op without a base
// topic or a live connection.
func (s *service) PublishLog(line string) error {
	topic := model.LogTopic(s.base)
	if topic == "" {
		return nil
	}
	if !s.client.IsConnected() {
		return ErrNotConnected
	}
	return s.Publish(topic, line)
}
