// Package mqtt connects to the bus, mirrors device status topics into the
// registry and publishes commands, speech and log lines.
package mqtt

import (
	"errors"
	"fmt"
	"os"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/config"
	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
	"github.com/anicoll/smarthome-mcp/internal/pkg/registry"
)

var ErrConnectTimeout = errors.New("unable to connect in time")

const (
	connectTimeout   = 5 * time.Second
	subscribeTimeout = 5 * time.Second
	disconnectQuiet  = 250 // milliseconds
)

type updateSink interface {
	Submit(u registry.Update) error
}

type observer interface {
	SetConnected(backend string, up bool)
}

type service struct {
	client   paho_mqtt.Client
	base     string
	devices  []*registry.Device
	sink     updateSink
	observer observer
	logger   *zap.Logger
}

func WithObserver(o observer) func(*service) {
	return func(s *service) {
		s.observer = o
	}
}

// New builds the bus client. Nothing is dialled until Connect.
func New(cfg config.MQTTConfig, reg *registry.Registry, opts ...func(*service)) *service {
	s := newService(nil, reg.WithMqttStat(), reg, cfg.Base)
	for _, o := range opts {
		o(s)
	}
	options := buildClientOptions(cfg)
	options.SetOnConnectHandler(s.onConnect)
	options.SetConnectionLostHandler(s.onConnectionLost)
	s.client = paho_mqtt.NewClient(options)
	return s
}

func newService(client paho_mqtt.Client, devices []*registry.Device, sink updateSink, base string) *service {
	return &service{
		client:  client,
		base:    base,
		devices: devices,
		sink:    sink,
		logger:  zap.L(),
	}
}

func buildClientOptions(cfg config.MQTTConfig) *paho_mqtt.ClientOptions {
	options := paho_mqtt.NewClientOptions()
	options.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	options.SetClientID(clientID())
	if cfg.User != "" {
		options.SetUsername(cfg.User)
		options.SetPassword(cfg.Password)
	}
	options.SetCleanSession(true)
	options.SetAutoReconnect(true)
	options.SetConnectRetry(true)
	options.SetConnectRetryInterval(5 * time.Second)
	options.SetMaxReconnectInterval(time.Minute)
	options.SetConnectTimeout(10 * time.Second)
	return options
}

func clientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "smarthome-mcp-" + slug.Make(host)
}

// Connect starts the connection. With connect retry enabled a broker that is
// down is not an error; the client keeps trying in the background.
func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(connectTimeout)
	if res {
		return token.Error()
	}
	return ErrConnectTimeout
}

func (s *service) IsConnected() bool {
	return s.client.IsConnected()
}

func (s *service) Close() {
	s.client.Disconnect(disconnectQuiet)
	if s.observer != nil {
		s.observer.SetConnected("mqtt", false)
	}
}

// onConnect runs on every (re)connect, so subscriptions are restored after a drop.
func (s *service) onConnect(c paho_mqtt.Client) {
	s.logger.Info("MQTT connected")
	if s.observer != nil {
		s.observer.SetConnected("mqtt", true)
	}
	c.Publish(model.StartedTopic(s.base), 0, false, "started")
	for _, d := range s.devices {
		s.logger.Info("MQTT subscribe", zap.String("topic", d.MqttStat), zap.String("device", d.Name))
		token := c.Subscribe(d.MqttStat, 0, s.onMessage)
		if token.WaitTimeout(subscribeTimeout) && token.Error() != nil {
			s.logger.Error("MQTT subscribe failed", zap.String("topic", d.MqttStat), zap.Error(token.Error()))
		}
	}
}

func (s *service) onConnectionLost(_ paho_mqtt.Client, err error) {
	s.logger.Warn("MQTT connection lost", zap.Error(err))
	if s.observer != nil {
		s.observer.SetConnected("mqtt", false)
	}
}

func (s *service) onMessage(_ paho_mqtt.Client, msg paho_mqtt.Message) {
	for _, d := range s.devices {
		if d.MqttStat != msg.Topic() {
			continue
		}
		err := s.sink.Submit(registry.Update{
			Key:    d.Key(),
			Value:  model.StringState(string(msg.Payload())),
			Source: registry.SourceMQTT,
		})
		if err != nil {
			s.logger.Warn("dropping bus update", zap.String("device", d.Name), zap.Error(err))
		}
	}
}
