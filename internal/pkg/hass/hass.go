// Package hass talks to the Home Assistant websocket API and keeps device
// states in step with its entity push updates.
package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
	ws "github.com/anicoll/smarthome-mcp/pkg/sockets"
)

var (
	ErrConnect       = errors.New("home assistant connection failed")
	ErrAuthInvalid   = errors.New("home assistant rejected the access token")
	ErrNotConnected  = errors.New("home assistant connection not established")
	ErrCommandFailed = errors.New("home assistant command failed")
)

const (
	errConnectionLost = "connection_lost"
	pingInterval      = 30 * time.Second
	maxMessageSize    = 16 << 20
)

type observer interface {
	SetConnected(backend string, up bool)
}

type service struct {
	url      string
	token    string
	insecure bool
	conn     ws.Connection
	logger   *zap.Logger
	observer observer

	nextID    atomic.Int64
	connected atomic.Bool

	mu            sync.Mutex
	pending       map[int64]chan model.GenericMessage
	subscriptions map[int64]func(json.RawMessage)
	authResult    chan error
}

func WithInsecureSkipVerify(skip bool) func(*service) {
	return func(s *service) {
		s.insecure = skip
	}
}

func WithObserver(o observer) func(*service) {
	return func(s *service) {
		s.observer = o
	}
}

func New(host, token string, opts ...func(*service)) *service {
	s := &service{
		url:           WebsocketURL(host),
		token:         token,
		logger:        zap.L(), // returns the global logger.
		pending:       make(map[int64]chan model.GenericMessage),
		subscriptions: make(map[int64]func(json.RawMessage)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// WebsocketURL derives the websocket endpoint from a configured host, which may
// carry an http(s) or ws(s) scheme. A bare host is reached over TLS.
func WebsocketURL(host string) string {
	scheme := "wss"
	switch {
	case strings.HasPrefix(host, "http://"):
		scheme, host = "ws", strings.TrimPrefix(host, "http://")
	case strings.HasPrefix(host, "https://"):
		host = strings.TrimPrefix(host, "https://")
	case strings.HasPrefix(host, "ws://"):
		scheme, host = "ws", strings.TrimPrefix(host, "ws://")
	case strings.HasPrefix(host, "wss://"):
		host = strings.TrimPrefix(host, "wss://")
	}
	host = strings.TrimSuffix(host, "/")
	host = strings.TrimSuffix(host, "/api/websocket")
	return fmt.Sprintf("%s://%s/api/websocket", scheme, host)
}

// Connect dials the hub and waits for the auth handshake to finish.
func (s *service) Connect(ctx context.Context) error {
	authResult := make(chan error, 1)
	s.mu.Lock()
	s.authResult = authResult
	s.mu.Unlock()

	s.conn = ws.New(
		ws.OnMessage(s.onMessage),
		ws.OnError(s.onError),
		ws.InsecureSkipVerify(s.insecure),
		ws.WithMaxMessageSize(maxMessageSize),
		ws.WithPingInterval(pingInterval),
	)

	s.logger.Debug("connecting to", zap.String("url", s.url))
	if err := s.conn.Dial(ctx, s.url); err != nil {
		s.logger.Error("failed to connect to", zap.String("url", s.url), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	select {
	case err := <-authResult:
		if err != nil {
			_ = s.conn.Close()
			return err
		}
	case <-ctx.Done():
		_ = s.conn.Close()
		return ctx.Err()
	}

	s.connected.Store(true)
	if s.observer != nil {
		s.observer.SetConnected("hass", true)
	}
	s.logger.Debug("successfully connected to", zap.String("url", s.url))
	return nil
}

func (s *service) Connected() bool {
	return s.connected.Load()
}

func (s *service) Close() error {
	s.connected.Store(false)
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *service) onMessage(data []byte, c ws.Connection) {
	msg := model.GenericMessage{}
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn("dropping unreadable message", zap.Error(err))
		return
	}

	switch msg.Type {
	case model.AuthRequired:
		s.handleAuthRequired(c)
	case model.AuthOK:
		s.finishAuth(nil)
	case model.AuthInvalid:
		s.finishAuth(fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message))
	case model.Result:
		s.handleResult(msg)
	case model.Event:
		s.handleEvent(msg)
	case model.Pong:
	default:
		s.logger.Debug("unhandled message", zap.Stringer("type", msg.Type))
	}
}

func (s *service) onError(err error) {
	s.connected.Store(false)
	if s.observer != nil {
		s.observer.SetConnected("hass", false)
	}
	s.logger.Error("home assistant connection lost", zap.Error(err))

	s.finishAuth(fmt.Errorf("%w: %w", ErrConnect, err))
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.pending {
		ch <- model.GenericMessage{
			ID:    id,
			Type:  model.Result,
			Error: &model.ErrorMessage{Code: errConnectionLost, Message: err.Error()},
		}
		delete(s.pending, id)
	}
}

func (s *service) handleResult(msg model.GenericMessage) {
	s.mu.Lock()
	ch, ok := s.pending[msg.ID]
	delete(s.pending, msg.ID)
	s.mu.Unlock()
	if !ok {
		s.logger.Debug("result for unknown request", zap.Int64("id", msg.ID))
		return
	}
	ch <- msg
}

func (s *service) handleEvent(msg model.GenericMessage) {
	s.mu.Lock()
	handler, ok := s.subscriptions[msg.ID]
	s.mu.Unlock()
	if !ok {
		return
	}
	handler(msg.Event)
}

// send writes a request and waits for its result message.
func (s *service) send(ctx context.Context, id int64, request any) (json.RawMessage, error) {
	if !s.Connected() {
		return nil, ErrNotConnected
	}
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	ch := make(chan model.GenericMessage, 1)
	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	if err := s.conn.Send(ws.Msg{Body: data}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommandFailed, err)
	}

	select {
	case msg := <-ch:
		if !msg.Success {
			if msg.Error != nil {
				return nil, fmt.Errorf("%w: %s: %s", ErrCommandFailed, msg.Error.Code, msg.Error.Message)
			}
			return nil, ErrCommandFailed
		}
		return msg.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
