// Package tools exposes the smart-home operations as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/config"
	"github.com/anicoll/smarthome-mcp/internal/pkg/dispatch"
	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

const (
	ServerName    = "Smarthome MCP Server"
	ServerVersion = "1.0.0"

	ToolGetState    = "get_smarthome_state"
	ToolChangeState = "change_smarthome_state"
	ToolGetRules    = "get_smarthome_rules"
	ToolAddRule     = "add_smarthome_rule"
	ToolSpeak       = "smarthome_tts_voice"
	ToolAddDevice   = "add_smarthome_device"
)

// ChangeValues are the values change_smarthome_state accepts.
var ChangeValues = []string{"0", "1"}

type stateReader interface {
	GetState(ctx context.Context) model.Snapshot
}

type stateChanger interface {
	ChangeState(ctx context.Context, name string, value model.State) (dispatch.Result, error)
}

type configStore interface {
	Rules() []model.Rule
	AddRule(text string) error
	AddDevice(def model.DeviceDefinition) error
}

type speaker interface {
	IsConnected() bool
	Publish(topic, payload string) error
}

type observer interface {
	ToolCalled(tool string, err error)
}

type Service struct {
	state    stateReader
	changer  stateChanger
	store    configStore
	speaker  speaker
	devices  []string
	observer observer
	logger   *zap.Logger
}

func WithObserver(o observer) func(*Service) {
	return func(s *Service) {
		s.observer = o
	}
}

// New builds the tool service. devices are the names offered by
// change_smarthome_state; they are fixed for the life of the process.
func New(state stateReader, changer stateChanger, store configStore, speaker speaker, devices []string, opts ...func(*Service)) *Service {
	s := &Service{
		state:   state,
		changer: changer,
		store:   store,
		speaker: speaker,
		devices: devices,
		logger:  zap.L(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type changeStateInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type addRuleInput struct {
	Text string `json:"text"`
}

type speakInput struct {
	Message string `json:"message"`
}

type addDeviceInput struct {
	Name     string `json:"name"`
	EntityID string `json:"entity_id"`
	Room     string `json:"room"`
}

// Server returns an MCP server with every tool registered.
func (s *Service) Server() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetState,
		Description: "Get the current state of all devices in the smart home.",
		InputSchema: objectSchema(nil),
	}, withErrorHandling(s, ToolGetState, s.getState))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolChangeState,
		Description: "Change the state of a smart home device.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"name":  enumSchema(s.devices),
			"value": enumSchema(ChangeValues),
		}),
	}, withErrorHandling(s, ToolChangeState, s.changeState))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetRules,
		Description: "Get the current rules of the smart home.",
		InputSchema: objectSchema(nil),
	}, withErrorHandling(s, ToolGetRules, s.getRules))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAddRule,
		Description: "Add a new rule to the smarthome config and persist to config.yml",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"text": {Type: "string"},
		}),
	}, withErrorHandling(s, ToolAddRule, s.addRule))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolSpeak,
		Description: "Speak a message to the user using MQTT TTS",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"message": {Type: "string"},
		}),
	}, withErrorHandling(s, ToolSpeak, s.speak))

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAddDevice,
		Description: "Add a new device to the smart home config and persist to config.yml",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"name":      {Type: "string"},
			"entity_id": {Type: "string"},
			"room":      enumSchema(lo.Map(model.AssignableRooms, func(r model.Room, _ int) string { return r.String() })),
		}),
	}, withErrorHandling(s, ToolAddDevice, s.addDevice))

	return server
}

func (s *Service) getState(ctx context.Context, _ struct{}) (string, error) {
	return prettyJSON(s.state.GetState(ctx))
}

func (s *Service) changeState(ctx context.Context, in changeStateInput) (string, error) {
	res, err := s.changer.ChangeState(ctx, in.Name, model.StringState(in.Value))
	if err != nil {
		return "", err
	}
	return prettyJSON(res)
}

func (s *Service) getRules(_ context.Context, _ struct{}) (string, error) {
	return prettyJSON(s.store.Rules())
}

func (s *Service) addRule(_ context.Context, in addRuleInput) (string, error) {
	if err := s.store.AddRule(in.Text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Rule added: %s", in.Text), nil
}

func (s *Service) speak(_ context.Context, in speakInput) (string, error) {
	if !s.speaker.IsConnected() {
		return fmt.Sprintf("MQTT client not connected. Could not speak: %s", in.Message), nil
	}
	if err := s.speaker.Publish(model.TTSTopic, in.Message); err != nil {
		return "", err
	}
	return fmt.Sprintf("Speaking: %s", in.Message), nil
}

// addDevice persists the device. The registry is built at startup, so the
// device takes part in state sync after the next restart.
func (s *Service) addDevice(_ context.Context, in addDeviceInput) (string, error) {
	err := s.store.AddDevice(model.DeviceDefinition{
		Name:     in.Name,
		Room:     model.Room(in.Room),
		EntityID: in.EntityID,
	})
	switch {
	case errors.Is(err, config.ErrDeviceExists):
		return fmt.Sprintf("Device already exists: %s", in.EntityID), nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("Device added: %s", in.EntityID), nil
}

type toolFunc[In any] func(ctx context.Context, in In) (string, error)

// withErrorHandling turns a tool body into an MCP handler. Failures are logged
// and returned as an error result carrying the message text.
func withErrorHandling[In any](s *Service, name string, fn toolFunc[In]) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		text, err := fn(ctx, in)
		if s.observer != nil {
			s.observer.ToolCalled(name, err)
		}
		if err != nil {
			s.logger.Error("tool failed", zap.String("tool", name), zap.Error(err))
			return textResult(err.Error(), true), nil, nil
		}
		return textResult(text, false), nil, nil
	}
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

func prettyJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func objectSchema(props map[string]*jsonschema.Schema) *jsonschema.Schema {
	schema := &jsonschema.Schema{Type: "object", Properties: props}
	if len(props) > 0 {
		schema.Required = lo.Keys(props)
		slices.Sort(schema.Required)
	}
	return schema
}

// enumSchema restricts a string to values. An empty list leaves the string open.
func enumSchema(values []string) *jsonschema.Schema {
	schema := &jsonschema.Schema{Type: "string"}
	if len(values) > 0 {
		schema.Enum = lo.Map(values, func(v string, _ int) any { return v })
	}
	return schema
}
