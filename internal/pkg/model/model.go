package model

import "encoding/json"

// Home Assistant websocket message types.
type MessageType string

func (mt MessageType) String() string {
	return string(mt)
}

const (
	AuthRequired      MessageType = "auth_required"
	Auth              MessageType = "auth"
	AuthOK            MessageType = "auth_ok"
	AuthInvalid       MessageType = "auth_invalid"
	Result            MessageType = "result"
	Event             MessageType = "event"
	CallService       MessageType = "call_service"
	SubscribeEntities MessageType = "subscribe_entities"
	Ping              MessageType = "ping"
	Pong              MessageType = "pong"
)

// Use this to know which handler to route to.
type GenericMessage struct {
	ID      int64           `json:"id,omitempty"`
	Type    MessageType     `json:"type"`
	Success bool            `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorMessage   `json:"error,omitempty"`
	Event   json.RawMessage `json:"event,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Request struct {
	ID   int64       `json:"id"`
	Type MessageType `json:"type"`
}

// ################################
// MessageType.Auth
type AuthRequest struct {
	Type        MessageType `json:"type"`
	AccessToken string      `json:"access_token"`
}

// ################################

// ################################
// MessageType.CallService
type CallServiceRequest struct {
	Request
	Domain      string         `json:"domain"`
	Service     string         `json:"service"`
	ServiceData map[string]any `json:"service_data,omitempty"`
}

// ################################

// ################################
// MessageType.SubscribeEntities
type SubscribeEntitiesRequest struct {
	Request
	EntityIDs []string `json:"entity_ids,omitempty"`
}

// EntityDiff is the compressed event body of a subscribe_entities subscription.
type EntityDiff struct {
	Added   map[string]CompressedState  `json:"a,omitempty"`
	Changed map[string]CompressedChange `json:"c,omitempty"`
	Removed []string                    `json:"r,omitempty"`
}

type CompressedState struct {
	State       *string        `json:"s,omitempty"`
	Attributes  map[string]any `json:"a,omitempty"`
	LastChanged float64        `json:"lc,omitempty"`
	LastUpdated float64        `json:"lu,omitempty"`
}

type CompressedChange struct {
	Plus  *CompressedState `json:"+,omitempty"`
	Minus *struct {
		Attributes []string `json:"a,omitempty"`
	} `json:"-,omitempty"`
}

// ################################
