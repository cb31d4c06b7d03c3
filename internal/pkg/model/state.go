package model

import (
	"encoding/json"
	"strconv"
)

type StateKind int

const (
	KindNull StateKind = iota
	KindString
	KindNumber
)

// State is a device state value: null, a string or a number.
// Two states are equal only when both kind and value match, so "1" and 1 differ.
type State struct {
	kind StateKind
	str  string
	num  float64
}

func NullState() State {
	return State{}
}

func StringState(s string) State {
	return State{kind: KindString, str: s}
}

func NumberState(n float64) State {
	return State{kind: KindNumber, num: n}
}

func (s State) Kind() StateKind {
	return s.kind
}

func (s State) IsNull() bool {
	return s.kind == KindNull
}

func (s State) Equal(o State) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindString:
		return s.str == o.str
	case KindNumber:
		return s.num == o.num
	}
	return true
}

// String is the textual form used for bus payloads and log lines.
func (s State) String() string {
	switch s.kind {
	case KindString:
		return s.str
	case KindNumber:
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	}
	return "null"
}

// Value returns nil, a string or a float64.
func (s State) Value() any {
	switch s.kind {
	case KindString:
		return s.str
	case KindNumber:
		return s.num
	}
	return nil
}

func (s State) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindString:
		return json.Marshal(s.str)
	case KindNumber:
		return []byte(strconv.FormatFloat(s.num, 'f', -1, 64)), nil
	}
	return []byte("null"), nil
}

func (s *State) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = StringState(t)
	case float64:
		*s = NumberState(t)
	default:
		*s = NullState()
	}
	return nil
}

func (s State) MarshalYAML() (any, error) {
	if s.kind == KindNumber && s.num == float64(int64(s.num)) {
		return int64(s.num), nil
	}
	return s.Value(), nil
}

// Snapshot maps device names to their current state.
type Snapshot map[string]State
