package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

func TestCoerce(t *testing.T) {
	tests := map[string]struct {
		raw      string
		declared model.StateType
		want     model.State
	}{
		"on":                 {raw: "on", declared: model.StateTypeBoolean, want: model.NumberState(1)},
		"one":                {raw: "1", declared: model.StateTypeBoolean, want: model.NumberState(1)},
		"auto":               {raw: "auto", declared: model.StateTypeBoolean, want: model.NumberState(1)},
		"off":                {raw: "off", declared: model.StateTypeBoolean, want: model.NumberState(0)},
		"upper case on":      {raw: "ON", declared: model.StateTypeBoolean, want: model.NumberState(0)},
		"padded on":          {raw: " on", declared: model.StateTypeBoolean, want: model.NumberState(0)},
		"empty":              {raw: "", declared: model.StateTypeBoolean, want: model.NumberState(0)},
		"unavailable":        {raw: "unavailable", declared: model.StateTypeBoolean, want: model.NumberState(0)},
		"untyped":            {raw: "on", declared: model.StateTypeUntyped, want: model.StringState("on")},
		"unknown type no-op": {raw: "21.5", declared: model.StateType("number"), want: model.StringState("21.5")},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Coerce(tt.raw, tt.declared)
			assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
		})
	}
}
