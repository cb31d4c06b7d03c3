// Package coerce maps raw source values onto a device's declared state type.
package coerce

import (
	"slices"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

// onValues are matched exactly, case included.
var onValues = []string{"on", "1", "auto"}

// Coerce converts raw to the declared type. Only boolean is supported;
// any other declared type returns raw unchanged.
func Coerce(raw string, declared model.StateType) model.State {
	if declared != model.StateTypeBoolean {
		return model.StringState(raw)
	}
	if slices.Contains(onValues, raw) {
		return model.NumberState(1)
	}
	return model.NumberState(0)
}
