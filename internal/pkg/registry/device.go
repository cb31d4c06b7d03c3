package registry

import (
	"sync"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

// Device is a configured device and its last observed state.
// Only the state changes after construction.
type Device struct {
	model.DeviceDefinition

	mu    sync.RWMutex
	state model.State
}

func (d *Device) State() model.State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// compareAndSet stores v unless it equals the current state.
func (d *Device) compareAndSet(v model.State) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Equal(v) {
		return false
	}
	d.state = v
	return true
}
