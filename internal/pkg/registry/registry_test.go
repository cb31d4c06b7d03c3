package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/anicoll/smarthome-mcp/internal/pkg/metrics"
	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

var _ stateObserver = (*metrics.Metrics)(nil)

type countingObserver struct {
	counts map[string]int
}

func (c *countingObserver) StateUpdated(source string) {
	c.counts[source]++
}

func testDefinitions() []model.DeviceDefinition {
	return []model.DeviceDefinition{
		{Name: "Lamp", Room: model.RoomRoom, EntityID: "light.lamp"},
		{Name: "HUMID", Room: model.RoomHall, MqttStat: "home/humid/stat"},
		{Name: "sensor", Room: model.RoomKitchen, EntityID: "sensor.temperature"},
		{Name: "FAN", Room: model.RoomRoom, EntityID: "climate.fan", MqttStat: "home/fan/stat"},
	}
}

func observedLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestNew(t *testing.T) {
	r, err := New(testDefinitions())
	require.NoError(t, err)

	require.Len(t, r.List(), 4)
	for _, d := range r.List() {
		assert.True(t, d.State().IsNull())
	}

	d, ok := r.Find("lamp")
	require.True(t, ok)
	assert.Equal(t, "Lamp", d.Name)
	_, ok = r.Find("unknown")
	assert.False(t, ok)
}

func TestNew_DuplicateName(t *testing.T) {
	defs := []model.DeviceDefinition{{Name: "lamp"}, {Name: "LAMP"}}
	_, err := New(defs)
	assert.True(t, errors.Is(err, ErrDuplicateDevice))
}

func TestList_SharesDevices(t *testing.T) {
	r, err := New(testDefinitions())
	require.NoError(t, err)

	r.Apply(Update{Key: "LAMP", Value: model.StringState("on"), Source: SourceHass})
	assert.Equal(t, "on", r.List()[0].State().String())
	assert.Same(t, r.List()[0], r.List()[0])
}

func TestFilters(t *testing.T) {
	r, err := New(testDefinitions())
	require.NoError(t, err)

	assert.Len(t, r.WithMqttStat(), 2)
	assert.Len(t, r.WithEntityID(), 3)
	assert.Equal(t, []string{"Lamp", "FAN"}, r.ControllableNames())
}

func TestApply_SkipsUnchangedValues(t *testing.T) {
	logs := observedLogger(t)
	counter := &countingObserver{counts: map[string]int{}}
	r, err := New(testDefinitions(), WithObserver(counter))
	require.NoError(t, err)

	u := Update{Key: "HUMID", Value: model.StringState("1"), Source: SourceMQTT}
	assert.True(t, r.Apply(u))
	assert.False(t, r.Apply(u))

	assert.Equal(t, 1, logs.FilterMessage("state update").Len())
	assert.Equal(t, 1, counter.counts["mqtt"])

	// a number and a string with the same text are different states
	assert.True(t, r.Apply(Update{Key: "HUMID", Value: model.NumberState(1), Source: SourceHass}))
	assert.Equal(t, 2, logs.FilterMessage("state update").Len())
}

func TestApply_UnknownDevice(t *testing.T) {
	r, err := New(testDefinitions())
	require.NoError(t, err)
	assert.False(t, r.Apply(Update{Key: "NOPE", Value: model.StringState("1")}))
}

func TestSnapshot(t *testing.T) {
	r, err := New(testDefinitions())
	require.NoError(t, err)
	r.Apply(Update{Key: "FAN", Value: model.NumberState(0), Source: SourceHass})

	snapshot := r.Snapshot()
	assert.Len(t, snapshot, 4)
	assert.True(t, snapshot["Lamp"].IsNull())
	assert.True(t, model.NumberState(0).Equal(snapshot["FAN"]))
}

func TestRun_DrainsSubmittedUpdates(t *testing.T) {
	r, err := New(testDefinitions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	require.NoError(t, r.Submit(Update{Key: "HUMID", Value: model.StringState("0"), Source: SourceMQTT}))
	require.NoError(t, r.Submit(Update{Key: "HUMID", Value: model.StringState("1"), Source: SourceMQTT}))

	d, _ := r.Find("humid")
	assert.Eventually(t, func() bool {
		return d.State().String() == "1"
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.ErrorIs(t, r.Submit(Update{Key: "HUMID"}), ErrStopped)
}
