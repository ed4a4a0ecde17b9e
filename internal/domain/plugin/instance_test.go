package plugin

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/statekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstance(t *testing.T) *Instance {
	t.Helper()
	inst, err := newInstance(Discovered{
		Manifest: Manifest{ID: "p", Version: "1.0.0"},
		Dir:      "/plugins/p",
	})
	require.NoError(t, err)
	return inst
}

func TestInstanceHappyPath(t *testing.T) {
	inst := testInstance(t)
	assert.Equal(t, StateDiscovered, inst.State())

	for _, step := range []struct {
		event statekit.EventType
		state State
	}{
		{eventLoad, StateLoaded},
		{eventInit, StateInitialized},
		{eventStart, StateStarted},
		{eventStop, StateStopped},
		{eventUnload, StateUnloaded},
	} {
		inst.send(step.event)
		assert.Equal(t, step.state, inst.State())
	}
}

func TestInstanceInvalidTransitionIgnored(t *testing.T) {
	inst := testInstance(t)

	// Starting from Discovered is not a legal transition.
	inst.send(eventStart)
	assert.Equal(t, StateDiscovered, inst.State())

	inst.send(eventLoad)
	inst.send(eventLoad)
	assert.Equal(t, StateLoaded, inst.State())
}

func TestInstanceFailRecordsFirstError(t *testing.T) {
	inst := testInstance(t)
	first := errors.New("first")

	inst.fail(first)
	assert.Equal(t, StateFailed, inst.State())
	assert.Same(t, first, inst.Err())

	// Failed is terminal and the original cause is preserved.
	inst.fail(errors.New("second"))
	assert.Equal(t, StateFailed, inst.State())
	assert.Same(t, first, inst.Err())
}

func TestInstanceFailFromAnyActiveState(t *testing.T) {
	for _, events := range [][]statekit.EventType{
		{},
		{eventLoad},
		{eventLoad, eventInit},
		{eventLoad, eventInit, eventStart},
		{eventLoad, eventInit, eventStart, eventStop},
	} {
		inst := testInstance(t)
		for _, e := range events {
			inst.send(e)
		}
		inst.fail(errors.New("boom"))
		assert.Equal(t, StateFailed, inst.State())
	}
}

func TestInstanceDescriptorIsolated(t *testing.T) {
	inst := testInstance(t)
	d := inst.Descriptor()
	d.ID = "mutated"
	assert.Equal(t, "p", inst.ID())
}
