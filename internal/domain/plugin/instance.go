package plugin

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/statekit"
)

// State is a plugin instance's lifecycle state.
type State string

const (
	// StateDiscovered means the descriptor is parsed but the binary is
	// not yet open.
	StateDiscovered State = "discovered"
	// StateLoaded means the binary is open and the plugin object exists.
	StateLoaded State = "loaded"
	// StateInitialized means the initialize hook succeeded.
	StateInitialized State = "initialized"
	// StateStarted means the plugin is active.
	StateStarted State = "started"
	// StateStopped means the stop hook ran.
	StateStopped State = "stopped"
	// StateUnloaded means registrations are revoked and the binary
	// handle is released. Terminal.
	StateUnloaded State = "unloaded"
	// StateFailed is terminal and reachable from any non-terminal state.
	StateFailed State = "failed"
)

// Lifecycle event types.
const (
	eventLoad   = "LOAD"
	eventInit   = "INIT"
	eventStart  = "START"
	eventStop   = "STOP"
	eventUnload = "UNLOAD"
	eventFail   = "FAIL"
)

// stateID bridges State to statekit's defined id type.
func stateID(s State) statekit.StateID {
	return statekit.StateID(s)
}

// instanceContext is the statekit context for one instance machine.
type instanceContext struct {
	PluginID string
}

// Instance is one resident plugin: the loaded binary handle, the parsed
// descriptor, the lifecycle machine, and the keys of the capability
// registrations it owns (so they can be revoked atomically on unload).
// Exactly one Instance exists per loaded plugin id.
type Instance struct {
	descriptor Manifest
	dir        string

	plugin Plugin
	handle io.Closer

	interp *statekit.Interpreter[instanceContext]

	// err is the first failure recorded for this instance.
	err error
}

// newInstance creates an instance in the Discovered state.
func newInstance(d Discovered) (*Instance, error) {
	interp, err := buildInstanceMachine(d.Manifest.ID)
	if err != nil {
		return nil, fmt.Errorf("building lifecycle machine for %s: %w", d.Manifest.ID, err)
	}
	interp.Start()

	return &Instance{
		descriptor: d.Manifest,
		dir:        d.Dir,
		interp:     interp,
	}, nil
}

// buildInstanceMachine constructs the per-plugin lifecycle state machine.
func buildInstanceMachine(id string) (*statekit.Interpreter[instanceContext], error) {
	machine, err := statekit.NewMachine[instanceContext]("plugin-lifecycle").
		WithInitial(stateID(StateDiscovered)).
		WithContext(instanceContext{PluginID: id}).
		State(stateID(StateDiscovered)).
		On(eventLoad).Target(stateID(StateLoaded)).
		On(eventFail).Target(stateID(StateFailed)).Done().
		State(stateID(StateLoaded)).
		On(eventInit).Target(stateID(StateInitialized)).
		On(eventUnload).Target(stateID(StateUnloaded)).
		On(eventFail).Target(stateID(StateFailed)).Done().
		State(stateID(StateInitialized)).
		On(eventStart).Target(stateID(StateStarted)).
		On(eventUnload).Target(stateID(StateUnloaded)).
		On(eventFail).Target(stateID(StateFailed)).Done().
		State(stateID(StateStarted)).
		On(eventStop).Target(stateID(StateStopped)).
		On(eventFail).Target(stateID(StateFailed)).Done().
		State(stateID(StateStopped)).
		On(eventUnload).Target(stateID(StateUnloaded)).
		On(eventFail).Target(stateID(StateFailed)).Done().
		State(stateID(StateUnloaded)).Done().
		State(stateID(StateFailed)).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// ID returns the plugin identity.
func (i *Instance) ID() string {
	return i.descriptor.ID
}

// Descriptor returns a deep copy of the parsed manifest.
func (i *Instance) Descriptor() Manifest {
	return i.descriptor.Clone()
}

// Dir returns the directory the plugin was discovered in. Empty for
// builtin plugins.
func (i *Instance) Dir() string {
	return i.dir
}

// State returns the current lifecycle state.
func (i *Instance) State() State {
	return State(i.interp.State().Value)
}

// Err returns the failure that moved the instance to Failed, if any.
func (i *Instance) Err() error {
	return i.err
}

// String returns a human-readable instance description.
func (i *Instance) String() string {
	return fmt.Sprintf("%s@%s [%s]", i.descriptor.ID, i.descriptor.Version, i.State())
}

func (i *Instance) send(event statekit.EventType) {
	i.interp.Send(statekit.Event{Type: event})
}

// fail records the first error and moves the machine to Failed.
func (i *Instance) fail(err error) {
	if i.err == nil {
		i.err = err
	}
	i.send(eventFail)
}
