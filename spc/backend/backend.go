package backend

import (
	"github.com/valerio/go-spc700/spc/debug"
)

// Backend is where emulated frames end up: a terminal monitor, a PCM dump,
// or nothing at all.
type Backend interface {
	// Init configures the backend. It must be called before Update.
	Init(config BackendConfig) error

	// Update receives the state after a frame and the samples it produced,
	// and polls for user input. Actions are reported through the callbacks.
	Update(data *debug.CompleteDebugData, samples []int16) error

	// Cleanup resources when shutting down
	Cleanup() error
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title     string
	ShowDebug bool             // Backends may ignore unsupported features
	Callbacks BackendCallbacks // Callbacks for backend communication
}

// BackendCallbacks allows backends to communicate with the emulator
type BackendCallbacks struct {
	// OnQuit is called when the backend wants to shut down.
	OnQuit func()

	// OnAction is called for every other user request.
	OnAction func(act Action)
}

func (c BackendCallbacks) quit() {
	if c.OnQuit != nil {
		c.OnQuit()
	}
}

// Trigger dispatches act to the right callback.
func (c BackendCallbacks) Trigger(act Action) {
	if act == ActionQuit {
		c.quit()
		return
	}
	if c.OnAction != nil {
		c.OnAction(act)
	}
}
