package spc

import (
	"fmt"

	"github.com/valerio/go-spc700/spc/cpu"
	"github.com/valerio/go-spc700/spc/memory"
)

// State is the decoded emulator state: memory, register window, timers and
// CPU registers. Parsing a snapshot file into a State is left to the caller.
type State struct {
	memory.Snapshot
	CPU cpu.Registers
}

// Validate reports the first out of range field, wrapped in ErrInvalidState.
func (s *State) Validate() error {
	if err := s.Snapshot.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return nil
}

// State captures the current state. Call it between frames.
func (e *Emulator) State() State {
	return State{
		Snapshot: e.mem.Snapshot(),
		CPU:      e.cpu.Registers(),
	}
}

// LoadState replaces the emulator state with s. Nothing is modified if s is
// invalid. The DSP is reset, the frame clock restarts and the start-up
// silence is queued as after a reset.
func (e *Emulator) LoadState(s *State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := e.mem.Load(&s.Snapshot); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	e.dsp.Reset()
	e.resetCommon()
	e.cpu.SetRegisters(s.CPU)
	return nil
}
