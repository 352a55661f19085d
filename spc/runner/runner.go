// Package runner drives an emulator frame by frame, feeding a backend,
// an optional host script and a frame limiter.
package runner

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-spc700/spc"
	"github.com/valerio/go-spc700/spc/backend"
	"github.com/valerio/go-spc700/spc/debug"
	"github.com/valerio/go-spc700/spc/host"
	"github.com/valerio/go-spc700/spc/timing"
)

// DefaultSamplesPerFrame is 1/50 s of stereo output.
const DefaultSamplesPerFrame = spc.SampleRate / 50 * 2

// Options configures a Runner.
type Options struct {
	SamplesPerFrame int            // interleaved samples, must be even
	Limiter         timing.Limiter // nil runs unthrottled
	Script          *host.Script   // may be nil
	Paused          bool
	StopOnHalt      bool
}

// Runner owns the main loop.
type Runner struct {
	emu     *spc.Emulator
	backend backend.Backend
	opts    Options
	limiter timing.Limiter

	state   debug.DebuggerState
	frame   int
	running bool
}

// New creates a runner. The backend is initialized by Run.
func New(emu *spc.Emulator, b backend.Backend, opts Options) *Runner {
	if opts.SamplesPerFrame == 0 {
		opts.SamplesPerFrame = DefaultSamplesPerFrame
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}
	r := &Runner{
		emu:     emu,
		backend: b,
		opts:    opts,
		limiter: limiter,
	}
	if opts.Paused {
		r.state = debug.DebuggerPaused
	}
	return r
}

// Run initializes the backend and loops until the backend or the script
// asks to stop, or the CPU halts with StopOnHalt set.
func (r *Runner) Run(title string, showDebug bool) error {
	if r.opts.SamplesPerFrame%2 != 0 {
		return fmt.Errorf("samples per frame %d: %w", r.opts.SamplesPerFrame, spc.ErrOddSampleCount)
	}
	err := r.backend.Init(backend.BackendConfig{
		Title:     title,
		ShowDebug: showDebug,
		Callbacks: backend.BackendCallbacks{
			OnQuit:   r.Stop,
			OnAction: r.HandleAction,
		},
	})
	if err != nil {
		return err
	}
	defer r.backend.Cleanup()

	r.running = true
	r.limiter.Reset()
	for r.running {
		if err := r.Step(); err != nil {
			return err
		}
		r.limiter.WaitForNextFrame()
	}
	return nil
}

// Step runs one iteration of the loop: a frame (or a single instruction, or
// nothing while paused) followed by a backend update.
func (r *Runner) Step() error {
	var samples []int16
	switch r.state {
	case debug.DebuggerPaused:
	case debug.DebuggerStepInstruction:
		r.state = debug.DebuggerPaused
		if _, err := r.emu.Step(); err != nil {
			if err := r.checkHalt(err); err != nil {
				return err
			}
		}
	default:
		if r.state == debug.DebuggerStepFrame {
			r.state = debug.DebuggerPaused
		}
		var err error
		samples, err = r.play()
		if err != nil {
			return err
		}
	}

	data := debug.ExtractDebugData(r.emu)
	data.DebuggerState = r.state
	data.Frame = r.frame
	data.Peak = backend.Peak(samples)
	return r.backend.Update(data, samples)
}

func (r *Runner) play() ([]int16, error) {
	if script := r.opts.Script; script != nil && script.HasFrameHandler() {
		if err := script.OnFrame(r.frame + 1); err != nil {
			return nil, err
		}
		if script.Stopped() {
			slog.Info("Script requested stop", "frame", r.frame+1)
			r.running = false
		}
	}
	samples, err := r.emu.Play(r.opts.SamplesPerFrame)
	if err != nil && !errors.Is(err, spc.ErrHalted) {
		return nil, err
	}
	r.frame++
	return samples, r.checkHalt(err)
}

func (r *Runner) checkHalt(err error) error {
	if !errors.Is(err, spc.ErrHalted) {
		return err
	}
	if r.opts.StopOnHalt {
		if r.running {
			slog.Info("CPU halted", "frame", r.frame, "pc", fmt.Sprintf("0x%04X", r.emu.Registers().PC))
		}
		r.running = false
		return nil
	}
	if r.state != debug.DebuggerPaused {
		slog.Warn("CPU halted, pausing", "state", r.emu.CPUState())
		r.state = debug.DebuggerPaused
	}
	return nil
}

// HandleAction applies a backend action.
func (r *Runner) HandleAction(act backend.Action) {
	switch act {
	case backend.ActionTogglePause:
		if r.state == debug.DebuggerPaused {
			r.state = debug.DebuggerRunning
			r.limiter.Reset()
		} else {
			r.state = debug.DebuggerPaused
		}
		slog.Info("Debugger", "state", r.state)
	case backend.ActionStepFrame:
		r.state = debug.DebuggerStepFrame
	case backend.ActionStepInstruction:
		r.state = debug.DebuggerStepInstruction
	case backend.ActionReset:
		r.emu.SoftReset()
		r.frame = 0
		slog.Info("Soft reset")
	default:
		slog.Debug("Unhandled action", "action", act)
	}
}

// Stop ends the loop after the current iteration.
func (r *Runner) Stop() {
	r.running = false
}

// State returns the debugger state.
func (r *Runner) State() debug.DebuggerState {
	return r.state
}

// Frame returns the number of frames played.
func (r *Runner) Frame() int {
	return r.frame
}
