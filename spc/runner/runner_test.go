package runner

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-spc700/spc"
	"github.com/valerio/go-spc700/spc/backend"
	"github.com/valerio/go-spc700/spc/debug"
	"github.com/valerio/go-spc700/spc/host"
)

type recordingBackend struct {
	config  backend.BackendConfig
	updates []*debug.CompleteDebugData
	samples int
	onFrame func(n int, callbacks backend.BackendCallbacks)
	cleaned bool
}

func (b *recordingBackend) Init(config backend.BackendConfig) error {
	b.config = config
	return nil
}

func (b *recordingBackend) Update(data *debug.CompleteDebugData, samples []int16) error {
	b.updates = append(b.updates, data)
	b.samples += len(samples)
	if b.onFrame != nil {
		b.onFrame(len(b.updates), b.config.Callbacks)
	}
	return nil
}

func (b *recordingBackend) Cleanup() error {
	b.cleaned = true
	return nil
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEmulator(t *testing.T, program ...byte) *spc.Emulator {
	t.Helper()
	cfg := spc.DefaultConfig()
	cfg.Logger = quiet
	e := spc.New(cfg)
	require.NoError(t, e.LoadProgram(0x0200, program))
	return e
}

func TestRunner_runsUntilQuit(t *testing.T) {
	e := newEmulator(t, 0xBC, 0x2F, 0xFD) // INC A ; BRA -3
	b := &recordingBackend{onFrame: func(n int, c backend.BackendCallbacks) {
		if n == 5 {
			c.Trigger(backend.ActionQuit)
		}
	}}
	r := New(e, b, Options{SamplesPerFrame: 64})

	require.NoError(t, r.Run("test", false))

	assert.Len(t, b.updates, 5)
	assert.Equal(t, 5*64, b.samples)
	assert.Equal(t, 5, r.Frame())
	assert.Equal(t, 5, b.updates[4].Frame)
	assert.True(t, b.cleaned)
}

func TestRunner_debuggerStates(t *testing.T) {
	e := newEmulator(t, 0xBC, 0x2F, 0xFD)
	b := &recordingBackend{}
	r := New(e, b, Options{SamplesPerFrame: 64, Paused: true})

	require.NoError(t, r.Step())
	assert.Equal(t, uint16(0x0200), b.updates[0].CPU.PC)
	assert.Equal(t, debug.DebuggerPaused, b.updates[0].DebuggerState)
	assert.Zero(t, r.Frame())

	r.HandleAction(backend.ActionStepInstruction)
	require.NoError(t, r.Step())
	assert.Equal(t, uint16(0x0201), b.updates[1].CPU.PC)
	assert.Equal(t, uint8(1), b.updates[1].CPU.A)
	assert.Equal(t, debug.DebuggerPaused, r.State())

	r.HandleAction(backend.ActionStepFrame)
	require.NoError(t, r.Step())
	assert.Equal(t, 1, r.Frame())
	assert.Equal(t, 64, b.samples)
	assert.Equal(t, debug.DebuggerPaused, r.State())

	r.HandleAction(backend.ActionTogglePause)
	assert.Equal(t, debug.DebuggerRunning, r.State())
	require.NoError(t, r.Step())
	assert.Equal(t, 2, r.Frame())

	r.HandleAction(backend.ActionReset)
	assert.Zero(t, r.Frame())
	assert.Equal(t, uint16(0xFFC0), e.Registers().PC)
}

func TestRunner_halt(t *testing.T) {
	testCases := []struct {
		desc       string
		stopOnHalt bool
		wantState  debug.DebuggerState
	}{
		{desc: "stop on halt", stopOnHalt: true, wantState: debug.DebuggerRunning},
		{desc: "pause on halt", stopOnHalt: false, wantState: debug.DebuggerPaused},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			e := newEmulator(t, 0x00, 0xFF) // NOP ; STOP
			b := &recordingBackend{onFrame: func(n int, c backend.BackendCallbacks) {
				if n == 3 {
					c.Trigger(backend.ActionQuit)
				}
			}}
			r := New(e, b, Options{SamplesPerFrame: 64, StopOnHalt: tC.stopOnHalt})

			require.NoError(t, r.Run("halt", false))

			assert.Equal(t, tC.wantState, r.State())
			if tC.stopOnHalt {
				assert.Len(t, b.updates, 1)
			} else {
				assert.Len(t, b.updates, 3)
			}
		})
	}
}

func TestRunner_scriptStops(t *testing.T) {
	// echo input port 0 to output port 0 forever
	e := newEmulator(t, 0xE4, 0xF4, 0xC4, 0xF4, 0x2F, 0xFA)
	script, err := host.Load("echo", `
		function on_frame(frame)
			if frame == 1 then write_port(0, 0x42) end
			if frame == 3 then
				if read_port(0) ~= 0x42 then error("no echo") end
				stop()
			end
		end
	`, e, quiet)
	require.NoError(t, err)
	defer script.Close()

	b := &recordingBackend{}
	r := New(e, b, Options{SamplesPerFrame: 64, Script: script})

	require.NoError(t, r.Run("script", false))

	assert.Equal(t, 3, r.Frame())
	assert.Equal(t, byte(0x42), b.updates[2].PortsOut[0])
}

func TestRunner_scriptPortTimePastFrame(t *testing.T) {
	e := newEmulator(t, 0x2F, 0xFE)
	script, err := host.Load("late", `
		function on_frame(frame)
			read_port(0, 100000)
		end
	`, e, quiet)
	require.NoError(t, err)
	defer script.Close()

	r := New(e, &recordingBackend{}, Options{SamplesPerFrame: 64, Script: script})

	assert.ErrorIs(t, r.Run("late", false), spc.ErrFrameOverrun)
	assert.Equal(t, 0, r.Frame())
}

func TestRunner_rejectsOddFrameSize(t *testing.T) {
	r := New(newEmulator(t, 0x2F, 0xFE), &recordingBackend{}, Options{SamplesPerFrame: 3})

	assert.ErrorIs(t, r.Run("odd", false), spc.ErrOddSampleCount)
}
