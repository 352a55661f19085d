package terminal

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-spc700/spc/backend"
	"github.com/valerio/go-spc700/spc/cpu"
	"github.com/valerio/go-spc700/spc/debug"
)

func screenText(s tcell.SimulationScreen) string {
	cells, width, _ := s.GetContents()
	var sb strings.Builder
	for i, cell := range cells {
		if len(cell.Runes) > 0 {
			sb.WriteRune(cell.Runes[0])
		} else {
			sb.WriteByte(' ')
		}
		if (i+1)%width == 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func testData() *debug.CompleteDebugData {
	data := &debug.CompleteDebugData{
		CPU: debug.CPUState{
			Registers: cpu.Registers{PC: 0x0201, A: 0x12, SP: 0xEF},
			Flags:     "------Z-",
			State:     cpu.Running,
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: 0x0200,
			Bytes:     []byte{0x00, 0xBC, 0x2F, 0xFD},
		},
		Frame: 7,
	}
	data.Timers[1].Enabled = true
	data.Timers[1].Period = 0x20
	data.PortsOut[2] = 0x5A
	data.DSP.Flags = 0xE0
	data.DSP.EchoBegin, data.DSP.EchoEnd = 0x4000, 0x4800
	return data
}

func newTestBackend(t *testing.T, callbacks backend.BackendCallbacks) (*Backend, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	require.NoError(t, b.Init(backend.BackendConfig{Title: "test", ShowDebug: true, Callbacks: callbacks}))
	screen.SetSize(100, 30)
	t.Cleanup(func() { _ = b.Cleanup() })
	return b, screen
}

func TestBackend_rendersState(t *testing.T) {
	b, screen := newTestBackend(t, backend.BackendCallbacks{})

	require.NoError(t, b.Update(testData(), []int16{100, -16384}))

	text := screenText(screen)
	assert.Contains(t, text, "PC: 0x0201  SP: 0xEF")
	assert.Contains(t, text, "PSW: 0x00  ------Z-")
	assert.Contains(t, text, "Out: 00 00 5A 00")
	assert.Contains(t, text, "  T1   ON    32")
	assert.Contains(t, text, ">0x0201: INC A")
	assert.Contains(t, text, "Frame: 7")
	assert.Contains(t, text, "DSP FLG: $E0  Echo: OFF $4000+$800")
	assert.Contains(t, text, "Terminal backend initialized")
}

func TestBackend_keys(t *testing.T) {
	testCases := []struct {
		desc     string
		key      tcell.Key
		r        rune
		wantQuit bool
		want     []backend.Action
	}{
		{desc: "q quits", key: tcell.KeyRune, r: 'q', wantQuit: true},
		{desc: "ctrl-c quits", key: tcell.KeyCtrlC, wantQuit: true},
		{desc: "space pauses", key: tcell.KeyRune, r: ' ', want: []backend.Action{backend.ActionTogglePause}},
		{desc: "f steps a frame", key: tcell.KeyRune, r: 'f', want: []backend.Action{backend.ActionStepFrame}},
		{desc: "n steps an instruction", key: tcell.KeyRune, r: 'n', want: []backend.Action{backend.ActionStepInstruction}},
		{desc: "unmapped key", key: tcell.KeyRune, r: 'z'},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			quit := false
			var got []backend.Action
			b, screen := newTestBackend(t, backend.BackendCallbacks{
				OnQuit:   func() { quit = true },
				OnAction: func(act backend.Action) { got = append(got, act) },
			})

			screen.InjectKey(tC.key, tC.r, tcell.ModNone)
			require.NoError(t, b.Update(testData(), nil))

			assert.Equal(t, tC.wantQuit, quit)
			assert.Equal(t, tC.want, got)
		})
	}
}

func TestBackend_logLevelAndDebugToggle(t *testing.T) {
	b, screen := newTestBackend(t, backend.BackendCallbacks{})

	screen.InjectKey(tcell.KeyRune, '-', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'd', tcell.ModNone)
	require.NoError(t, b.Update(testData(), nil))

	assert.Equal(t, slog.LevelWarn, b.logLevel)
	assert.False(t, b.config.ShowDebug)
	assert.NotContains(t, screenText(screen), "INC A")
}

func TestBackend_cleanupRestoresLogger(t *testing.T) {
	before := slog.Default()
	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	require.NoError(t, b.Init(backend.BackendConfig{}))
	assert.NotSame(t, before, slog.Default())

	require.NoError(t, b.Cleanup())

	assert.Same(t, before, slog.Default())
}
