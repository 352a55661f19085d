package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-spc700/spc/backend"
	"github.com/valerio/go-spc700/spc/backend/terminal/render"
	"github.com/valerio/go-spc700/spc/debug"
	"github.com/valerio/go-spc700/spc/disasm"
)

const (
	panelWidth     = 40
	disasmHeight   = 13
	minTermWidth   = 80
	minTermHeight  = 24
	logCapacity    = 200
	meterWidth     = panelWidth - 8
	windowRowBytes = 8
)

// Backend is a tcell monitor showing CPU registers, timers, ports,
// disassembly around PC and recent log output.
type Backend struct {
	screen    tcell.Screen
	logBuffer *render.LogBuffer
	logLevel  slog.Level
	config    backend.BackendConfig
	signals   chan os.Signal
	prevLog   *slog.Logger

	last    *debug.CompleteDebugData
	disasm  *debug.DisasmBuffer
	newTerm func() (tcell.Screen, error)
}

// New creates a new terminal backend
func New() *Backend {
	return &Backend{
		logLevel: slog.LevelInfo,
		newTerm:  tcell.NewScreen,
	}
}

// NewWithScreen creates a backend that draws to screen, e.g. a tcell
// simulation screen.
func NewWithScreen(screen tcell.Screen) *Backend {
	b := New()
	b.newTerm = func() (tcell.Screen, error) { return screen, nil }
	return b
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.disasm = debug.NewDisasmBuffer(disasmHeight)

	screen, err := t.newTerm()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	t.screen = screen

	// log output would corrupt the screen, capture it instead
	t.logBuffer = render.NewLogBuffer(logCapacity)
	t.prevLog = slog.Default()
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))
	slog.Info("Terminal backend initialized", "title", config.Title)

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	return nil
}

// Update renders the latest state and processes pending input.
func (t *Backend) Update(data *debug.CompleteDebugData, samples []int16) error {
	select {
	case <-t.signals:
		t.config.Callbacks.Trigger(backend.ActionQuit)
	default:
	}

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	if data != nil {
		data.Peak = max(data.Peak, backend.Peak(samples))
		t.last = data
		t.logBuffer.SetFrame(data.Frame)
	}
	t.render()
	t.screen.Show()
	return nil
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.prevLog != nil {
		slog.SetDefault(t.prevLog)
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// Logs returns the captured log buffer.
func (t *Backend) Logs() *render.LogBuffer {
	return t.logBuffer
}

var keyMapping = map[tcell.Key]backend.Action{
	tcell.KeyCtrlC:  backend.ActionQuit,
	tcell.KeyEscape: backend.ActionQuit,
	tcell.KeyF10:    backend.ActionDebugToggle,
}

var runeMapping = map[rune]backend.Action{
	'q': backend.ActionQuit,
	' ': backend.ActionTogglePause,
	'f': backend.ActionStepFrame,
	'n': backend.ActionStepInstruction,
	'r': backend.ActionReset,
	'd': backend.ActionDebugToggle,
	'+': backend.ActionLogLevelIncrease,
	'=': backend.ActionLogLevelIncrease,
	'-': backend.ActionLogLevelDecrease,
	'_': backend.ActionLogLevelDecrease,
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	act, ok := keyMapping[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		act, ok = runeMapping[ev.Rune()]
	}
	if !ok {
		return
	}
	slog.Debug("Key event", "action", act)

	switch act {
	case backend.ActionDebugToggle:
		t.config.ShowDebug = !t.config.ShowDebug
	case backend.ActionLogLevelIncrease:
		t.changeLogLevel(1)
	case backend.ActionLogLevelDecrease:
		t.changeLogLevel(-1)
	default:
		t.config.Callbacks.Trigger(act)
	}
}

func (t *Backend) changeLogLevel(direction int) {
	oldLevel := t.logLevel
	switch direction {
	case -1:
		switch t.logLevel {
		case slog.LevelDebug:
			t.logLevel = slog.LevelInfo
		case slog.LevelInfo:
			t.logLevel = slog.LevelWarn
		case slog.LevelWarn:
			t.logLevel = slog.LevelError
		}
	case 1:
		switch t.logLevel {
		case slog.LevelError:
			t.logLevel = slog.LevelWarn
		case slog.LevelWarn:
			t.logLevel = slog.LevelInfo
		case slog.LevelInfo:
			t.logLevel = slog.LevelDebug
		}
	}
	if oldLevel != t.logLevel {
		slog.Info("Log filter changed", "from", oldLevel, "to", t.logLevel)
	}
}

var (
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	regStyle    = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	pcStyle     = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	meterStyle  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

func (t *Backend) render() {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	dividerX := panelWidth + 1
	rightX := dividerX + 1
	rightWidth := termWidth - rightX
	logsY := 1

	t.drawBorders(termWidth, termHeight, dividerX)
	if t.last != nil {
		t.drawState(1, 1, panelWidth, termHeight-2)
		if t.config.ShowDebug {
			t.drawDisassembly(rightX, 1, rightWidth)
			logsY = disasmHeight + 2
		}
	}
	t.drawLogs(rightX, logsY, rightWidth, termHeight-1)
}

func (t *Backend) drawBorders(termWidth, termHeight, dividerX int) {
	for y := 0; y < termHeight-1; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}
	t.drawText(1, 0, panelWidth, " SPC700 ", titleStyle)

	logsTitleY := 0
	if t.config.ShowDebug {
		t.drawText(dividerX+2, 0, termWidth-dividerX-2, " Disassembly ", titleStyle)
		logsTitleY = disasmHeight + 1
		for x := dividerX + 1; x < termWidth; x++ {
			t.screen.SetContent(x, logsTitleY, '─', nil, borderStyle)
		}
		t.screen.SetContent(dividerX, logsTitleY, '├', nil, borderStyle)
	}
	title := fmt.Sprintf(" Logs [%s] (-/+ filter) ", t.logLevel)
	t.drawText(dividerX+2, logsTitleY, termWidth-dividerX-2, title, titleStyle)

	help := " SPACE=pause F=frame N=step R=reset D=disasm Q=quit "
	t.drawText(0, termHeight-1, termWidth, help, borderStyle)
}

// StateLines formats registers, timers, ports and diagnostics.
func StateLines(d *debug.CompleteDebugData) []string {
	c := d.CPU
	lines := []string{
		fmt.Sprintf("Status: %s  CPU: %s", d.DebuggerState, c.State),
		fmt.Sprintf("Frame: %d  Time: %d", d.Frame, d.Time),
		fmt.Sprintf("PC: 0x%04X  SP: 0x%02X", c.PC, c.SP),
		fmt.Sprintf("A: 0x%02X  X: 0x%02X  Y: 0x%02X", c.A, c.X, c.Y),
		fmt.Sprintf("PSW: 0x%02X  %s", c.PSW, c.Flags),
		fmt.Sprintf("ROM: %s  Reset: $%04X  Suspicious: %d", onOff(d.ROMEnabled), d.ResetVector, c.Suspicious),
		fmt.Sprintf("Accuracy: %s  DSP lag: %d", d.Accuracy, d.DSPLag),
		fmt.Sprintf("DSP FLG: $%02X  Echo: %s $%04X+$%X",
			d.DSP.Flags, onOff(d.DSP.EchoWrites()), d.DSP.EchoBegin, d.DSP.EchoEnd-d.DSP.EchoBegin),
		"",
		"Timer  On  Period  Div  Cnt  Next",
	}
	for i, tm := range d.Timers {
		lines = append(lines, fmt.Sprintf("  T%d   %-3s %4d   %3d   %2d  %4d",
			i, onOff(tm.Enabled), tm.Period, tm.Divider, tm.Counter, tm.NextTick))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Out: %02X %02X %02X %02X", d.PortsOut[0], d.PortsOut[1], d.PortsOut[2], d.PortsOut[3]),
		fmt.Sprintf("In:  %02X %02X %02X %02X", d.PortsIn[0], d.PortsIn[1], d.PortsIn[2], d.PortsIn[3]),
		render.HexRow(0x00F0, d.Window[:windowRowBytes]),
		render.HexRow(0x00F8, d.Window[windowRowBytes:]),
		"",
		fmt.Sprintf("Glitches: %d  Bad writes: %d",
			d.Diagnostics.TimerGlitches,
			d.Diagnostics.TestWrites+d.Diagnostics.TimerOutWrites+d.Diagnostics.DSPHighWrites),
	)
	return lines
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func (t *Backend) drawState(startX, startY, width, maxY int) {
	lines := StateLines(t.last)
	y := startY
	for _, line := range lines {
		if y >= maxY {
			return
		}
		t.drawText(startX, y, width, line, regStyle)
		y++
	}
	if y < maxY {
		t.drawText(startX, y, width, "Peak: "+render.LevelMeter(t.last.Peak, meterWidth), meterStyle)
	}
}

func (t *Backend) drawDisassembly(startX, startY, width int) {
	lines := debug.CreateDisassemblyWithBuffer(t.last.Memory, t.last.CPU.PC, disasmHeight, t.disasm)
	for i, line := range lines {
		text := disasm.FormatDisassemblyLine(disasm.DisassemblyLine{
			Address:     line.Address,
			Instruction: line.Instruction,
		}, line.IsCurrent)
		style := regStyle
		if line.IsCurrent {
			style = pcStyle
		}
		t.drawText(startX, startY+i, width, text, style)
	}
}

func (t *Backend) drawLogs(startX, startY, width, maxY int) {
	if width <= 0 || startY >= maxY {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	logs := t.logBuffer.GetRecent(maxY-startY, t.logLevel)
	for i, entry := range logs {
		style := infoStyle
		switch entry.Level {
		case slog.LevelDebug:
			style = debugStyle
		case slog.LevelWarn:
			style = warnStyle
		case slog.LevelError:
			style = errStyle
		}
		t.drawText(startX, startY+i, width, render.FormatLogEntry(entry), style)
	}
}

func (t *Backend) drawText(x, y, width int, text string, style tcell.Style) {
	for i, ch := range []rune(render.Truncate(text, width)) {
		t.screen.SetContent(x+i, y, ch, nil, style)
	}
}
