package console

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-spc700/spc"
)

func newTestConsole(t *testing.T, program ...byte) (*Console, *spc.Emulator) {
	t.Helper()
	cfg := spc.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	e := spc.New(cfg)
	require.NoError(t, e.LoadProgram(0x0200, program))
	return New(e), e
}

func run(t *testing.T, c *Console, script string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, c.RunCommands(strings.NewReader(script), &out, false))
	return out.String()
}

// INC A ; MOV $F4,A ; BRA -5
var counter = []byte{0xBC, 0xC4, 0xF4, 0x2F, 0xFB}

func TestConsole_step(t *testing.T) {
	c, e := newTestConsole(t, counter...)

	out := run(t, c, "step\nstep 2\n\n")

	assert.Contains(t, out, ">0x0200: INC A")
	assert.Contains(t, out, ">0x0201: MOV $F4,A")
	// the empty line repeats "step 2"
	assert.Equal(t, uint16(0x0203), e.Registers().PC)
	assert.Equal(t, uint8(2), e.Registers().A)
}

func TestConsole_breakpoints(t *testing.T) {
	c, e := newTestConsole(t, counter...)

	out := run(t, c, strings.Join([]string{
		"breakpoint add $0203",
		"run",
		"breakpoint list",
		"breakpoint remove $0203",
		"breakpoint remove $0203",
		"breakpoint list",
	}, "\n"))

	assert.Contains(t, out, "Breakpoint hit at $0203.")
	assert.Contains(t, out, "    $0203\n")
	assert.Contains(t, out, "Breakpoint at $0203 removed.")
	assert.Contains(t, out, "No breakpoint at $0203.")
	assert.Contains(t, out, "No breakpoints set.")
	assert.Equal(t, uint16(0x0203), e.Registers().PC)
	assert.Equal(t, byte(1), e.ReadPort(0, 0))
}

func TestConsole_runStopsOnHalt(t *testing.T) {
	c, e := newTestConsole(t, 0x00, 0xEF) // NOP ; SLEEP

	out := run(t, c, "run 100\n")

	assert.Contains(t, out, "cpu halted")
	assert.Equal(t, uint16(0x0201), e.Registers().PC)
}

func TestConsole_memoryAndPorts(t *testing.T) {
	c, e := newTestConsole(t, 0x2F, 0xFE)

	out := run(t, c, strings.Join([]string{
		"memory write $1000 $12 0x34 86",
		"memory dump $1000 4",
		"port write 2 $5A",
		"port read 9",
		"port read 0",
	}, "\n"))

	assert.Contains(t, out, "Wrote 3 bytes at $1000.")
	assert.Contains(t, out, "1000: 12 34 56 FF")
	assert.Contains(t, out, `invalid port "9"`)
	assert.Contains(t, out, "Port 0 = $FF")
	assert.Equal(t, byte(0x5A), e.Memory().InputRegisters()[6])
}

func TestConsole_setRegister(t *testing.T) {
	testCases := []struct {
		desc  string
		line  string
		check func(t *testing.T, e *spc.Emulator, out string)
	}{
		{desc: "accumulator", line: "set a $7F", check: func(t *testing.T, e *spc.Emulator, out string) {
			assert.Equal(t, uint8(0x7F), e.Registers().A)
		}},
		{desc: "prefix of sp", line: "set s 0x80", check: func(t *testing.T, e *spc.Emulator, out string) {
			assert.Equal(t, uint8(0x80), e.Registers().SP)
		}},
		{desc: "program counter", line: "set pc $0300", check: func(t *testing.T, e *spc.Emulator, out string) {
			assert.Equal(t, uint16(0x0300), e.Registers().PC)
		}},
		{desc: "ambiguous prefix", line: "set p 1", check: func(t *testing.T, e *spc.Emulator, out string) {
			assert.Contains(t, out, `Register "p"`)
			assert.Equal(t, uint16(0x0200), e.Registers().PC)
		}},
		{desc: "value too wide", line: "set x $100", check: func(t *testing.T, e *spc.Emulator, out string) {
			assert.Contains(t, out, `Invalid value "$100"`)
		}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, e := newTestConsole(t, 0x2F, 0xFE)
			out := run(t, c, tC.line+"\n")
			tC.check(t, e, out)
		})
	}
}

func TestConsole_frameAndTimers(t *testing.T) {
	c, _ := newTestConsole(t,
		0x8F, 0x10, 0xFA, // MOV $FA,#$10
		0x8F, 0x01, 0xF1, // MOV $F1,#$01
		0x2F, 0xFE, //       BRA *
	)

	out := run(t, c, "frame 64\nframe 3\ntimers\n")

	assert.Contains(t, out, "Played 64 samples")
	assert.Contains(t, out, "sample count must be even")
	assert.Contains(t, out, "  T0   on       16")
	assert.Contains(t, out, "  T1   off")
}

func TestConsole_lookupErrorsAndQuit(t *testing.T) {
	c, e := newTestConsole(t, 0x2F, 0xFE)

	out := run(t, c, "bogus\nhelp\ndisassemble $0200 1\nquit\nstep\n")

	assert.Contains(t, out, "Command not found.")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "memory dump <address> [<bytes>]")
	assert.Contains(t, out, ">0x0200: BRA $0200")
	// initial PC line and the disassembly, nothing from the step after quit
	assert.Equal(t, 2, strings.Count(out, "BRA $0200"))
	assert.Equal(t, 0, e.Time())
}

func TestConsole_subtreesAndCommandHelp(t *testing.T) {
	c, _ := newTestConsole(t, 0x2F, 0xFE)

	out := run(t, c, "memory\nhelp step\nhelp bogus\nbr a $0200\nb l\nr\n")

	assert.Contains(t, out, "memory commands:")
	assert.Contains(t, out, "dump")
	assert.Contains(t, out, "Usage: step [<count>]")
	assert.Contains(t, out, "Command not found.")
	assert.Contains(t, out, "Breakpoint added at $0200.")
	assert.Contains(t, out, "    $0200")
	// "r" matches both registers and reset
	assert.Contains(t, out, "Command is ambiguous.")
}

func TestConsole_dspRegisters(t *testing.T) {
	c, e := newTestConsole(t, 0x2F, 0xFE)

	out := run(t, c, strings.Join([]string{
		"dsp clear-echo",
		"dsp write $6C $00",
		"dsp write $6D $40",
		"dsp write $7D 1",
		"dsp write $80 1",
		"dsp registers",
		"dsp clear-echo",
	}, "\n"))

	assert.Contains(t, out, "Echo writes are disabled.")
	assert.Contains(t, out, `Invalid DSP register "$80"`)
	assert.Contains(t, out, "ESA   $40  EDL  $01  echo $4000-$47FF, writes enabled")
	assert.Contains(t, out, "Cleared 2048 bytes at $4000.")
	assert.Equal(t, byte(0xFF), e.Peek(0x47FF))
}
