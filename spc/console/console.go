// Package console is a line-oriented debugger for the emulator: stepping,
// breakpoints, disassembly, memory, port and DSP register access.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
	"github.com/valerio/go-spc700/spc"
	"github.com/valerio/go-spc700/spc/backend"
	"github.com/valerio/go-spc700/spc/backend/terminal/render"
	"github.com/valerio/go-spc700/spc/debug"
	"github.com/valerio/go-spc700/spc/disasm"
	"github.com/valerio/go-spc700/spc/dsp"
)

const (
	defaultDisasmLines = 10
	defaultDumpBytes   = 64
	defaultRunLimit    = 1_000_000
	stepLinesToDisplay = 20
	dumpRowBytes       = 8
)

var errQuit = errors.New("quit")

// selection is a looked-up command and its arguments.
type selection struct {
	command *cmd.Command
	args    []string
}

// Console runs debugger commands against one emulator.
type Console struct {
	emu         *spc.Emulator
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	lastCmd     *selection

	nextDisasm  uint16
	nextDump    uint16
	breakpoints map[uint16]bool
}

// New creates a console for emu.
func New(emu *spc.Emulator) *Console {
	return &Console{
		emu:         emu,
		nextDisasm:  emu.Registers().PC,
		breakpoints: make(map[uint16]bool),
	}
}

// RunCommands reads commands from r until EOF or quit, writing results to w.
// An empty line repeats the previous command.
func (c *Console) RunCommands(r io.Reader, w io.Writer, interactive bool) error {
	c.input = bufio.NewScanner(r)
	c.output = bufio.NewWriter(w)
	c.interactive = interactive
	defer c.output.Flush()

	c.displayPC()
	for {
		c.prompt()

		line, err := c.getLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var sel selection
		if strings.TrimSpace(line) != "" {
			n, args, err := cmds.Lookup(line)
			switch {
			case errors.Is(err, cmd.ErrNotFound):
				c.println("Command not found.")
				continue
			case errors.Is(err, cmd.ErrAmbiguous):
				c.println("Command is ambiguous.")
				continue
			case err != nil:
				c.printf("ERROR: %v.\n", err)
				continue
			}
			command, ok := n.(*cmd.Command)
			if !ok {
				// a subtree without a subcommand
				n.DisplayHelp(c.output)
				c.output.Flush()
				continue
			}
			sel = selection{command: command, args: args}
		} else if c.lastCmd != nil {
			sel = *c.lastCmd
		}

		if sel.command == nil {
			continue
		}
		c.lastCmd = &sel

		handler := sel.command.Data.(func(*Console, []string) error)
		if err := handler(c, sel.args); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.output, format, args...)
	c.output.Flush()
}

func (c *Console) println(args ...any) {
	fmt.Fprintln(c.output, args...)
	c.output.Flush()
}

func (c *Console) getLine() (string, error) {
	if c.input.Scan() {
		return c.input.Text(), nil
	}
	if c.input.Err() != nil {
		return "", c.input.Err()
	}
	return "", io.EOF
}

func (c *Console) prompt() {
	if c.interactive {
		c.printf("* ")
	}
}

func (c *Console) usage(u string) error {
	c.printf("Syntax: %s\n", u)
	return nil
}

// parseNumber accepts $hex, 0xhex and decimal.
func parseNumber(s string, bits int) (uint64, error) {
	switch {
	case strings.HasPrefix(s, "$"):
		return strconv.ParseUint(s[1:], 16, bits)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		return strconv.ParseUint(s[2:], 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

func (c *Console) parseAddress(s string) (uint16, error) {
	if s == "." || strings.EqualFold(s, "pc") {
		return c.emu.Registers().PC, nil
	}
	v, err := parseNumber(s, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}

func (c *Console) parseByte(s string) (byte, error) {
	v, err := parseNumber(s, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(v), nil
}

func (c *Console) parseCount(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	v, err := parseNumber(args[i], 32)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", args[i])
	}
	return int(v), nil
}

func (c *Console) displayPC() {
	r := c.emu.Registers()
	line := disasm.DisassembleAt(r.PC, c.emu)
	c.printf("%-28s A=%02X X=%02X Y=%02X SP=%02X PSW=%02X %s\n",
		disasm.FormatDisassemblyLine(line, true),
		r.A, r.X, r.Y, r.SP, r.PSW, debug.ExtractDebugData(c.emu).CPU.Flags)
}

// stepOne executes a single instruction. It reports false once the CPU has
// halted.
func (c *Console) stepOne() (bool, error) {
	_, err := c.emu.Step()
	if errors.Is(err, spc.ErrHalted) {
		c.printf("%v\n", err)
		return false, nil
	}
	return err == nil, err
}

func (c *Console) cmdHelp(args []string) error {
	if len(args) > 0 {
		if err := cmds.GetHelp(c.output, args); err != nil {
			c.printf("%v.\n", err)
		}
		c.output.Flush()
		return nil
	}
	c.println("Commands:")
	for _, h := range help {
		c.printf("    %-36s  %s\n", h.usage, h.brief)
	}
	return nil
}

func (c *Console) cmdStep(args []string) error {
	count, err := c.parseCount(args, 0, 1)
	if err != nil {
		c.println(err)
		return c.usage(usageStep)
	}

	for i := count - 1; i >= 0; i-- {
		ok, err := c.stepOne()
		if err != nil || !ok {
			return err
		}
		switch {
		case i == stepLinesToDisplay:
			c.println("...")
		case i < stepLinesToDisplay:
			c.displayPC()
		}
	}
	c.nextDisasm = c.emu.Registers().PC
	return nil
}

func (c *Console) cmdFrame(args []string) error {
	count, err := c.parseCount(args, 0, spc.SampleRate/50*2)
	if err != nil {
		c.println(err)
		return c.usage(usageFrame)
	}

	samples, err := c.emu.Play(count)
	switch {
	case errors.Is(err, spc.ErrOddSampleCount):
		c.printf("%v\n", err)
		return nil
	case errors.Is(err, spc.ErrHalted):
		c.printf("%v\n", err)
	case err != nil:
		return err
	}
	c.printf("Played %d samples, peak %d, time %d\n", len(samples), backend.Peak(samples), c.emu.Time())
	c.displayPC()
	c.nextDisasm = c.emu.Registers().PC
	return nil
}

func (c *Console) cmdRun(args []string) error {
	limit, err := c.parseCount(args, 0, defaultRunLimit)
	if err != nil {
		c.println(err)
		return c.usage(usageRun)
	}

	c.printf("Running from $%04X.\n", c.emu.Registers().PC)
	for i := 0; i < limit; i++ {
		ok, err := c.stepOne()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if pc := c.emu.Registers().PC; c.breakpoints[pc] {
			c.printf("Breakpoint hit at $%04X.\n", pc)
			break
		}
	}
	c.displayPC()
	c.nextDisasm = c.emu.Registers().PC
	return nil
}

func (c *Console) cmdRegisters(args []string) error {
	c.displayPC()
	return nil
}

func (c *Console) cmdDisassemble(args []string) error {
	address := c.nextDisasm
	if len(args) > 0 {
		a, err := c.parseAddress(args[0])
		if err != nil {
			c.println(err)
			return c.usage(usageDisassemble)
		}
		address = a
	}
	lines, err := c.parseCount(args, 1, defaultDisasmLines)
	if err != nil {
		c.println(err)
		return c.usage(usageDisassemble)
	}

	pc := c.emu.Registers().PC
	for _, line := range disasm.DisassembleRange(address, lines, c.emu) {
		c.println(disasm.FormatDisassemblyLine(line, line.Address == pc))
		address = line.Address + uint16(line.Length)
	}
	c.nextDisasm = address
	return nil
}

func (c *Console) cmdTimers(args []string) error {
	data := debug.ExtractDebugData(c.emu)
	c.println("Timer  On   Period  Divider  Counter  Prescaler")
	for i, t := range data.Timers {
		on := "off"
		if t.Enabled {
			on = "on"
		}
		c.printf("  T%d   %-3s  %6d  %7d  %7d  %9d\n", i, on, t.Period, t.Divider, t.Counter, t.Prescaler)
	}
	return nil
}

func (c *Console) cmdSet(args []string) error {
	if len(args) < 2 {
		return c.usage(usageSet)
	}
	field, err := lookupRegister(args[0])
	if err != nil {
		c.printf("Register %q: %v\n", args[0], err)
		return nil
	}
	bits := 8
	if field.wide {
		bits = 16
	}
	v, err := parseNumber(args[1], bits)
	if err != nil {
		c.printf("Invalid value %q\n", args[1])
		return nil
	}

	r := c.emu.Registers()
	field.apply(&r, uint16(v))
	c.emu.SetRegisters(r)
	c.displayPC()
	return nil
}

func (c *Console) cmdReset(args []string) error {
	if len(args) > 0 && args[0] == "soft" {
		c.emu.SoftReset()
	} else {
		c.emu.Reset()
	}
	c.nextDisasm = c.emu.Registers().PC
	c.displayPC()
	return nil
}

func (c *Console) cmdQuit(args []string) error {
	return errQuit
}

func (c *Console) cmdMemoryDump(args []string) error {
	if len(args) < 1 {
		return c.usage(usageMemoryDump)
	}
	address := c.nextDump
	if args[0] != "$" {
		a, err := c.parseAddress(args[0])
		if err != nil {
			c.println(err)
			return nil
		}
		address = a
	}
	count, err := c.parseCount(args, 1, defaultDumpBytes)
	if err != nil {
		c.println(err)
		return nil
	}

	row := make([]byte, 0, dumpRowBytes)
	for i := 0; i < count; i += dumpRowBytes {
		start := address + uint16(i)
		row = row[:0]
		for j := 0; j < dumpRowBytes && i+j < count; j++ {
			row = append(row, c.emu.Peek(start+uint16(j)))
		}
		c.println(render.HexRow(start, row))
	}
	c.nextDump = address + uint16(count)
	return nil
}

func (c *Console) cmdMemoryWrite(args []string) error {
	if len(args) < 2 {
		return c.usage(usageMemoryWrite)
	}
	address, err := c.parseAddress(args[0])
	if err != nil {
		c.println(err)
		return nil
	}
	data := make([]byte, 0, len(args)-1)
	for _, a := range args[1:] {
		b, err := c.parseByte(a)
		if err != nil {
			c.println(err)
			return nil
		}
		data = append(data, b)
	}
	for i, b := range data {
		c.emu.Memory().Poke(address+uint16(i), b)
	}
	c.printf("Wrote %d bytes at $%04X.\n", len(data), address)
	return nil
}

func (c *Console) parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 3 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return n, nil
}

func (c *Console) cmdPortRead(args []string) error {
	if len(args) < 1 {
		return c.usage(usagePortRead)
	}
	n, err := c.parsePort(args[0])
	if err != nil {
		c.println(err)
		return nil
	}
	c.printf("Port %d = $%02X\n", n, c.emu.ReadPort(0, n))
	return nil
}

func (c *Console) cmdPortWrite(args []string) error {
	if len(args) < 2 {
		return c.usage(usagePortWrite)
	}
	n, err := c.parsePort(args[0])
	if err != nil {
		c.println(err)
		return nil
	}
	v, err := c.parseByte(args[1])
	if err != nil {
		c.println(err)
		return nil
	}
	c.emu.WritePort(0, n, v)
	return nil
}

func (c *Console) cmdBreakpointList(args []string) error {
	if len(c.breakpoints) == 0 {
		c.println("No breakpoints set.")
		return nil
	}
	addrs := make([]uint16, 0, len(c.breakpoints))
	for a := range c.breakpoints {
		addrs = append(addrs, a)
	}
	slices.Sort(addrs)
	for _, a := range addrs {
		c.printf("    $%04X\n", a)
	}
	return nil
}

func (c *Console) cmdBreakpointAdd(args []string) error {
	if len(args) < 1 {
		return c.usage(usageBreakAdd)
	}
	a, err := c.parseAddress(args[0])
	if err != nil {
		c.println(err)
		return nil
	}
	c.breakpoints[a] = true
	c.printf("Breakpoint added at $%04X.\n", a)
	return nil
}

func (c *Console) cmdBreakpointRemove(args []string) error {
	if len(args) < 1 {
		return c.usage(usageBreakRemove)
	}
	a, err := c.parseAddress(args[0])
	if err != nil {
		c.println(err)
		return nil
	}
	if !c.breakpoints[a] {
		c.printf("No breakpoint at $%04X.\n", a)
		return nil
	}
	delete(c.breakpoints, a)
	c.printf("Breakpoint at $%04X removed.\n", a)
	return nil
}

func (c *Console) cmdDSPRegisters(args []string) error {
	d := debug.ExtractDSPState(c.emu)
	c.printf("MVOL  L=%4d R=%4d   EVOL L=%4d R=%4d   EFB %4d\n",
		d.MainVolume[0], d.MainVolume[1], d.EchoVolume[0], d.EchoVolume[1], d.Feedback)
	c.printf("KON   $%02X  KOFF $%02X  ENDX $%02X  FLG $%02X\n", d.KeyOn, d.KeyOff, d.EndX, d.Flags)
	c.printf("PMON  $%02X  NON  $%02X  EON  $%02X  DIR $%02X\n", d.PitchMod, d.Noise, d.EchoOn, d.Dir)
	writes := "disabled"
	if d.EchoWrites() {
		writes = "enabled"
	}
	c.printf("ESA   $%02X  EDL  $%02X  echo $%04X-$%04X, writes %s\n",
		d.EchoStart, d.EchoDelay, d.EchoBegin, d.EchoEnd-1, writes)
	return nil
}

func (c *Console) cmdDSPWrite(args []string) error {
	if len(args) < 2 {
		return c.usage(usageDSPWrite)
	}
	reg, err := c.parseByte(args[0])
	if err != nil || reg >= dsp.RegisterCount {
		c.printf("Invalid DSP register %q\n", args[0])
		return nil
	}
	v, err := c.parseByte(args[1])
	if err != nil {
		c.println(err)
		return nil
	}
	c.emu.WriteDSPRegister(reg, v)
	return nil
}

func (c *Console) cmdDSPClearEcho(args []string) error {
	n := c.emu.ClearEcho()
	if n == 0 {
		c.println("Echo writes are disabled.")
		return nil
	}
	start, _ := c.emu.EchoRegion()
	c.printf("Cleared %d bytes at $%04X.\n", n, start)
	return nil
}
