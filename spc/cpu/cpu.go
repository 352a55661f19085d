package cpu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-spc700/spc/addr"
)

// Bus is the CPU's view of the address space. Times are relative clocks:
// the CPU counts up toward zero during a burst.
type Bus interface {
	// Read and Write are CPU data accesses with register side effects.
	Read(address uint16, time int) byte
	Write(address uint16, value byte, time int)
	// WriteUnread is a write the instruction did not precede with a read.
	WriteUnread(address uint16, value byte, time int)
	// Peek and Poke access RAM directly. Used for opcode and operand
	// fetches, indirect pointers and the stack.
	Peek(address uint16) byte
	Poke(address uint16, value byte)
}

// State describes why the last burst stopped.
type State uint8

const (
	// Running is the state after reset.
	Running State = iota
	// HaltedOnTimeBudget means the next instruction would have run past the
	// requested end time. Calling Run again resumes.
	HaltedOnTimeBudget
	// HaltedOnFatalOpcode means SLEEP or STOP was executed. Only a reset
	// clears it.
	HaltedOnFatalOpcode
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case HaltedOnTimeBudget:
		return "halted on time budget"
	case HaltedOnFatalOpcode:
		return "halted on fatal opcode"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// ErrHalted is reported once the CPU has executed SLEEP or STOP.
var ErrHalted = errors.New("cpu halted")

// Registers is the CPU register file with the status word packed.
type Registers struct {
	PC  uint16
	A   uint8
	X   uint8
	Y   uint8
	SP  uint8
	PSW uint8
}

// CPU is the SPC700 execution engine.
type CPU struct {
	a     uint8
	x     uint8
	y     uint8
	sp    uint8
	pc    uint16
	flags Flags

	bus    Bus
	time   int // relative time of the running burst
	state  State
	opcode uint8

	suspicious int
	logger     *slog.Logger
	trace      func(pc uint16, opcode uint8)
}

// New returns a CPU attached to bus, in its reset state.
func New(bus Bus, logger *slog.Logger) *CPU {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CPU{
		bus:    bus,
		logger: logger,
	}
	c.Reset()
	return c
}

// Reset clears the registers and points PC at the boot ROM.
func (c *CPU) Reset() {
	c.a, c.x, c.y, c.sp = 0, 0, 0, 0
	c.flags = Flags{}
	c.pc = addr.ROMAddr
	c.state = Running
	c.suspicious = 0
}

// Run executes instructions starting at relative time relTime (<= 0) until
// the next instruction would end after time 0. It returns the time reached,
// which is at most 0 and never below -(MaxCycles-1) unless relTime was.
//
// After SLEEP or STOP the CPU stays on that opcode and every call returns 0.
func (c *CPU) Run(relTime int) int {
	if c.state == HaltedOnFatalOpcode {
		return 0
	}

	c.time = relTime
	for {
		opcode := c.bus.Peek(c.pc)
		cycles := int(cycleTable[opcode])
		c.time += cycles
		if c.time > 0 {
			c.time -= cycles
			c.state = HaltedOnTimeBudget
			return c.time
		}

		c.execute(opcode)
		if c.state == HaltedOnFatalOpcode {
			return c.time
		}
	}
}

// Step executes exactly one instruction starting at relTime, whatever its
// cost, and returns the time reached.
func (c *CPU) Step(relTime int) int {
	if c.state == HaltedOnFatalOpcode {
		return 0
	}

	c.time = relTime
	opcode := c.bus.Peek(c.pc)
	c.time += int(cycleTable[opcode])
	c.execute(opcode)
	if c.state != HaltedOnFatalOpcode {
		c.state = HaltedOnTimeBudget
	}
	return c.time
}

// execute runs opcode, whose base cost has already been added to time.
func (c *CPU) execute(opcode uint8) {
	if c.trace != nil {
		c.trace(c.pc, opcode)
	}
	c.opcode = opcode
	c.pc++
	opcodes[opcode].exec(c)
}

// Err returns ErrHalted if the CPU executed SLEEP or STOP.
func (c *CPU) Err() error {
	if c.state == HaltedOnFatalOpcode {
		return fmt.Errorf("%w: %s at 0x%04X", ErrHalted, opcodes[c.bus.Peek(c.pc)].name, c.pc)
	}
	return nil
}

// State returns why the last burst stopped.
func (c *CPU) State() State {
	return c.state
}

// Registers returns the register file.
func (c *CPU) Registers() Registers {
	return Registers{
		PC:  c.pc,
		A:   c.a,
		X:   c.x,
		Y:   c.y,
		SP:  c.sp,
		PSW: c.flags.Pack(),
	}
}

// SetRegisters replaces the register file and clears any halt.
func (c *CPU) SetRegisters(r Registers) {
	c.pc = r.PC
	c.a = r.A
	c.x = r.X
	c.y = r.Y
	c.sp = r.SP
	c.flags = UnpackFlags(r.PSW)
	c.state = Running
}

// Flags returns the unpacked status word.
func (c *CPU) Flags() Flags {
	return c.flags
}

// SuspiciousOpcodes returns how many opcodes that well-behaved sound programs
// never use were executed since reset.
func (c *CPU) SuspiciousOpcodes() int {
	return c.suspicious
}

// SetTraceHook installs fn to be called before each instruction executes.
// Pass nil to remove it.
func (c *CPU) SetTraceHook(fn func(pc uint16, opcode uint8)) {
	c.trace = fn
}

func (c *CPU) suspiciousOpcode() {
	c.suspicious++
	c.logger.Debug("suspicious opcode",
		"op", opcodes[c.opcode].name,
		"pc", fmt.Sprintf("0x%04X", c.pc-1))
}

// halt stops execution on the current opcode.
func (c *CPU) halt() {
	c.suspiciousOpcode()
	c.pc--
	c.time = 0
	c.state = HaltedOnFatalOpcode
	c.logger.Warn("cpu halted", "op", opcodes[c.opcode].name, "pc", fmt.Sprintf("0x%04X", c.pc))
}
