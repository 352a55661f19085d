package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-spc700/spc/addr"
	"github.com/valerio/go-spc700/spc/dsp"
)

// Accuracy selects how closely DSP access timing and timer quirks are modeled.
type Accuracy uint8

const (
	// AccuracyFast runs the DSP in whole samples using a per-register latency
	// table instead of catching it up to the exact clock of every access.
	AccuracyFast Accuracy = iota
	// AccuracyNormal catches the DSP up to the exact clock of every access.
	AccuracyNormal
	// AccuracyHigh is AccuracyNormal plus the timer target write glitch.
	AccuracyHigh
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyFast:
		return "fast"
	case AccuracyNormal:
		return "normal"
	case AccuracyHigh:
		return "high"
	}
	return fmt.Sprintf("Accuracy(%d)", uint8(a))
}

// ParseAccuracy maps "fast", "normal" or "high" to an Accuracy.
func ParseAccuracy(s string) (Accuracy, error) {
	switch s {
	case "fast":
		return AccuracyFast, nil
	case "normal":
		return AccuracyNormal, nil
	case "high":
		return AccuracyHigh, nil
	}
	return 0, fmt.Errorf("unknown accuracy %q", s)
}

// Diagnostics counts register accesses that are legal but never made by
// well-behaved sound programs.
type Diagnostics struct {
	TestWrites     int // writes of anything other than 0x0A to TEST
	TimerOutWrites int // writes to a read-only timer counter
	DSPHighWrites  int // DSPDATA writes with DSPADDR above 0x7F
	TimerGlitches  int // target writes that corrupted a divider
}

// Options configures a new MMU.
type Options struct {
	Accuracy Accuracy
	Rand     RandSource
	Logger   *slog.Logger
}

// MMU is the SMP address space: 64 KiB of RAM with the register window at
// 0xF0-0xFF and the boot ROM overlay at 0xFFC0-0xFFFF.
//
// Registers are kept twice: regs holds the last value written by the CPU and
// regsIn holds what the CPU reads back. Times passed to Read and Write are
// relative CPU clocks, as are the timers' and the DSP's clocks.
type MMU struct {
	ram    [addr.MemorySize]byte
	regs   [addr.RegisterCount]byte
	regsIn [addr.RegisterCount]byte
	timers [addr.TimerCount]Timer

	rom        [addr.ROMSize]byte
	hiRAM      [addr.ROMSize]byte
	romEnabled bool

	dsp     dsp.DSP
	dspTime int

	accuracy Accuracy
	rng      RandSource
	logger   *slog.Logger
	diag     Diagnostics
}

// New creates a memory unit wired to the given DSP, loaded with the default
// boot ROM. Call Reset before running code.
func New(d dsp.DSP, opts Options) *MMU {
	m := &MMU{
		dsp:      d,
		rom:      DefaultROM(),
		accuracy: opts.Accuracy,
		rng:      opts.Rand,
		logger:   opts.Logger,
	}
	if m.rng == nil {
		m.rng = NewRandSource(0)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.SetTempo(TempoUnit)
	return m
}

// Accuracy returns the configured accuracy level.
func (m *MMU) Accuracy() Accuracy {
	return m.accuracy
}

// Read performs a CPU read at the given relative time, applying register
// side effects.
func (m *MMU) Read(address uint16, time int) byte {
	if address < addr.RegisterBase || address >= addr.RegisterBase+addr.RegisterCount {
		return m.ram[address]
	}

	reg := int(address - addr.RegisterBase)
	switch {
	case reg >= addr.T0Out:
		return m.timers[reg-addr.T0Out].readCounter(time)
	case reg == addr.DSPAddr:
		return m.regs[addr.DSPAddr]
	case reg == addr.DSPData:
		return m.dspRead(time)
	default:
		return m.regsIn[reg]
	}
}

// Write performs a CPU write at the given relative time, applying register
// side effects.
func (m *MMU) Write(address uint16, value byte, time int) {
	m.write(address, value, time, true)
}

// WriteUnread performs a CPU write that the instruction did not precede with
// a read of the same address. Only the timer counter registers care.
func (m *MMU) WriteUnread(address uint16, value byte, time int) {
	m.write(address, value, time, false)
}

func (m *MMU) write(address uint16, value byte, time int, readFirst bool) {
	m.ram[address] = value

	switch {
	case address >= addr.RegisterBase && address < addr.RegisterBase+addr.RegisterCount:
		reg := int(address - addr.RegisterBase)
		m.regs[reg] = value
		if reg == addr.DSPAddr || (reg >= addr.CPUIO0 && reg <= addr.CPUIO3) {
			return
		}
		m.writeRegister(reg, value, time, readFirst)
	case address >= addr.ROMAddr:
		i := address - addr.ROMAddr
		m.hiRAM[i] = value
		if m.romEnabled {
			m.ram[address] = m.rom[i]
		}
	}
}

func (m *MMU) writeRegister(reg int, value byte, time int, readFirst bool) {
	switch reg {
	case addr.DSPData:
		m.dspWrite(value, time)

	case addr.T0Target, addr.T1Target, addr.T2Target:
		t := &m.timers[reg-addr.T0Target]
		period := ifZeroThen256(int(value))
		if t.period != period {
			t.run(time)
			if m.accuracy == AccuracyHigh {
				m.targetGlitch(t, period, time)
			}
			t.period = period
		}

	case addr.T0Out, addr.T1Out, addr.T2Out:
		m.diag.TimerOutWrites++
		m.logger.Debug("write to timer counter", "timer", reg-addr.T0Out, "value", fmt.Sprintf("0x%02X", value))
		if readFirst {
			m.timers[reg-addr.T0Out].run(time - 1).counter = 0
		}

	case addr.F8, addr.F9:
		m.regsIn[reg] = value

	case addr.Test:
		if value != 0x0A {
			m.diag.TestWrites++
			m.logger.Debug("write to test register", "value", fmt.Sprintf("0x%02X", value))
		}

	case addr.Control:
		m.writeControl(value, time)
	}
}

func (m *MMU) writeControl(value byte, time int) {
	if value&addr.ControlClearPort0 != 0 {
		m.regsIn[addr.CPUIO0] = 0
		m.regsIn[addr.CPUIO1] = 0
	}
	if value&addr.ControlClearPort2 != 0 {
		m.regsIn[addr.CPUIO2] = 0
		m.regsIn[addr.CPUIO3] = 0
	}

	for i := range m.timers {
		t := &m.timers[i]
		enabled := value>>i&1 != 0
		if t.enabled == enabled {
			continue
		}
		t.run(time)
		t.enabled = enabled
		if enabled {
			t.divider = 0
			t.counter = 0
		}
	}

	m.EnableROM(value&addr.ControlROMEnable != 0)
}

// Peek reads RAM with no side effects. With the ROM mapped, the overlay
// region returns ROM bytes.
func (m *MMU) Peek(address uint16) byte {
	return m.ram[address]
}

// Poke writes RAM with no side effects.
func (m *MMU) Poke(address uint16, value byte) {
	m.ram[address] = value
}

// EnableROM maps the boot ROM (true) or the shadow RAM (false) into
// 0xFFC0-0xFFFF. The side not mapped is preserved.
func (m *MMU) EnableROM(enable bool) {
	if m.romEnabled == enable {
		return
	}
	m.romEnabled = enable
	if enable {
		copy(m.hiRAM[:], m.ram[addr.ROMAddr:])
		copy(m.ram[addr.ROMAddr:], m.rom[:])
	} else {
		copy(m.ram[addr.ROMAddr:], m.hiRAM[:])
	}
}

// ROMEnabled reports whether the boot ROM is mapped.
func (m *MMU) ROMEnabled() bool {
	return m.romEnabled
}

// InitROM installs a boot ROM image. If the ROM is currently mapped the new
// image becomes visible immediately.
func (m *MMU) InitROM(rom [addr.ROMSize]byte) {
	m.rom = rom
	if m.romEnabled {
		copy(m.ram[addr.ROMAddr:], m.rom[:])
	}
}

// ROM returns the installed boot ROM image.
func (m *MMU) ROM() [addr.ROMSize]byte {
	return m.rom
}

// ReadPort returns the value the CPU last wrote to output port n.
func (m *MMU) ReadPort(n int) byte {
	return m.regs[addr.CPUIO0+n]
}

// WritePort sets the value the CPU will read from input port n.
func (m *MMU) WritePort(n int, value byte) {
	m.regsIn[addr.CPUIO0+n] = value
}

// Registers returns the register window as last written by the CPU.
func (m *MMU) Registers() [addr.RegisterCount]byte {
	return m.regs
}

// InputRegisters returns the register window as the CPU would read it,
// without side effects.
func (m *MMU) InputRegisters() [addr.RegisterCount]byte {
	return m.regsIn
}

// Timer returns a copy of timer i.
func (m *MMU) Timer(i int) Timer {
	return m.timers[i]
}

// SetTempo scales timer speed; TempoUnit is normal speed.
func (m *MMU) SetTempo(tempo int) {
	for i, p := range prescalersForTempo(tempo) {
		m.timers[i].prescaler = p
	}
}

// Diagnostics returns the accumulated diagnostic counters.
func (m *MMU) Diagnostics() Diagnostics {
	return m.diag
}

// ShiftTime adds delta to the timer and DSP clocks. The frame driver uses it
// to rebase them on the CPU's clock before and after an execution burst.
func (m *MMU) ShiftTime(delta int) {
	m.dspTime += delta
	for i := range m.timers {
		m.timers[i].nextTime += delta
	}
}

// DSPTime returns the DSP clock, relative to the CPU clock.
func (m *MMU) DSPTime() int {
	return m.dspTime
}

// CatchUp brings every timer and a lagging DSP up to time.
func (m *MMU) CatchUp(time int) {
	for i := range m.timers {
		m.timers[i].run(time)
	}
	if m.dspTime < time {
		m.runDSP(time, maxRegTime)
	}
}

// Reset performs a power-on reset: RAM is filled with 0xFF, the register
// window is reloaded from it and the timer counters read 0x0F.
func (m *MMU) Reset() {
	for i := range m.ram {
		m.ram[i] = 0xFF
	}
	m.romEnabled = false
	m.loadRegs(m.ram[addr.RegisterBase:])
	m.resetCommon(0x0F)
	m.dsp.Reset()
}

// SoftReset resets the register state and timers, leaving RAM intact.
func (m *MMU) SoftReset() {
	m.resetCommon(0)
	m.dsp.SoftReset()
}

func (m *MMU) resetCommon(counterInit byte) {
	for i := range addr.TimerCount {
		m.regsIn[addr.T0Out+i] = counterInit
	}
	m.regs[addr.Test] = 0x0A
	m.regs[addr.Control] = 0xB0
	for i := range addr.PortCount {
		m.regsIn[addr.CPUIO0+i] = 0
	}
	m.resetTime()
	m.regsLoaded()
	m.diag = Diagnostics{}
}

// loadRegs fills both register arrays from in. Registers that cannot be read
// back read as zero.
func (m *MMU) loadRegs(in []byte) {
	copy(m.regs[:], in)
	copy(m.regsIn[:], in)
	m.regsIn[addr.Test] = 0
	m.regsIn[addr.Control] = 0
	m.regsIn[addr.T0Target] = 0
	m.regsIn[addr.T1Target] = 0
	m.regsIn[addr.T2Target] = 0
}

func (m *MMU) resetTime() {
	m.dspTime = 0
	if m.accuracy == AccuracyFast {
		m.dspTime = dsp.ClocksPerSample + 1
	}
	for i := range m.timers {
		m.timers[i].nextTime = 1
		m.timers[i].divider = 0
	}
}

// regsLoaded derives timer state and the ROM mapping from the register window.
func (m *MMU) regsLoaded() {
	for i := range m.timers {
		t := &m.timers[i]
		t.period = ifZeroThen256(int(m.regs[addr.T0Target+i]))
		t.enabled = m.regs[addr.Control]>>i&1 != 0
		t.counter = m.regsIn[addr.T0Out+i] & 0x0F
	}
	m.EnableROM(m.regs[addr.Control]&addr.ControlROMEnable != 0)
}
