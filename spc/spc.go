package spc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-spc700/spc/addr"
	"github.com/valerio/go-spc700/spc/cpu"
	"github.com/valerio/go-spc700/spc/dsp"
	"github.com/valerio/go-spc700/spc/memory"
)

const (
	// ClockRate is the SMP clock in Hz.
	ClockRate = 1024000
	// SampleRate is the DSP output rate in stereo pairs per second.
	SampleRate = ClockRate / dsp.ClocksPerSample

	// ClocksPerFrameSample is the number of clocks per individual (mono)
	// sample of the interleaved output.
	ClocksPerFrameSample = dsp.ClocksPerSample / 2

	// startSilence is the number of silent samples output after reset, which
	// gives the DSP room to run ahead of the CPU.
	startSilence = 8

	// MaxLag is how far before the requested end a frame may stop: the
	// longest instruction minus one clock.
	MaxLag = cpu.MaxCycles - 1
)

var (
	// ErrHalted is returned once the CPU has executed SLEEP or STOP.
	ErrHalted = cpu.ErrHalted
	// ErrInvalidState is returned when a State fails validation.
	ErrInvalidState = errors.New("invalid state")
	// ErrOddSampleCount is returned when Play is asked for a partial stereo
	// pair.
	ErrOddSampleCount = errors.New("sample count must be even and non-negative")
	// ErrNegativeTime is returned when a frame length is negative.
	ErrNegativeTime = errors.New("frame end time is negative")
	// ErrFrameOverrun is returned when a frame would end before the point a
	// port access already ran the CPU to.
	ErrFrameOverrun = errors.New("frame ends before the current time")
)

// FrameResult reports the outcome of one frame.
type FrameResult struct {
	// Samples holds the interleaved stereo samples that belong to the frame.
	Samples []int16
	// Time is the CPU clock relative to the frame end, in [-MaxLag, 0].
	Time int
	// Halted is true once the CPU has executed SLEEP or STOP.
	Halted bool
}

// Emulator is a complete SMP: CPU, memory, timers and the DSP bridge, driven
// in frames of relative time.
type Emulator struct {
	cpu *cpu.CPU
	mem *memory.MMU
	dsp dsp.DSP

	samples     dsp.Buffer
	spcTime     int // CPU clock relative to the start of the current frame
	extraClocks int // clocks run but not yet paid out as samples

	logger *slog.Logger
}

// New creates an emulator in its power-on state.
func New(cfg Config) *Emulator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DSP == nil {
		cfg.DSP = dsp.NewRegisters()
	}
	if cfg.Rand == nil {
		cfg.Rand = memory.NewRandSource(cfg.Seed)
	}
	if cfg.Tempo == 0 {
		cfg.Tempo = memory.TempoUnit
	}

	e := &Emulator{
		dsp:    cfg.DSP,
		logger: cfg.Logger,
	}
	e.mem = memory.New(cfg.DSP, memory.Options{
		Accuracy: cfg.Accuracy,
		Rand:     cfg.Rand,
		Logger:   cfg.Logger,
	})
	e.cpu = cpu.New(e.mem, cfg.Logger)
	e.dsp.SetSink(&e.samples)
	e.mem.SetTempo(cfg.Tempo)
	e.Reset()
	return e
}

// Reset performs a power-on reset.
func (e *Emulator) Reset() {
	e.mem.Reset()
	e.resetCommon()
}

// SoftReset resets the CPU, timers and registers but keeps RAM.
func (e *Emulator) SoftReset() {
	e.mem.SoftReset()
	e.resetCommon()
}

func (e *Emulator) resetCommon() {
	e.cpu.Reset()
	e.spcTime = 0
	e.extraClocks = 0
	e.samples.Reset()
	e.samples.Silence(startSilence)
}

// runUntil runs the CPU until end, shifting the timers and the DSP onto the
// CPU's relative clock for the duration of the burst.
func (e *Emulator) runUntil(end int) {
	e.burst(end, e.cpu.Run)
}

func (e *Emulator) burst(end int, run func(relTime int) int) {
	rel := e.spcTime - end
	e.spcTime = end
	e.mem.ShiftTime(rel)

	rel = run(rel)

	e.spcTime += rel
	e.mem.ShiftTime(-rel)
}

// RunFrame runs end clocks from the start of the current frame and starts a
// new frame there. If the last instruction would cross end it is left for the
// next frame. Timers and the DSP are caught up to where the CPU stopped.
func (e *Emulator) RunFrame(end int) (FrameResult, error) {
	if end < 0 {
		return FrameResult{}, fmt.Errorf("run frame of %d clocks: %w", end, ErrNegativeTime)
	}
	if e.spcTime > end {
		return FrameResult{}, fmt.Errorf("run frame of %d clocks at time %d: %w", end, e.spcTime, ErrFrameOverrun)
	}

	if end > e.spcTime {
		e.runUntil(end)
	}
	return e.endFrame(end)
}

// Step executes exactly the next instruction and closes the frame at the
// point the instruction's full base cost would reach. Untaken branches leave
// the frame slightly ahead of the CPU as RunFrame does.
func (e *Emulator) Step() (FrameResult, error) {
	if e.cpu.State() == cpu.HaltedOnFatalOpcode {
		return FrameResult{Time: e.spcTime, Halted: true}, e.cpu.Err()
	}
	end := max(e.spcTime+cpu.Cycles(e.mem.Peek(e.cpu.Registers().PC)), 0)
	e.burst(end, e.cpu.Step)
	return e.endFrame(end)
}

// endFrame starts a new frame at end and pays out the samples produced.
func (e *Emulator) endFrame(end int) (FrameResult, error) {
	e.spcTime -= end
	e.extraClocks += end

	e.mem.CatchUp(0)

	// pay out the samples for whole elapsed sample periods; anything the DSP
	// produced beyond that stays buffered for the next frame
	n := (e.extraClocks / dsp.ClocksPerSample) * 2
	e.extraClocks %= dsp.ClocksPerSample
	samples := e.samples.Take(n)
	if missing := n - len(samples); missing > 0 {
		e.logger.Debug("dsp behind frame end", "missing", missing)
		samples = append(samples, make([]int16, missing)...)
	}

	result := FrameResult{
		Samples: samples,
		Time:    e.spcTime,
		Halted:  e.cpu.State() == cpu.HaltedOnFatalOpcode,
	}
	return result, e.cpu.Err()
}

// Play runs long enough to produce count samples (count/2 stereo pairs) and
// returns them.
func (e *Emulator) Play(count int) ([]int16, error) {
	if count < 0 || count%2 != 0 {
		return nil, fmt.Errorf("play %d samples: %w", count, ErrOddSampleCount)
	}
	result, err := e.RunFrame(count * ClocksPerFrameSample)
	return result.Samples, err
}

// Skip runs for count samples and discards the output.
func (e *Emulator) Skip(count int) error {
	_, err := e.Play(count)
	return err
}

// ReadPort runs until t clocks into the current frame and returns what the
// CPU last wrote to output port n (0-3).
func (e *Emulator) ReadPort(t, n int) byte {
	if t > e.spcTime {
		e.runUntil(t)
	}
	return e.mem.ReadPort(n & (addr.PortCount - 1))
}

// WritePort runs until t clocks into the current frame and sets the value the
// CPU reads from input port n (0-3).
func (e *Emulator) WritePort(t, n int, value byte) {
	if t > e.spcTime {
		e.runUntil(t)
	}
	e.mem.WritePort(n&(addr.PortCount-1), value)
}

// LoadProgram copies program into RAM at origin and points the CPU at it
// with an empty stack.
func (e *Emulator) LoadProgram(origin uint16, program []byte) error {
	if int(origin)+len(program) > addr.MemorySize {
		return fmt.Errorf("program of %d bytes at 0x%04X: %w", len(program), origin, ErrInvalidState)
	}
	for i, b := range program {
		e.mem.Poke(origin+uint16(i), b)
	}
	regs := e.cpu.Registers()
	regs.PC = origin
	regs.SP = 0xEF
	e.cpu.SetRegisters(regs)
	return nil
}

// DSPRegister returns a DSP register as the SMP would read it.
func (e *Emulator) DSPRegister(reg uint8) uint8 {
	return e.dsp.Read(reg & (dsp.RegisterCount - 1))
}

// WriteDSPRegister stores a DSP register as the SMP would through DSPDATA.
func (e *Emulator) WriteDSPRegister(reg, value uint8) {
	e.dsp.Write(reg&(dsp.RegisterCount-1), value)
}

// EchoRegion returns the RAM range [start, end) the echo buffer occupies.
// With EDL at zero the DSP still touches four bytes at ESA.
func (e *Emulator) EchoRegion() (start, end int) {
	start = int(e.dsp.Read(dsp.ESA)) * 0x100
	size := int(e.dsp.Read(dsp.EDL)&0x0F) * dsp.EchoBlockSize
	if size == 0 {
		size = 4
	}
	return start, min(start+size, addr.MemorySize)
}

// ClearEcho fills the echo buffer with 0xFF when echo writes are enabled and
// returns the number of bytes cleared. Loaded snapshots often carry garbage
// there.
func (e *Emulator) ClearEcho() int {
	if e.dsp.Read(dsp.FLG)&dsp.FlagEchoDisable != 0 {
		return 0
	}
	start, end := e.EchoRegion()
	for a := start; a < end; a++ {
		e.mem.Poke(uint16(a), 0xFF)
	}
	e.logger.Debug("echo buffer cleared", "start", fmt.Sprintf("0x%04X", start), "bytes", end-start)
	return end - start
}

// InitROM installs the 64-byte boot ROM.
func (e *Emulator) InitROM(rom [addr.ROMSize]byte) {
	e.mem.InitROM(rom)
}

// EnableROM maps or unmaps the boot ROM regardless of the control register.
func (e *Emulator) EnableROM(enable bool) {
	e.mem.EnableROM(enable)
}

// SetTempo scales timer speed; memory.TempoUnit is normal speed.
func (e *Emulator) SetTempo(tempo int) {
	e.mem.SetTempo(tempo)
}

// Time returns the CPU clock relative to the start of the current frame.
func (e *Emulator) Time() int {
	return e.spcTime
}

// Registers returns the CPU register file.
func (e *Emulator) Registers() cpu.Registers {
	return e.cpu.Registers()
}

// SetRegisters replaces the CPU registers and clears a halt.
func (e *Emulator) SetRegisters(r cpu.Registers) {
	e.cpu.SetRegisters(r)
}

// CPUState returns why the CPU last stopped.
func (e *Emulator) CPUState() cpu.State {
	return e.cpu.State()
}

// Peek reads memory without side effects.
func (e *Emulator) Peek(address uint16) byte {
	return e.mem.Peek(address)
}

// Memory exposes the memory unit for inspection.
func (e *Emulator) Memory() *memory.MMU {
	return e.mem
}

// SuspiciousOpcodes returns how many rarely legitimate opcodes ran since reset.
func (e *Emulator) SuspiciousOpcodes() int {
	return e.cpu.SuspiciousOpcodes()
}

// SetTraceHook installs a callback run before every instruction.
func (e *Emulator) SetTraceHook(fn func(pc uint16, opcode uint8)) {
	e.cpu.SetTraceHook(fn)
}
