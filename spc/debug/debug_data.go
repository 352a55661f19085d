package debug

import (
	"github.com/valerio/go-spc700/spc"
	"github.com/valerio/go-spc700/spc/addr"
	"github.com/valerio/go-spc700/spc/bit"
	"github.com/valerio/go-spc700/spc/cpu"
	"github.com/valerio/go-spc700/spc/dsp"
	"github.com/valerio/go-spc700/spc/memory"
)

// DebuggerState represents the current debugger state
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
	DebuggerStepInstruction
	DebuggerStepFrame
)

func (s DebuggerState) String() string {
	switch s {
	case DebuggerPaused:
		return "PAUSED"
	case DebuggerStepInstruction:
		return "STEP"
	case DebuggerStepFrame:
		return "FRAME"
	default:
		return "RUNNING"
	}
}

// CPUState contains all CPU register information for debugging
type CPUState struct {
	cpu.Registers
	Flags      string
	State      cpu.State
	Suspicious int
}

// TimerState is one timer as shown by the monitor.
type TimerState struct {
	Enabled   bool
	Period    int
	Divider   uint8
	Counter   uint8
	Prescaler int
	NextTick  int // clocks from the current time to the next divider tick
}

// DSPState holds the global DSP registers.
type DSPState struct {
	MainVolume [2]int8 // left, right
	EchoVolume [2]int8
	Feedback   int8
	KeyOn      uint8
	KeyOff     uint8
	Flags      uint8
	EndX       uint8
	PitchMod   uint8
	Noise      uint8
	EchoOn     uint8
	Dir        uint8
	EchoStart  uint8
	EchoDelay  uint8

	// EchoBegin and EchoEnd bound the RAM the echo buffer occupies.
	EchoBegin int
	EchoEnd   int
}

// EchoWrites reports whether the DSP writes into its echo buffer.
func (d DSPState) EchoWrites() bool {
	return d.Flags&dsp.FlagEchoDisable == 0
}

// ExtractDSPState reads the global DSP registers.
func ExtractDSPState(e *spc.Emulator) DSPState {
	r := e.DSPRegister
	s := DSPState{
		MainVolume: [2]int8{int8(r(dsp.MVOLL)), int8(r(dsp.MVOLR))},
		EchoVolume: [2]int8{int8(r(dsp.EVOLL)), int8(r(dsp.EVOLR))},
		Feedback:   int8(r(dsp.EFB)),
		KeyOn:      r(dsp.KON),
		KeyOff:     r(dsp.KOFF),
		Flags:      r(dsp.FLG),
		EndX:       r(dsp.ENDX),
		PitchMod:   r(dsp.PMON),
		Noise:      r(dsp.NON),
		EchoOn:     r(dsp.EON),
		Dir:        r(dsp.DIR),
		EchoStart:  r(dsp.ESA),
		EchoDelay:  r(dsp.EDL),
	}
	s.EchoBegin, s.EchoEnd = e.EchoRegion()
	return s
}

// MemorySnapshot contains a snapshot of memory for disassembly
type MemorySnapshot struct {
	StartAddr uint16
	Bytes     []uint8
}

// CompleteDebugData contains all debug information needed by debug displays
type CompleteDebugData struct {
	CPU         CPUState
	DSP         DSPState
	Timers      [addr.TimerCount]TimerState
	PortsOut    [addr.PortCount]byte // written by the SMP
	PortsIn     [addr.PortCount]byte // read by the SMP
	Window      [addr.RegisterCount]byte
	ROMEnabled  bool
	ResetVector uint16 // as stored in the installed boot ROM
	Accuracy    memory.Accuracy
	DSPLag      int // clocks the DSP trails the CPU, negative when ahead
	Diagnostics memory.Diagnostics
	Memory      *MemorySnapshot
	Time        int

	DebuggerState DebuggerState
	Frame         int
	Peak          int16 // loudest sample of the last frame
}

// snapshotWindow is how many bytes around PC are captured for disassembly.
const snapshotWindow = 0x40

// ExtractDebugData captures the emulator state between frames.
func ExtractDebugData(e *spc.Emulator) *CompleteDebugData {
	mem := e.Memory()
	regs := e.Registers()

	data := &CompleteDebugData{
		CPU: CPUState{
			Registers:  regs,
			Flags:      cpu.UnpackFlags(regs.PSW).String(),
			State:      e.CPUState(),
			Suspicious: e.SuspiciousOpcodes(),
		},
		DSP:         ExtractDSPState(e),
		Window:      mem.Registers(),
		ROMEnabled:  mem.ROMEnabled(),
		Accuracy:    mem.Accuracy(),
		DSPLag:      e.Time() - mem.DSPTime(),
		Diagnostics: mem.Diagnostics(),
		Memory:      ExtractMemorySnapshot(mem, regs.PC, snapshotWindow, snapshotWindow),
		Time:        e.Time(),
	}
	rom := mem.ROM()
	vec := addr.ResetVector - addr.ROMAddr
	data.ResetVector = bit.Combine(rom[vec+1], rom[vec])

	in := mem.InputRegisters()
	for i := range addr.PortCount {
		data.PortsOut[i] = data.Window[addr.CPUIO0+i]
		data.PortsIn[i] = in[addr.CPUIO0+i]
	}
	for i := range addr.TimerCount {
		t := mem.Timer(i)
		data.Timers[i] = TimerState{
			Enabled:   t.Enabled(),
			Period:    t.Period(),
			Divider:   t.Divider(),
			Counter:   t.Counter(),
			Prescaler: t.Prescaler(),
			NextTick:  t.NextTime() - data.Time,
		}
	}
	return data
}
