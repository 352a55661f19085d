package dsp

// ClocksPerSample is the number of 1.024 MHz clocks per stereo output sample (32 kHz).
const ClocksPerSample = 32

// RegisterCount is the number of addressable DSP registers. Addresses 0x80-0xFF
// mirror 0x00-0x7F on read and ignore writes.
const RegisterCount = 0x80

// Global DSP registers, as addressed through DSPADDR.
const (
	MVOLL uint8 = 0x0C
	MVOLR uint8 = 0x1C
	EVOLL uint8 = 0x2C
	EVOLR uint8 = 0x3C
	KON   uint8 = 0x4C
	KOFF  uint8 = 0x5C
	FLG   uint8 = 0x6C
	ENDX  uint8 = 0x7C
	EFB   uint8 = 0x0D
	PMON  uint8 = 0x2D
	NON   uint8 = 0x3D
	EON   uint8 = 0x4D
	DIR   uint8 = 0x5D
	ESA   uint8 = 0x6D
	EDL   uint8 = 0x7D
)

// FLG bits.
const (
	FlagEchoDisable uint8 = 0x20
	FlagMute        uint8 = 0x40
	FlagReset       uint8 = 0x80
)

// EchoBlockSize is the number of RAM bytes per EDL step.
const EchoBlockSize = 0x800

// Sink receives stereo samples as the DSP produces them.
type Sink interface {
	Put(left, right int16)
}

// DSP is the digital signal processor seen from the SMP side. The emulator
// only reads and writes its registers and advances its clock; sample
// synthesis is the implementation's concern.
type DSP interface {
	// Read returns the register value. reg is always < RegisterCount.
	Read(reg uint8) uint8
	// Write stores a register value. reg is always < RegisterCount.
	Write(reg uint8, value uint8)
	// Run advances the DSP by the given number of clocks, emitting one stereo
	// sample to the sink every ClocksPerSample clocks.
	Run(clocks int)
	// Reset restores power-on state.
	Reset()
	// SoftReset restores the state after a reset signal without power loss.
	SoftReset()
	// SetSink selects where produced samples go. A nil sink discards them.
	SetSink(s Sink)
}
