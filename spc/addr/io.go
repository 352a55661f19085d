package addr

// Register window. The sixteen SMP registers alias RAM at 0xF0-0xFF.
const (
	// RegisterBase is the address of the first register in the window.
	RegisterBase uint16 = 0x00F0
	// RegisterCount is the size of the register window.
	RegisterCount = 16
)

// Register offsets inside the window (address - RegisterBase).
const (
	Test     = 0x0 // TEST: undocumented, software writes 0x0A
	Control  = 0x1 // CONTROL: timer enables, port clears, ROM enable
	DSPAddr  = 0x2 // DSPADDR: DSP register select
	DSPData  = 0x3 // DSPDATA: DSP register data
	CPUIO0   = 0x4 // CPUIO0-3: ports shared with the host
	CPUIO1   = 0x5
	CPUIO2   = 0x6
	CPUIO3   = 0x7
	F8       = 0x8 // plain latches
	F9       = 0x9
	T0Target = 0xA // timer 0-2 period
	T1Target = 0xB
	T2Target = 0xC
	T0Out    = 0xD // timer 0-2 counter, read-and-clear
	T1Out    = 0xE
	T2Out    = 0xF
)

// PortCount is the number of host communication ports.
const PortCount = 4

// TimerCount is the number of hardware timers.
const TimerCount = 3

// Control register bits.
const (
	ControlTimer0     uint8 = 0x01
	ControlTimer1     uint8 = 0x02
	ControlTimer2     uint8 = 0x04
	ControlClearPort0 uint8 = 0x10 // clears input ports 0 and 1
	ControlClearPort2 uint8 = 0x20 // clears input ports 2 and 3
	ControlROMEnable  uint8 = 0x80
)

// High memory overlay.
const (
	// ROMAddr is where the boot ROM is mapped when enabled.
	ROMAddr uint16 = 0xFFC0
	// ROMSize is the size of the boot ROM and its shadow RAM.
	ROMSize = 64
)

// Vectors.
const (
	// ResetVector holds the reset address inside the boot ROM.
	ResetVector uint16 = 0xFFFE
	// BRKVector is used by BRK and TCALL 0.
	BRKVector uint16 = 0xFFDE
	// PCallPage is the page targeted by PCALL.
	PCallPage uint16 = 0xFF00
)

// Stack page base.
const StackPage uint16 = 0x0100

// MemorySize is the size of the flat address space.
const MemorySize = 0x10000
