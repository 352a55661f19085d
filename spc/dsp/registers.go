package dsp

// Registers is a DSP that keeps its register file and clock but synthesizes
// silence. It is enough to run programs that only talk to the DSP through
// registers, and it keeps the sample stream timed correctly.
type Registers struct {
	regs  [RegisterCount]uint8
	phase int // clocks since the last emitted sample
	sink  Sink

	// Clocks is the total number of clocks run since reset.
	Clocks uint64
}

var _ DSP = (*Registers)(nil)

// NewRegisters creates a register-file DSP in its power-on state.
func NewRegisters() *Registers {
	d := &Registers{}
	d.Reset()
	return d
}

func (d *Registers) Read(reg uint8) uint8 {
	return d.regs[reg&(RegisterCount-1)]
}

func (d *Registers) Write(reg uint8, value uint8) {
	reg &= RegisterCount - 1
	d.regs[reg] = value
	if reg == ENDX {
		// any write clears ENDX
		d.regs[reg] = 0
	}
}

func (d *Registers) Run(clocks int) {
	if clocks <= 0 {
		return
	}
	d.Clocks += uint64(clocks)
	d.phase += clocks
	for d.phase >= ClocksPerSample {
		d.phase -= ClocksPerSample
		if d.sink != nil {
			d.sink.Put(0, 0)
		}
	}
}

func (d *Registers) Reset() {
	d.regs = [RegisterCount]uint8{}
	d.SoftReset()
}

func (d *Registers) SoftReset() {
	// FLG: reset, mute, echo writes disabled
	d.regs[FLG] = 0xE0
	d.phase = 0
	d.Clocks = 0
}

func (d *Registers) SetSink(s Sink) {
	d.sink = s
}
