package memory

import (
	"fmt"

	"github.com/valerio/go-spc700/spc/addr"
)

// TimerState is the decoded, externally visible state of one timer.
type TimerState struct {
	Enabled bool
	Period  int // 1-256
	Divider uint8
	Counter uint8 // 0-15
}

// Snapshot is the decoded memory-side state: RAM, register window, input
// ports and timers. RAM holds the shadow RAM under the overlay, never the ROM.
type Snapshot struct {
	RAM       [addr.MemorySize]byte
	Registers [addr.RegisterCount]byte
	Ports     [addr.PortCount]byte
	Timers    [addr.TimerCount]TimerState
}

// Validate checks every field that can hold an out of range value.
func (s *Snapshot) Validate() error {
	for i, t := range s.Timers {
		if t.Period < 1 || t.Period > 256 {
			return fmt.Errorf("timer %d: period %d out of range [1, 256]", i, t.Period)
		}
		if t.Counter > 0x0F {
			return fmt.Errorf("timer %d: counter %d out of range [0, 15]", i, t.Counter)
		}
	}
	return nil
}

// Snapshot captures the current memory-side state.
func (m *MMU) Snapshot() Snapshot {
	s := Snapshot{
		RAM:       m.ram,
		Registers: m.regs,
	}
	if m.romEnabled {
		copy(s.RAM[addr.ROMAddr:], m.hiRAM[:])
	}
	for i := range s.Ports {
		s.Ports[i] = m.regsIn[addr.CPUIO0+i]
	}
	for i, t := range m.timers {
		s.Timers[i] = TimerState{
			Enabled: t.enabled,
			Period:  t.period,
			Divider: t.divider,
			Counter: t.counter,
		}
	}
	return s
}

// Load replaces the memory-side state with s. The snapshot is validated
// first; on error nothing is modified. Clocks restart at zero and the DSP
// is left untouched.
func (m *MMU) Load(s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.ram = s.RAM
	m.romEnabled = false
	m.loadRegs(s.Registers[:])
	for i, v := range s.Ports {
		m.regsIn[addr.CPUIO0+i] = v
	}
	m.resetTime()
	for i, ts := range s.Timers {
		t := &m.timers[i]
		t.enabled = ts.Enabled
		t.period = ts.Period
		t.divider = ts.Divider
		t.counter = ts.Counter
		m.regsIn[addr.T0Out+i] = ts.Counter
	}
	m.EnableROM(m.regs[addr.Control]&addr.ControlROMEnable != 0)
	m.diag = Diagnostics{}
	return nil
}
