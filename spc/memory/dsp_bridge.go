package memory

import (
	"fmt"

	"github.com/valerio/go-spc700/spc/addr"
	"github.com/valerio/go-spc700/spc/dsp"
)

// maxRegTime is the largest latency in regTimes.
const maxRegTime = 29

// regTimes holds, per DSP register, how many clocks after the start of a
// sample the register is accessed by the DSP. Used by AccuracyFast to decide
// whether a whole sample must be run before the access.
var regTimes = [256]int8{
	-1, 0, -11, -10, -15, -11, -2, -2, 4, 3, 14, 14, 26, 26, 14, 22,
	2, 3, 0, 1, -12, 0, 1, 1, 7, 6, 14, 14, 27, 14, 14, 23,
	5, 6, 3, 4, -1, 3, 4, 4, 10, 9, 14, 14, 26, -5, 14, 23,
	8, 9, 6, 7, 2, 6, 7, 7, 13, 12, 14, 14, 27, -4, 14, 24,
	11, 12, 9, 10, 5, 9, 10, 10, 16, 15, 14, 14, -2, -4, 14, 24,
	14, 15, 12, 13, 8, 12, 13, 13, 19, 18, 14, 14, -2, -36, 14, 24,
	17, 18, 15, 16, 11, 15, 16, 16, 22, 21, 14, 14, 28, -3, 14, 25,
	20, 21, 18, 19, 14, 18, 19, 19, 25, 24, 14, 14, 14, 29, 14, 25,

	29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29,
	29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29,
	29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29,
	29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29,
	29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29,
	29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29,
	29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29,
	29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29, 29,
}

// runDSP advances the DSP so that an access at time observes every clock
// before it. latency is only used by AccuracyFast.
func (m *MMU) runDSP(time, latency int) {
	if m.accuracy == AccuracyFast {
		count := time - latency - m.dspTime
		if count >= 0 {
			clocks := (count &^ (dsp.ClocksPerSample - 1)) + dsp.ClocksPerSample
			m.dspTime += clocks
			m.dsp.Run(clocks)
		}
		return
	}

	count := time - m.dspTime
	if count > 0 {
		m.dspTime = time
		m.dsp.Run(count)
	}
}

func (m *MMU) dspRead(time int) byte {
	reg := m.regs[addr.DSPAddr] & 0x7F
	m.runDSP(time, int(regTimes[reg]))
	return m.dsp.Read(reg)
}

func (m *MMU) dspWrite(value byte, time int) {
	reg := m.regs[addr.DSPAddr]
	m.runDSP(time, int(regTimes[reg]))
	if reg > 0x7F {
		m.diag.DSPHighWrites++
		m.logger.Debug("write to read-only DSP register", "reg", fmt.Sprintf("0x%02X", reg), "value", fmt.Sprintf("0x%02X", value))
		return
	}
	m.dsp.Write(reg, value)
}
