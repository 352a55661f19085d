package memory

import (
	"math/rand/v2"

	"github.com/valerio/go-spc700/spc/bit"
)

// RandSource supplies the random draws for the timer target glitch.
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	Uint32() uint32
}

// NewRandSource returns the default deterministic glitch source for seed.
func NewRandSource(seed uint64) RandSource {
	return rand.New(rand.NewPCG(seed, seed^0x5350437))
}

// glitchProbs holds, for a new period of 3, 5 and 9, the probability (out of
// 255) that the glitch occurs, indexed by the previous period.
var glitchProbs = [3][256]uint8{
	{
		0xC3, 0x92, 0x5B, 0x1C, 0xD1, 0x92, 0x5B, 0x1C, 0xDB, 0x9C, 0x72, 0x18, 0xCD, 0x5C, 0x38, 0x0B,
		0xE1, 0x9C, 0x74, 0x17, 0xCF, 0x75, 0x45, 0x0C, 0xCF, 0x6E, 0x4A, 0x0D, 0xA3, 0x3A, 0x1D, 0x08,
		0xDB, 0xA0, 0x82, 0x19, 0xD9, 0x73, 0x3C, 0x0E, 0xCB, 0x76, 0x52, 0x0B, 0xA5, 0x46, 0x1D, 0x09,
		0xDA, 0x74, 0x55, 0x0F, 0xA2, 0x3F, 0x21, 0x05, 0x9A, 0x40, 0x20, 0x07, 0x63, 0x1E, 0x10, 0x01,
		0xDF, 0xA9, 0x85, 0x1D, 0xD3, 0x84, 0x4B, 0x0E, 0xCF, 0x6F, 0x49, 0x0F, 0xB3, 0x48, 0x1E, 0x05,
		0xD8, 0x77, 0x52, 0x12, 0xB7, 0x49, 0x23, 0x06, 0xAA, 0x45, 0x28, 0x07, 0x7D, 0x28, 0x0F, 0x07,
		0xCC, 0x7B, 0x4A, 0x0E, 0xB2, 0x4F, 0x24, 0x07, 0xAD, 0x43, 0x2C, 0x06, 0x86, 0x29, 0x11, 0x07,
		0xAE, 0x48, 0x1F, 0x0A, 0x76, 0x21, 0x19, 0x05, 0x76, 0x21, 0x14, 0x05, 0x44, 0x11, 0x0B, 0x01,
		0xE7, 0xAD, 0x96, 0x23, 0xDC, 0x86, 0x59, 0x0E, 0xDC, 0x7C, 0x5F, 0x15, 0xBB, 0x53, 0x2E, 0x09,
		0xD6, 0x7C, 0x4A, 0x16, 0xBB, 0x4A, 0x25, 0x08, 0xB3, 0x4F, 0x28, 0x0B, 0x8E, 0x23, 0x15, 0x08,
		0xCF, 0x7F, 0x57, 0x11, 0xB5, 0x4A, 0x23, 0x0A, 0xAA, 0x42, 0x28, 0x05, 0x7D, 0x22, 0x12, 0x03,
		0xA6, 0x49, 0x28, 0x09, 0x82, 0x2B, 0x0D, 0x04, 0x7A, 0x20, 0x0F, 0x04, 0x3D, 0x0F, 0x09, 0x03,
		0xD1, 0x7C, 0x4C, 0x0F, 0xAF, 0x4E, 0x21, 0x09, 0xA8, 0x46, 0x2A, 0x07, 0x85, 0x1F, 0x0E, 0x07,
		0xA6, 0x3F, 0x26, 0x07, 0x7C, 0x24, 0x14, 0x07, 0x78, 0x22, 0x16, 0x04, 0x46, 0x12, 0x0A, 0x02,
		0xA6, 0x41, 0x2C, 0x0A, 0x7E, 0x28, 0x11, 0x05, 0x73, 0x1B, 0x14, 0x05, 0x3D, 0x11, 0x0A, 0x02,
		0x70, 0x22, 0x17, 0x05, 0x48, 0x13, 0x08, 0x03, 0x3C, 0x07, 0x0D, 0x07, 0x26, 0x07, 0x06, 0x01,
	},
	{
		0xE0, 0x9F, 0xDA, 0x7C, 0x4F, 0x18, 0x28, 0x0D, 0xE9, 0x9F, 0xDA, 0x7C, 0x4F, 0x18, 0x1F, 0x07,
		0xE6, 0x97, 0xD8, 0x72, 0x64, 0x13, 0x26, 0x09, 0xDC, 0x67, 0xA9, 0x38, 0x21, 0x07, 0x15, 0x06,
		0xE9, 0x91, 0xD2, 0x6B, 0x63, 0x14, 0x2B, 0x0E, 0xD6, 0x61, 0xB7, 0x41, 0x2B, 0x0E, 0x10, 0x09,
		0xCF, 0x59, 0xB0, 0x2F, 0x35, 0x08, 0x0F, 0x07, 0xB6, 0x30, 0x7A, 0x21, 0x17, 0x07, 0x09, 0x03,
		0xE7, 0xA3, 0xE5, 0x6B, 0x65, 0x1F, 0x34, 0x09, 0xD8, 0x6B, 0xBE, 0x45, 0x27, 0x07, 0x10, 0x07,
		0xDA, 0x54, 0xB1, 0x39, 0x2E, 0x0E, 0x17, 0x08, 0xA9, 0x3C, 0x86, 0x22, 0x16, 0x06, 0x07, 0x03,
		0xD4, 0x51, 0xBC, 0x3D, 0x38, 0x0A, 0x13, 0x06, 0xB2, 0x37, 0x79, 0x1C, 0x17, 0x05, 0x0E, 0x06,
		0xA7, 0x31, 0x74, 0x1C, 0x11, 0x06, 0x0C, 0x02, 0x6D, 0x1A, 0x38, 0x10, 0x0B, 0x05, 0x06, 0x03,
		0xEB, 0x9A, 0xE1, 0x7A, 0x6F, 0x13, 0x34, 0x0E, 0xE6, 0x75, 0xC5, 0x45, 0x3E, 0x0B, 0x1A, 0x05,
		0xD8, 0x63, 0xC1, 0x40, 0x3C, 0x1B, 0x19, 0x06, 0xB3, 0x42, 0x83, 0x29, 0x18, 0x0A, 0x08, 0x04,
		0xD4, 0x58, 0xBA, 0x43, 0x3F, 0x0A, 0x1F, 0x09, 0xB1, 0x33, 0x8A, 0x1F, 0x1F, 0x06, 0x0D, 0x05,
		0xAF, 0x3C, 0x7A, 0x1F, 0x16, 0x08, 0x0A, 0x01, 0x72, 0x1B, 0x52, 0x0D, 0x0B, 0x09, 0x06, 0x01,
		0xCF, 0x63, 0xB7, 0x47, 0x40, 0x10, 0x14, 0x06, 0xC0, 0x41, 0x96, 0x20, 0x1C, 0x09, 0x10, 0x05,
		0xA6, 0x35, 0x82, 0x1A, 0x20, 0x0C, 0x0E, 0x04, 0x80, 0x1F, 0x53, 0x0F, 0x0B, 0x02, 0x06, 0x01,
		0xA6, 0x31, 0x81, 0x1B, 0x1D, 0x01, 0x08, 0x08, 0x7B, 0x20, 0x4D, 0x19, 0x0E, 0x05, 0x07, 0x03,
		0x6B, 0x17, 0x49, 0x07, 0x0E, 0x03, 0x0A, 0x05, 0x37, 0x0B, 0x1F, 0x06, 0x04, 0x02, 0x07, 0x01,
	},
	{
		0xF0, 0xD6, 0xED, 0xAD, 0xEC, 0xB1, 0xEB, 0x79, 0xAC, 0x22, 0x47, 0x1E, 0x6E, 0x1B, 0x32, 0x0A,
		0xF0, 0xD6, 0xEA, 0xA4, 0xED, 0xC4, 0xDE, 0x82, 0x98, 0x1F, 0x50, 0x13, 0x52, 0x15, 0x2A, 0x0A,
		0xF1, 0xD1, 0xEB, 0xA2, 0xEB, 0xB7, 0xD8, 0x69, 0xA2, 0x1F, 0x5B, 0x18, 0x55, 0x18, 0x2C, 0x0A,
		0xED, 0xB5, 0xDE, 0x7E, 0xE6, 0x85, 0xD3, 0x59, 0x59, 0x0F, 0x2C, 0x09, 0x24, 0x07, 0x15, 0x09,
		0xF1, 0xD6, 0xEA, 0xA0, 0xEC, 0xBB, 0xDA, 0x77, 0xA9, 0x23, 0x58, 0x14, 0x5D, 0x12, 0x2F, 0x09,
		0xF1, 0xC1, 0xE3, 0x86, 0xE4, 0x87, 0xD2, 0x4E, 0x68, 0x15, 0x26, 0x0B, 0x27, 0x09, 0x15, 0x02,
		0xEE, 0xA6, 0xE0, 0x5C, 0xE0, 0x77, 0xC3, 0x41, 0x67, 0x1B, 0x3C, 0x07, 0x2A, 0x06, 0x19, 0x07,
		0xE4, 0x75, 0xC6, 0x43, 0xCC, 0x50, 0x95, 0x23, 0x35, 0x09, 0x14, 0x04, 0x15, 0x05, 0x0B, 0x04,
		0xEE, 0xD6, 0xED, 0xAD, 0xEC, 0xB1, 0xEB, 0x79, 0xAC, 0x22, 0x56, 0x14, 0x5A, 0x12, 0x26, 0x0A,
		0xEE, 0xBB, 0xE7, 0x7E, 0xE9, 0x8D, 0xCB, 0x49, 0x67, 0x11, 0x34, 0x07, 0x2B, 0x0B, 0x14, 0x07,
		0xED, 0xA7, 0xE5, 0x76, 0xE3, 0x7E, 0xC4, 0x4B, 0x77, 0x14, 0x34, 0x08, 0x27, 0x07, 0x14, 0x04,
		0xE7, 0x8B, 0xD2, 0x4C, 0xCA, 0x56, 0x9E, 0x31, 0x36, 0x0C, 0x11, 0x07, 0x14, 0x04, 0x0A, 0x02,
		0xF0, 0x9B, 0xEA, 0x6F, 0xE5, 0x81, 0xC4, 0x43, 0x74, 0x10, 0x30, 0x0B, 0x2D, 0x08, 0x1B, 0x06,
		0xE6, 0x83, 0xCA, 0x48, 0xD9, 0x56, 0xA7, 0x23, 0x3B, 0x09, 0x12, 0x09, 0x15, 0x07, 0x0A, 0x03,
		0xE5, 0x5F, 0xCB, 0x3C, 0xCF, 0x48, 0x91, 0x22, 0x31, 0x0A, 0x17, 0x08, 0x15, 0x04, 0x0D, 0x02,
		0xD1, 0x43, 0x91, 0x20, 0xA9, 0x2D, 0x54, 0x12, 0x17, 0x07, 0x09, 0x02, 0x0C, 0x04, 0x05, 0x03,
	},
}

// glitchProbability returns the chance (0-255) of the target write glitch for
// the new period, given the period it replaces.
func glitchProbability(period, oldPeriod int) int {
	old := oldPeriod & 0xFF
	switch period {
	case 3:
		return int(glitchProbs[0][old])
	case 5:
		return int(glitchProbs[1][old])
	case 9:
		return int(glitchProbs[2][old])
	}
	return 0xFF
}

// targetGlitch reproduces the divider corruption seen when a timer target is
// written just after the divider was clocked, the divider matches the new
// period, and the new period is not 1, 2, 4 or 8. The glitch suppresses the
// increment of the divider bit matching the lowest set bit of the new period.
func (m *MMU) targetGlitch(t *Timer, period, time int) {
	if int(t.divider) != period&0xFF || t.nextTime != time+t.prescaler {
		return
	}
	if ((period-1)|^0x0F)&period == 0 {
		return
	}

	prob := glitchProbability(period, t.period)
	b := bit.LowestSet(period)
	if int(m.rng.Uint32()>>4&0xFF) <= prob {
		t.divider = uint8(int(t.divider) - b)
		m.diag.TimerGlitches++
		m.logger.Debug("timer target glitch", "period", period, "divider", t.divider)
	}
}
