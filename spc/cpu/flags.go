package cpu

import (
	"strings"

	"github.com/valerio/go-spc700/spc/bit"
)

// Processor status word bits.
const (
	flagN uint8 = 0x80 // negative
	flagV uint8 = 0x40 // overflow
	flagP uint8 = 0x20 // direct page at 0x100
	flagB uint8 = 0x10 // break
	flagH uint8 = 0x08 // half carry
	flagI uint8 = 0x04 // interrupt enable
	flagZ uint8 = 0x02 // zero
	flagC uint8 = 0x01 // carry
)

// Flags is the unpacked processor status word.
type Flags struct {
	N, V, P, B, H, I, Z, C bool
}

// UnpackFlags decodes a packed status word.
func UnpackFlags(psw uint8) Flags {
	return Flags{
		N: psw&flagN != 0,
		V: psw&flagV != 0,
		P: psw&flagP != 0,
		B: psw&flagB != 0,
		H: psw&flagH != 0,
		I: psw&flagI != 0,
		Z: psw&flagZ != 0,
		C: psw&flagC != 0,
	}
}

// Pack encodes the flags as the status word pushed by PUSH PSW.
func (f Flags) Pack() uint8 {
	return bit.FromBool(f.N)*flagN |
		bit.FromBool(f.V)*flagV |
		bit.FromBool(f.P)*flagP |
		bit.FromBool(f.B)*flagB |
		bit.FromBool(f.H)*flagH |
		bit.FromBool(f.I)*flagI |
		bit.FromBool(f.Z)*flagZ |
		bit.FromBool(f.C)*flagC
}

// String renders the flags as "NVPBHIZC", with '-' for clear bits.
func (f Flags) String() string {
	var sb strings.Builder
	for i, set := range []bool{f.N, f.V, f.P, f.B, f.H, f.I, f.Z, f.C} {
		if set {
			sb.WriteByte("NVPBHIZC"[i])
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
