package memory

import (
	"github.com/valerio/go-spc700/spc/addr"
	"github.com/valerio/go-spc700/spc/bit"
)

// DefaultROM returns a boot ROM that is all zeroes except for the reset
// vector, which points at the start of the ROM. A real boot payload can be
// installed with InitROM.
func DefaultROM() [addr.ROMSize]byte {
	var rom [addr.ROMSize]byte
	rom[addr.ResetVector-addr.ROMAddr] = bit.Low(addr.ROMAddr)
	rom[addr.ResetVector-addr.ROMAddr+1] = bit.High(addr.ROMAddr)
	return rom
}
