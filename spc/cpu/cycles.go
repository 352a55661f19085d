package cpu

// packedCycles holds the base cost of every opcode in 1.024 MHz clocks, two
// opcodes per byte with the even opcode in the high nibble. Conditional
// branches list their taken cost.
var packedCycles = [128]uint8{
	0x28, 0x47, 0x34, 0x36, 0x26, 0x54, 0x54, 0x68, // 0x
	0x48, 0x47, 0x45, 0x56, 0x55, 0x65, 0x22, 0x46, // 1x
	0x28, 0x47, 0x34, 0x36, 0x26, 0x54, 0x54, 0x74, // 2x
	0x48, 0x47, 0x45, 0x56, 0x55, 0x65, 0x22, 0x38, // 3x
	0x28, 0x47, 0x34, 0x36, 0x26, 0x44, 0x54, 0x66, // 4x
	0x48, 0x47, 0x45, 0x56, 0x55, 0x45, 0x22, 0x43, // 5x
	0x28, 0x47, 0x34, 0x36, 0x26, 0x44, 0x54, 0x75, // 6x
	0x48, 0x47, 0x45, 0x56, 0x55, 0x55, 0x22, 0x36, // 7x
	0x28, 0x47, 0x34, 0x36, 0x26, 0x54, 0x52, 0x45, // 8x
	0x48, 0x47, 0x45, 0x56, 0x55, 0x55, 0x22, 0xC5, // 9x
	0x38, 0x47, 0x34, 0x36, 0x26, 0x44, 0x52, 0x44, // Ax
	0x48, 0x47, 0x45, 0x56, 0x55, 0x55, 0x22, 0x34, // Bx
	0x38, 0x47, 0x45, 0x47, 0x25, 0x64, 0x52, 0x49, // Cx
	0x48, 0x47, 0x56, 0x67, 0x45, 0x55, 0x22, 0x83, // Dx
	0x28, 0x47, 0x34, 0x36, 0x24, 0x53, 0x43, 0x40, // Ex
	0x48, 0x47, 0x45, 0x56, 0x34, 0x54, 0x22, 0x60, // Fx
}

var cycleTable [256]uint8

func init() {
	for i, b := range packedCycles {
		cycleTable[i*2] = b >> 4
		cycleTable[i*2+1] = b & 0x0F
	}
}

// Cycles returns the base cost of an opcode.
func Cycles(opcode uint8) int {
	return int(cycleTable[opcode])
}

// MaxCycles is the cost of the longest instruction (DIV YA,X).
const MaxCycles = 12
