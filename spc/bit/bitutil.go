package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// IsSet will check if the bit at the specified index is set to 1 or not.
func IsSet(index, value uint8) bool {
	return ((value >> index) & 1) == 1
}

// Clear will return the passed byte with the bit at the specified index set to 0.
func Clear(index, value uint8) uint8 {
	return value & ^(1 << index)
}

// Set will return the passed byte with the bit at the specified index set to 1.
func Set(index, value uint8) uint8 {
	return value | (1 << index)
}

// SetTo sets or clears the bit at index depending on cond.
func SetTo(index, value uint8, cond bool) uint8 {
	if cond {
		return Set(index, value)
	}
	return Clear(index, value)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// LowestSet returns a mask holding only the lowest set bit of value, or 0.
func LowestSet(value int) int {
	return value & -value
}

// FromBool returns 1 for true and 0 for false.
func FromBool(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Nibbles splits a byte into its high and low 4 bit halves.
func Nibbles(value uint8) (high, low uint8) {
	return value >> 4, value & 0x0F
}
