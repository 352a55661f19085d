package cpu

import "github.com/valerio/go-spc700/spc/bit"

func (c *CPU) setNZ(v uint8) {
	c.flags.N = v&0x80 != 0
	c.flags.Z = v == 0
}

// setNZ16 sets N from bit 15 and Z from the whole word.
func (c *CPU) setNZ16(v uint16) {
	c.flags.N = v&0x8000 != 0
	c.flags.Z = v == 0
}

// alu ops take the destination and source operands and return the result to
// store in the destination.

func or(c *CPU, dst, src uint8) uint8 {
	r := dst | src
	c.setNZ(r)
	return r
}

func and(c *CPU, dst, src uint8) uint8 {
	r := dst & src
	c.setNZ(r)
	return r
}

func eor(c *CPU, dst, src uint8) uint8 {
	r := dst ^ src
	c.setNZ(r)
	return r
}

func adc(c *CPU, dst, src uint8) uint8 {
	carry := 0
	if c.flags.C {
		carry = 1
	}
	result := int(dst) + int(src) + carry
	flags := int(dst) ^ int(src) ^ result
	c.flags.H = flags&0x10 != 0
	c.flags.V = (flags+0x80)&0x100 != 0
	c.flags.C = result&0x100 != 0
	r := uint8(result)
	c.setNZ(r)
	return r
}

func sbc(c *CPU, dst, src uint8) uint8 {
	return adc(c, dst, ^src)
}

// cmp sets flags from dst - src and leaves dst unchanged.
func cmp(c *CPU, dst, src uint8) uint8 {
	result := int(dst) - int(src)
	c.flags.C = result >= 0
	c.setNZ(uint8(result))
	return dst
}

// shift ops

func asl(c *CPU, v uint8) uint8 {
	c.flags.C = v&0x80 != 0
	r := v << 1
	c.setNZ(r)
	return r
}

func rol(c *CPU, v uint8) uint8 {
	var carry uint8
	if c.flags.C {
		carry = 1
	}
	c.flags.C = v&0x80 != 0
	r := v<<1 | carry
	c.setNZ(r)
	return r
}

func lsr(c *CPU, v uint8) uint8 {
	c.flags.C = v&0x01 != 0
	r := v >> 1
	c.setNZ(r)
	return r
}

func ror(c *CPU, v uint8) uint8 {
	var carry uint8
	if c.flags.C {
		carry = 0x80
	}
	c.flags.C = v&0x01 != 0
	r := carry | v>>1
	c.setNZ(r)
	return r
}

func inc(c *CPU, v uint8) uint8 {
	v++
	c.setNZ(v)
	return v
}

func dec(c *CPU, v uint8) uint8 {
	v--
	c.setNZ(v)
	return v
}

func (c *CPU) ya() uint16 {
	return bit.Combine(c.y, c.a)
}

// addw adds (or subtracts) the word at dp to YA. H and V come from the high
// byte addition.
func (c *CPU) addw(lo, hi int, subtract bool) {
	if subtract {
		lo = (lo ^ 0xFF) + 1
		hi ^= 0xFF
	}
	lo += int(c.a)
	result := int(c.y) + hi + lo>>8
	flags := hi ^ int(c.y) ^ result
	c.flags.H = flags&0x10 != 0
	c.flags.V = (flags+0x80)&0x100 != 0
	c.flags.C = result&0x100 != 0
	c.a = uint8(lo)
	c.y = uint8(result)
	c.setNZ16(c.ya())
}

// mul sets YA = Y * A. Z reflects the whole product, N its high byte.
func (c *CPU) mul() {
	product := uint16(c.y) * uint16(c.a)
	c.a = uint8(product)
	c.y = uint8(product >> 8)
	c.setNZ16(product)
}

// div divides YA by X into A (quotient) and Y (remainder), reproducing the
// hardware's results when the quotient overflows 9 bits.
func (c *CPU) div() {
	ya := int(c.ya())
	x := int(c.x)
	y := int(c.y)

	c.flags.V = y >= x
	c.flags.H = y&0x0F >= x&0x0F

	var quotient, remainder int
	if y < x*2 {
		quotient = ya / x
		remainder = ya - quotient*x
	} else {
		quotient = 255 - (ya-x*0x200)/(256-x)
		remainder = x + (ya-x*0x200)%(256-x)
	}

	c.a = uint8(quotient)
	c.y = uint8(remainder)
	c.setNZ(c.a)
}

func (c *CPU) daa() {
	a := int(c.a)
	if a > 0x99 || c.flags.C {
		a += 0x60
		c.flags.C = true
	}
	if a&0x0F > 9 || c.flags.H {
		a += 0x06
	}
	c.a = uint8(a)
	c.setNZ(c.a)
}

func (c *CPU) das() {
	a := int(c.a)
	if a > 0x99 || !c.flags.C {
		a -= 0x60
		c.flags.C = false
	}
	if a&0x0F > 9 || !c.flags.H {
		a -= 0x06
	}
	c.a = uint8(a)
	c.setNZ(c.a)
}

// branch reads the relative offset and takes it if cond holds. A branch not
// taken costs 2 clocks less than the table entry.
func (c *CPU) branch(cond bool) {
	rel := int8(c.fetch())
	if !cond {
		c.time -= 2
		return
	}
	c.pc = uint16(int(c.pc) + int(rel))
}
