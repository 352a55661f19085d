package cpu

import (
	"github.com/valerio/go-spc700/spc/addr"
	"github.com/valerio/go-spc700/spc/bit"
)

// Effective addresses are computed as int and wrapped into the 64 KiB space
// only when memory is accessed, so abs+X past 0xFFFF lands in low memory.

func wrap(address int) uint16 {
	return uint16(address & 0xFFFF)
}

// read is a data read at the current time plus offset (offset <= 0).
func (c *CPU) read(offset, address int) uint8 {
	return c.bus.Read(wrap(address), c.time+offset)
}

func (c *CPU) write(offset, address int, value uint8) {
	c.bus.Write(wrap(address), value, c.time+offset)
}

func (c *CPU) writeUnread(offset, address int, value uint8) {
	c.bus.WriteUnread(wrap(address), value, c.time+offset)
}

// read16 reads a little-endian pointer with no side effects.
func (c *CPU) read16(address int) int {
	lo := c.bus.Peek(wrap(address))
	hi := c.bus.Peek(wrap(address + 1))
	return int(bit.Combine(hi, lo))
}

func (c *CPU) fetch() uint8 {
	v := c.bus.Peek(c.pc)
	c.pc++
	return v
}

func (c *CPU) fetch16() int {
	lo := c.fetch()
	hi := c.fetch()
	return int(bit.Combine(hi, lo))
}

// directPage returns the base of the direct page selected by P.
func (c *CPU) directPage() int {
	if c.flags.P {
		return 0x100
	}
	return 0
}

// addressing resolves an operand address, fetching operand bytes as needed.
type addressing func(c *CPU) int

// dp
func addrDp(c *CPU) int {
	return c.directPage() + int(c.fetch())
}

// dp+X
func addrDpX(c *CPU) int {
	return c.directPage() + int(c.fetch()+c.x)
}

// dp+Y
func addrDpY(c *CPU) int {
	return c.directPage() + int(c.fetch()+c.y)
}

// (X)
func addrIndX(c *CPU) int {
	return c.directPage() + int(c.x)
}

// !abs
func addrAbs(c *CPU) int {
	return c.fetch16()
}

// !abs+X
func addrAbsX(c *CPU) int {
	return c.fetch16() + int(c.x)
}

// !abs+Y
func addrAbsY(c *CPU) int {
	return c.fetch16() + int(c.y)
}

// [dp+X]
func addrIndDpX(c *CPU) int {
	return c.read16(c.directPage() + int(c.fetch()+c.x))
}

// [dp]+Y
func addrIndDpY(c *CPU) int {
	return c.read16(c.directPage()+int(c.fetch())) + int(c.y)
}

// memBit decodes a mem.bit operand: 13-bit address, 3-bit bit index.
func (c *CPU) memBit() (address int, index uint8) {
	operand := c.fetch16()
	return operand & 0x1FFF, uint8(operand >> 13)
}

// stack

func (c *CPU) push(v uint8) {
	c.bus.Poke(addr.StackPage+uint16(c.sp), v)
	c.sp--
}

func (c *CPU) pop() uint8 {
	c.sp++
	return c.bus.Peek(addr.StackPage + uint16(c.sp))
}

func (c *CPU) push16(v uint16) {
	c.push(bit.High(v))
	c.push(bit.Low(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.pop()
	hi := c.pop()
	return bit.Combine(hi, lo)
}
