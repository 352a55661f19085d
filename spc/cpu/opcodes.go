package cpu

import (
	"fmt"

	"github.com/valerio/go-spc700/spc/addr"
	"github.com/valerio/go-spc700/spc/bit"
)

type instruction struct {
	name string
	exec func(c *CPU)
}

var opcodes [256]instruction

// Name returns the mnemonic of an opcode.
func Name(opcode uint8) string {
	return opcodes[opcode].name
}

func def(opcode int, name string, exec func(c *CPU)) {
	if opcodes[opcode].exec != nil {
		panic(fmt.Sprintf("opcode 0x%02X defined twice", opcode))
	}
	opcodes[opcode] = instruction{name: name, exec: exec}
}

// accModes are the eight memory operand modes shared by the accumulator
// instructions, as offsets from the instruction's immediate opcode.
var accModes = []struct {
	offset int
	name   string
	mode   addressing
}{
	{-4, "dp", addrDp},
	{-3, "!abs", addrAbs},
	{-2, "(X)", addrIndX},
	{-1, "[dp+X]", addrIndDpX},
	{0x0C, "dp+X", addrDpX},
	{0x0D, "!abs+X", addrAbsX},
	{0x0E, "!abs+Y", addrAbsY},
	{0x0F, "[dp]+Y", addrIndDpY},
}

func init() {
	defineTransfers()
	defineALU()
	defineReadModifyWrite()
	defineWordOps()
	defineBranches()
	defineCalls()
	defineBitOps()
	defineFlagOps()

	for op, in := range opcodes {
		if in.exec == nil {
			panic(fmt.Sprintf("opcode 0x%02X not defined", op))
		}
	}
}

func defineTransfers() {
	// MOV A,mem
	def(0xE8, "MOV A,#imm", func(c *CPU) {
		c.a = c.fetch()
		c.setNZ(c.a)
	})
	for _, m := range accModes {
		def(0xE8+m.offset, "MOV A,"+m.name, func(c *CPU) {
			address := m.mode(c)
			c.a = c.read(0, address)
			c.setNZ(c.a)
		})
	}
	def(0xBF, "MOV A,(X)+", func(c *CPU) {
		address := addrIndX(c)
		c.x++
		c.a = c.read(-1, address)
		c.setNZ(c.a)
	})

	// MOV mem,A
	for _, m := range accModes {
		def(0xC8+m.offset, "MOV "+m.name+",A", func(c *CPU) {
			c.write(0, m.mode(c), c.a)
		})
	}
	def(0xAF, "MOV (X)+,A", func(c *CPU) {
		c.writeUnread(0, addrIndX(c), c.a)
		c.x++
	})

	// MOV X / MOV Y loads
	def(0xCD, "MOV X,#imm", func(c *CPU) { c.x = c.fetch(); c.setNZ(c.x) })
	def(0xF8, "MOV X,dp", func(c *CPU) { c.x = c.read(0, addrDp(c)); c.setNZ(c.x) })
	def(0xF9, "MOV X,dp+Y", func(c *CPU) { c.x = c.read(0, addrDpY(c)); c.setNZ(c.x) })
	def(0xE9, "MOV X,!abs", func(c *CPU) { c.x = c.read(0, addrAbs(c)); c.setNZ(c.x) })
	def(0x8D, "MOV Y,#imm", func(c *CPU) { c.y = c.fetch(); c.setNZ(c.y) })
	def(0xEB, "MOV Y,dp", func(c *CPU) { c.y = c.read(0, addrDp(c)); c.setNZ(c.y) })
	def(0xFB, "MOV Y,dp+X", func(c *CPU) { c.y = c.read(0, addrDpX(c)); c.setNZ(c.y) })
	def(0xEC, "MOV Y,!abs", func(c *CPU) { c.y = c.read(0, addrAbs(c)); c.setNZ(c.y) })

	// MOV X / MOV Y stores
	def(0xD8, "MOV dp,X", func(c *CPU) { c.write(0, addrDp(c), c.x) })
	def(0xD9, "MOV dp+Y,X", func(c *CPU) { c.write(0, addrDpY(c), c.x) })
	def(0xC9, "MOV !abs,X", func(c *CPU) { c.write(0, addrAbs(c), c.x) })
	def(0xCB, "MOV dp,Y", func(c *CPU) { c.write(0, addrDp(c), c.y) })
	def(0xDB, "MOV dp+X,Y", func(c *CPU) { c.write(0, addrDpX(c), c.y) })
	def(0xCC, "MOV !abs,Y", func(c *CPU) { c.write(0, addrAbs(c), c.y) })

	// memory to memory
	def(0xFA, "MOV dp,dp", func(c *CPU) {
		v := c.read(-2, addrDp(c))
		c.writeUnread(0, addrDp(c), v)
	})
	def(0x8F, "MOV dp,#imm", func(c *CPU) {
		v := c.fetch()
		c.write(0, addrDp(c), v)
	})

	// register to register
	def(0x7D, "MOV A,X", func(c *CPU) { c.a = c.x; c.setNZ(c.a) })
	def(0xDD, "MOV A,Y", func(c *CPU) { c.a = c.y; c.setNZ(c.a) })
	def(0x5D, "MOV X,A", func(c *CPU) { c.x = c.a; c.setNZ(c.x) })
	def(0xFD, "MOV Y,A", func(c *CPU) { c.y = c.a; c.setNZ(c.y) })
	def(0x9D, "MOV X,SP", func(c *CPU) { c.x = c.sp; c.setNZ(c.x) })
	def(0xBD, "MOV SP,X", func(c *CPU) { c.sp = c.x })

	// stack
	def(0x2D, "PUSH A", func(c *CPU) { c.push(c.a) })
	def(0x4D, "PUSH X", func(c *CPU) { c.push(c.x) })
	def(0x6D, "PUSH Y", func(c *CPU) { c.push(c.y) })
	def(0x0D, "PUSH PSW", func(c *CPU) { c.push(c.flags.Pack()) })
	def(0xAE, "POP A", func(c *CPU) { c.a = c.pop() })
	def(0xCE, "POP X", func(c *CPU) { c.x = c.pop() })
	def(0xEE, "POP Y", func(c *CPU) { c.y = c.pop() })
	def(0x8E, "POP PSW", func(c *CPU) { c.flags = UnpackFlags(c.pop()) })
}

// aluOps share the accumulator modes plus the three memory to memory forms.
var aluOps = []struct {
	immediate int
	name      string
	fn        func(c *CPU, dst, src uint8) uint8
	store     bool
}{
	{0x08, "OR", or, true},
	{0x28, "AND", and, true},
	{0x48, "EOR", eor, true},
	{0x68, "CMP", cmp, false},
	{0x88, "ADC", adc, true},
	{0xA8, "SBC", sbc, true},
}

func defineALU() {
	for _, op := range aluOps {
		def(op.immediate, op.name+" A,#imm", func(c *CPU) {
			src := c.fetch()
			r := op.fn(c, c.a, src)
			if op.store {
				c.a = r
			}
		})

		for _, m := range accModes {
			def(op.immediate+m.offset, op.name+" A,"+m.name, func(c *CPU) {
				src := c.read(0, m.mode(c))
				r := op.fn(c, c.a, src)
				if op.store {
					c.a = r
				}
			})
		}

		memToMem := func(c *CPU, dst int, src uint8) {
			r := op.fn(c, c.read(-1, dst), src)
			if op.store {
				c.write(0, dst, r)
			}
		}
		def(op.immediate+0x01, op.name+" dp,dp", func(c *CPU) {
			src := c.read(-3, addrDp(c))
			memToMem(c, addrDp(c), src)
		})
		def(op.immediate+0x10, op.name+" dp,#imm", func(c *CPU) {
			src := c.fetch()
			memToMem(c, addrDp(c), src)
		})
		def(op.immediate+0x11, op.name+" (X),(Y)", func(c *CPU) {
			src := c.read(-2, c.directPage()+int(c.y))
			memToMem(c, addrIndX(c), src)
		})
	}

	// index register compares
	def(0xC8, "CMP X,#imm", func(c *CPU) { cmp(c, c.x, c.fetch()) })
	def(0x3E, "CMP X,dp", func(c *CPU) { cmp(c, c.x, c.read(0, addrDp(c))) })
	def(0x1E, "CMP X,!abs", func(c *CPU) { cmp(c, c.x, c.read(0, addrAbs(c))) })
	def(0xAD, "CMP Y,#imm", func(c *CPU) { cmp(c, c.y, c.fetch()) })
	def(0x7E, "CMP Y,dp", func(c *CPU) { cmp(c, c.y, c.read(0, addrDp(c))) })
	def(0x5E, "CMP Y,!abs", func(c *CPU) { cmp(c, c.y, c.read(0, addrAbs(c))) })
}

// rmwOps are the read-modify-write instructions with A, dp, dp+X and !abs
// forms.
var rmwOps = []struct {
	name                   string
	fn                     func(c *CPU, v uint8) uint8
	acc, dp, dpX, absolute int
}{
	{"ASL", asl, 0x1C, 0x0B, 0x1B, 0x0C},
	{"ROL", rol, 0x3C, 0x2B, 0x3B, 0x2C},
	{"LSR", lsr, 0x5C, 0x4B, 0x5B, 0x4C},
	{"ROR", ror, 0x7C, 0x6B, 0x7B, 0x6C},
	{"INC", inc, 0xBC, 0xAB, 0xBB, 0xAC},
	{"DEC", dec, 0x9C, 0x8B, 0x9B, 0x8C},
}

func defineReadModifyWrite() {
	for _, op := range rmwOps {
		def(op.acc, op.name+" A", func(c *CPU) { c.a = op.fn(c, c.a) })

		modes := []struct {
			opcode int
			name   string
			mode   addressing
		}{
			{op.dp, "dp", addrDp},
			{op.dpX, "dp+X", addrDpX},
			{op.absolute, "!abs", addrAbs},
		}
		for _, m := range modes {
			def(m.opcode, op.name+" "+m.name, func(c *CPU) {
				address := m.mode(c)
				v := op.fn(c, c.read(-1, address))
				c.write(0, address, v)
			})
		}
	}

	def(0x3D, "INC X", func(c *CPU) { c.x = inc(c, c.x) })
	def(0xFC, "INC Y", func(c *CPU) { c.y = inc(c, c.y) })
	def(0x1D, "DEC X", func(c *CPU) { c.x = dec(c, c.x) })
	def(0xDC, "DEC Y", func(c *CPU) { c.y = dec(c, c.y) })

	def(0x9F, "XCN A", func(c *CPU) {
		hi, lo := bit.Nibbles(c.a)
		c.a = lo<<4 | hi
		c.setNZ(c.a)
	})
}

func defineWordOps() {
	// the high byte of a dp word wraps within the direct page
	highByte := func(c *CPU, d uint8) int {
		return c.directPage() + int(d+1)
	}

	def(0xBA, "MOVW YA,dp", func(c *CPU) {
		d := c.fetch()
		c.a = c.read(-2, c.directPage()+int(d))
		c.y = c.read(0, highByte(c, d))
		c.setNZ16(c.ya())
	})
	def(0xDA, "MOVW dp,YA", func(c *CPU) {
		d := c.fetch()
		c.write(-1, c.directPage()+int(d), c.a)
		c.writeUnread(0, highByte(c, d), c.y)
	})

	incw := func(delta int) func(c *CPU) {
		return func(c *CPU) {
			d := c.fetch()
			lo := int(c.read(-3, c.directPage()+int(d))) + delta
			c.write(-2, c.directPage()+int(d), uint8(lo))
			hi := uint8(lo>>8 + int(c.read(-1, highByte(c, d))))
			c.write(0, highByte(c, d), hi)
			c.setNZ16(bit.Combine(hi, uint8(lo)))
		}
	}
	def(0x3A, "INCW dp", incw(1))
	def(0x1A, "DECW dp", incw(-1))

	addw := func(subtract bool) func(c *CPU) {
		return func(c *CPU) {
			d := c.fetch()
			lo := int(c.read(-2, c.directPage()+int(d)))
			hi := int(c.read(0, highByte(c, d)))
			c.addw(lo, hi, subtract)
		}
	}
	def(0x7A, "ADDW YA,dp", addw(false))
	def(0x9A, "SUBW YA,dp", addw(true))

	def(0x5A, "CMPW YA,dp", func(c *CPU) {
		d := c.fetch()
		lo := int(c.a) - int(c.read(-1, c.directPage()+int(d)))
		hi := int(c.y) + lo>>8 - int(c.read(0, highByte(c, d)))
		c.flags.C = hi >= 0
		c.flags.N = hi&0x80 != 0
		c.flags.Z = uint8(lo) == 0 && uint8(hi) == 0
	})

	def(0xCF, "MUL YA", func(c *CPU) { c.mul() })
	def(0x9E, "DIV YA,X", func(c *CPU) { c.div() })
	def(0xDF, "DAA A", func(c *CPU) {
		c.suspiciousOpcode()
		c.daa()
	})
	def(0xBE, "DAS A", func(c *CPU) {
		c.suspiciousOpcode()
		c.das()
	})
}

func defineBranches() {
	def(0x2F, "BRA rel", func(c *CPU) { c.branch(true) })
	def(0xF0, "BEQ rel", func(c *CPU) { c.branch(c.flags.Z) })
	def(0xD0, "BNE rel", func(c *CPU) { c.branch(!c.flags.Z) })
	def(0x30, "BMI rel", func(c *CPU) { c.branch(c.flags.N) })
	def(0x10, "BPL rel", func(c *CPU) { c.branch(!c.flags.N) })
	def(0xB0, "BCS rel", func(c *CPU) { c.branch(c.flags.C) })
	def(0x90, "BCC rel", func(c *CPU) { c.branch(!c.flags.C) })
	def(0x70, "BVS rel", func(c *CPU) { c.branch(c.flags.V) })
	def(0x50, "BVC rel", func(c *CPU) { c.branch(!c.flags.V) })

	for n := range 8 {
		index := uint8(n)
		def(n<<5|0x03, fmt.Sprintf("BBS dp.%d,rel", n), func(c *CPU) {
			v := c.read(-4, addrDp(c))
			c.branch(bit.IsSet(index, v))
		})
		def(n<<5|0x13, fmt.Sprintf("BBC dp.%d,rel", n), func(c *CPU) {
			v := c.read(-4, addrDp(c))
			c.branch(!bit.IsSet(index, v))
		})
	}

	def(0x2E, "CBNE dp,rel", func(c *CPU) {
		v := c.read(-4, addrDp(c))
		c.branch(v != c.a)
	})
	def(0xDE, "CBNE dp+X,rel", func(c *CPU) {
		v := c.read(-4, addrDpX(c))
		c.branch(v != c.a)
	})
	def(0x6E, "DBNZ dp,rel", func(c *CPU) {
		address := addrDp(c)
		v := c.read(-4, address) - 1
		c.writeUnread(-3, address, v)
		c.branch(v != 0)
	})
	def(0xFE, "DBNZ Y,rel", func(c *CPU) {
		c.y--
		c.branch(c.y != 0)
	})

	def(0x5F, "JMP !abs", func(c *CPU) { c.pc = uint16(c.fetch16()) })
	def(0x1F, "JMP [!abs+X]", func(c *CPU) {
		c.pc = uint16(c.read16(c.fetch16() + int(c.x)))
	})
}

func defineCalls() {
	def(0x3F, "CALL !abs", func(c *CPU) {
		target := uint16(c.fetch16())
		c.push16(c.pc)
		c.pc = target
	})
	def(0x4F, "PCALL up", func(c *CPU) {
		target := addr.PCallPage | uint16(c.fetch())
		c.push16(c.pc)
		c.pc = target
	})
	for n := range 16 {
		vector := int(addr.BRKVector) - 2*n
		def(n<<4|0x01, fmt.Sprintf("TCALL %d", n), func(c *CPU) {
			c.push16(c.pc)
			c.pc = uint16(c.read16(vector))
		})
	}
	def(0x0F, "BRK", func(c *CPU) {
		c.suspiciousOpcode()
		psw := c.flags.Pack()
		c.push16(c.pc)
		c.push(psw)
		c.pc = uint16(c.read16(int(addr.BRKVector)))
		c.flags.B = true
		c.flags.I = false
	})
	def(0x6F, "RET", func(c *CPU) { c.pc = c.pop16() })
	// Both pops wrap within page 1, so a PSW at $01FF takes PC from
	// $0100-$0101.
	def(0x7F, "RETI", func(c *CPU) {
		c.flags = UnpackFlags(c.pop())
		c.pc = c.pop16()
	})
}

func defineBitOps() {
	for n := range 8 {
		index := uint8(n)
		def(n<<5|0x02, fmt.Sprintf("SET1 dp.%d", n), func(c *CPU) {
			address := addrDp(c)
			c.write(0, address, bit.Set(index, c.read(-1, address)))
		})
		def(n<<5|0x12, fmt.Sprintf("CLR1 dp.%d", n), func(c *CPU) {
			address := addrDp(c)
			c.write(0, address, bit.Clear(index, c.read(-1, address)))
		})
	}

	testAndModify := func(set bool) func(c *CPU) {
		return func(c *CPU) {
			address := addrAbs(c)
			v := c.read(-2, address)
			c.setNZ(c.a - v)
			v &^= c.a
			if set {
				v |= c.a
			}
			c.write(0, address, v)
		}
	}
	def(0x0E, "TSET1 !abs", testAndModify(true))
	def(0x4E, "TCLR1 !abs", testAndModify(false))

	// bit reads: mem.bit operand, read at offset
	readBit := func(c *CPU, offset int) bool {
		address, index := c.memBit()
		return bit.IsSet(index, c.read(offset, address))
	}
	def(0x4A, "AND1 C,mem.bit", func(c *CPU) { c.flags.C = readBit(c, 0) && c.flags.C })
	def(0x6A, "AND1 C,/mem.bit", func(c *CPU) { c.flags.C = !readBit(c, 0) && c.flags.C })
	def(0x0A, "OR1 C,mem.bit", func(c *CPU) { c.flags.C = readBit(c, -1) || c.flags.C })
	def(0x2A, "OR1 C,/mem.bit", func(c *CPU) { c.flags.C = !readBit(c, -1) || c.flags.C })
	def(0x8A, "EOR1 C,mem.bit", func(c *CPU) { c.flags.C = readBit(c, -1) != c.flags.C })
	def(0xAA, "MOV1 C,mem.bit", func(c *CPU) { c.flags.C = readBit(c, 0) })

	def(0xEA, "NOT1 mem.bit", func(c *CPU) {
		address, index := c.memBit()
		v := c.read(-1, address)
		c.write(0, address, v^(1<<index))
	})
	def(0xCA, "MOV1 mem.bit,C", func(c *CPU) {
		address, index := c.memBit()
		v := c.read(-2, address)
		c.writeUnread(0, address, bit.SetTo(index, v, c.flags.C))
	})
}

func defineFlagOps() {
	def(0x60, "CLRC", func(c *CPU) { c.flags.C = false })
	def(0x80, "SETC", func(c *CPU) { c.flags.C = true })
	def(0xED, "NOTC", func(c *CPU) { c.flags.C = !c.flags.C })
	def(0xE0, "CLRV", func(c *CPU) {
		c.flags.V = false
		c.flags.H = false
	})
	def(0x20, "CLRP", func(c *CPU) { c.flags.P = false })
	def(0x40, "SETP", func(c *CPU) { c.flags.P = true })
	def(0xA0, "EI", func(c *CPU) {
		c.suspiciousOpcode()
		c.flags.I = true
	})
	def(0xC0, "DI", func(c *CPU) {
		c.suspiciousOpcode()
		c.flags.I = false
	})

	def(0x00, "NOP", func(c *CPU) {})
	def(0xEF, "SLEEP", func(c *CPU) { c.halt() })
	def(0xFF, "STOP", func(c *CPU) { c.halt() })
}
