package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/go-spc700/spc/bit"
	"github.com/valerio/go-spc700/spc/cpu"
)

// Reader is side-effect free access to SPC memory.
type Reader interface {
	Peek(address uint16) byte
}

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Instruction string
	Length      int
}

// operand kinds and the bytes they consume
type operand int

const (
	opNone operand = iota
	opImm
	opDirect // dp, dp+X, dp.n and friends
	opUpper  // PCALL page offset
	opRel
	opAbs
	opMemBit
)

func (o operand) size() int {
	switch o {
	case opImm, opDirect, opUpper, opRel:
		return 1
	case opAbs, opMemBit:
		return 2
	}
	return 0
}

type template struct {
	mnemonic string
	operands []string
	kinds    []operand
	// operand bytes appear in reverse order for two-operand memory forms
	reversed bool
	length   int
}

// InstructionLengths holds the size in bytes of every opcode.
var InstructionLengths [256]int

var templates [256]template

func init() {
	for op := range 256 {
		t := parseTemplate(cpu.Name(uint8(op)))
		templates[op] = t
		InstructionLengths[op] = t.length
	}
}

func classify(token string) operand {
	switch {
	case strings.Contains(token, "#imm"):
		return opImm
	case token == "rel":
		return opRel
	case token == "up":
		return opUpper
	case strings.Contains(token, "mem.bit"):
		return opMemBit
	case strings.Contains(token, "!abs"):
		return opAbs
	case strings.Contains(token, "dp"):
		return opDirect
	}
	return opNone
}

func parseTemplate(name string) template {
	mnemonic, args, _ := strings.Cut(name, " ")
	t := template{mnemonic: mnemonic, length: 1}
	if args == "" {
		return t
	}

	consuming := 0
	for _, token := range strings.Split(args, ",") {
		kind := classify(token)
		t.operands = append(t.operands, token)
		t.kinds = append(t.kinds, kind)
		t.length += kind.size()
		if kind != opNone {
			consuming++
		}
	}
	t.reversed = consuming == 2 && t.kinds[len(t.kinds)-1] != opRel
	return t
}

// DisassembleAt disassembles the instruction at the given program counter
func DisassembleAt(pc uint16, mem Reader) DisassemblyLine {
	opcode := mem.Peek(pc)
	t := templates[opcode]

	// collect operand bytes in memory order
	values := make([]int, len(t.kinds))
	order := make([]int, 0, len(t.kinds))
	for i := range t.kinds {
		order = append(order, i)
	}
	if t.reversed {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	next := pc + 1
	for _, i := range order {
		switch t.kinds[i].size() {
		case 1:
			values[i] = int(mem.Peek(next))
			next++
		case 2:
			values[i] = int(bit.Combine(mem.Peek(next+1), mem.Peek(next)))
			next += 2
		}
	}

	var sb strings.Builder
	sb.WriteString(t.mnemonic)
	for i, token := range t.operands {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteByte(',')
		}
		sb.WriteString(format(token, t.kinds[i], values[i], pc+uint16(t.length)))
	}

	return DisassemblyLine{
		Address:     pc,
		Instruction: sb.String(),
		Length:      t.length,
	}
}

func format(token string, kind operand, value int, nextPC uint16) string {
	switch kind {
	case opImm:
		return fmt.Sprintf("#$%02X", value)
	case opDirect:
		return strings.Replace(token, "dp", fmt.Sprintf("$%02X", value), 1)
	case opUpper:
		return fmt.Sprintf("$%02X", value)
	case opRel:
		return fmt.Sprintf("$%04X", nextPC+uint16(int8(value)))
	case opAbs:
		return strings.Replace(token, "!abs", fmt.Sprintf("!$%04X", value), 1)
	case opMemBit:
		prefix := ""
		if strings.HasPrefix(token, "/") {
			prefix = "/"
		}
		return fmt.Sprintf("%s$%04X.%d", prefix, value&0x1FFF, value>>13)
	}
	return token
}

// DisassembleRange disassembles multiple instructions starting from the given PC
func DisassembleRange(startPC uint16, count int, mem Reader) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := startPC

	for range count {
		line := DisassembleAt(pc, mem)
		lines = append(lines, line)
		pc += uint16(line.Length)
	}

	return lines
}

// DisassembleBytes disassembles the instruction at offset in data, which is
// mapped at base. Operand bytes past the end of data read as zero.
func DisassembleBytes(data []byte, offset int, base uint16) (string, int) {
	line := DisassembleAt(base+uint16(offset), sliceReader{data: data, base: base})
	return line.Instruction, line.Length
}

type sliceReader struct {
	data []byte
	base uint16
}

func (r sliceReader) Peek(address uint16) byte {
	i := int(address - r.base)
	if i >= len(r.data) {
		return 0
	}
	return r.data[i]
}

// FormatDisassemblyLine formats a disassembly line for display
func FormatDisassemblyLine(line DisassemblyLine, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = ">"
	}

	return fmt.Sprintf("%s0x%04X: %s", prefix, line.Address, line.Instruction)
}
