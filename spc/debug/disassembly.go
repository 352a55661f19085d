package debug

import (
	"github.com/valerio/go-spc700/spc/disasm"
)

type DisasmLine struct {
	Address     uint16
	Instruction string
	IsCurrent   bool
}

// DisasmBuffer holds pre-allocated buffers for disassembly lines
type DisasmBuffer struct {
	Lines    []DisasmLine
	AllLines []DisasmLine
}

func NewDisasmBuffer(maxLines int) *DisasmBuffer {
	return &DisasmBuffer{
		Lines:    make([]DisasmLine, 0, maxLines),
		AllLines: make([]DisasmLine, 0, maxLines*3),
	}
}

func CreateDisassembly(snapshot *MemorySnapshot, pc uint16, maxLines int) []DisasmLine {
	buf := NewDisasmBuffer(maxLines)
	return CreateDisassemblyWithBuffer(snapshot, pc, maxLines, buf)
}

// backwardBytes is how far before PC decoding starts when looking for context.
const backwardBytes = 24

// CreateDisassemblyWithBuffer returns at most maxLines lines centred on pc.
// Context before pc is found by decoding forward from a few bytes earlier
// and keeping the first start offset whose instruction stream lands on pc.
func CreateDisassemblyWithBuffer(snapshot *MemorySnapshot, pc uint16, maxLines int, buf *DisasmBuffer) []DisasmLine {
	if snapshot == nil || maxLines <= 0 {
		return nil
	}
	buf.Lines = buf.Lines[:0]

	pcOffset := int(pc) - int(snapshot.StartAddr)
	if pcOffset < 0 || pcOffset >= len(snapshot.Bytes) {
		for i := 0; i < len(snapshot.Bytes) && len(buf.Lines) < maxLines-1; {
			instruction, length := disasm.DisassembleBytes(snapshot.Bytes, i, snapshot.StartAddr)
			buf.Lines = append(buf.Lines, DisasmLine{
				Address:     snapshot.StartAddr + uint16(i),
				Instruction: instruction,
			})
			i += length
		}
		buf.Lines = append(buf.Lines, DisasmLine{
			Address:     pc,
			Instruction: "[PC outside snapshot range]",
			IsCurrent:   true,
		})
		return buf.Lines
	}

	start := alignedStart(snapshot.Bytes, pcOffset, snapshot.StartAddr)

	buf.AllLines = buf.AllLines[:0]
	pcIndex := -1
	for i := start; i < len(snapshot.Bytes); {
		address := snapshot.StartAddr + uint16(i)
		instruction, length := disasm.DisassembleBytes(snapshot.Bytes, i, snapshot.StartAddr)
		if address == pc {
			pcIndex = len(buf.AllLines)
		}
		buf.AllLines = append(buf.AllLines, DisasmLine{
			Address:     address,
			Instruction: instruction,
			IsCurrent:   address == pc,
		})
		i += length
		if pcIndex >= 0 && len(buf.AllLines)-pcIndex > maxLines {
			break
		}
	}

	half := maxLines / 2
	startIdx := max(pcIndex-half, 0)
	endIdx := min(startIdx+maxLines, len(buf.AllLines))
	startIdx = max(endIdx-maxLines, 0)

	buf.Lines = append(buf.Lines, buf.AllLines[startIdx:endIdx]...)
	return buf.Lines
}

// alignedStart finds the earliest offset within backwardBytes of pcOffset
// from which decoding reaches pcOffset exactly.
func alignedStart(data []byte, pcOffset int, base uint16) int {
	for start := max(pcOffset-backwardBytes, 0); start < pcOffset; start++ {
		i := start
		for i < pcOffset {
			_, length := disasm.DisassembleBytes(data, i, base)
			i += length
		}
		if i == pcOffset {
			return start
		}
	}
	return pcOffset
}
