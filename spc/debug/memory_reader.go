package debug

import "github.com/valerio/go-spc700/spc/addr"

// MemoryReader provides read-only access to emulator memory for debug tools
// This interface decouples debug tools from the specific MMU implementation
type MemoryReader interface {
	// Peek reads a single byte without side effects.
	Peek(address uint16) uint8
}

// ExtractMemorySnapshot copies the bytes from before bytes ahead of pc to
// after bytes past it, clamped to the address space.
func ExtractMemorySnapshot(reader MemoryReader, pc uint16, before, after int) *MemorySnapshot {
	start := max(int(pc)-before, 0)
	end := min(int(pc)+after, addr.MemorySize)

	snapshot := &MemorySnapshot{
		StartAddr: uint16(start),
		Bytes:     make([]uint8, end-start),
	}
	for i := range snapshot.Bytes {
		snapshot.Bytes[i] = reader.Peek(uint16(start + i))
	}
	return snapshot
}
