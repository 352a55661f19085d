package dsp

// Buffer is a growable Sink holding interleaved left/right samples.
type Buffer struct {
	samples []int16
}

var _ Sink = (*Buffer)(nil)

func (b *Buffer) Put(left, right int16) {
	b.samples = append(b.samples, left, right)
}

// Len returns the number of individual samples (twice the number of pairs).
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Take removes and returns up to n samples from the front of the buffer.
func (b *Buffer) Take(n int) []int16 {
	if n > len(b.samples) {
		n = len(b.samples)
	}
	out := make([]int16, n)
	copy(out, b.samples[:n])
	b.samples = append(b.samples[:0], b.samples[n:]...)
	return out
}

// Silence appends n zero samples.
func (b *Buffer) Silence(n int) {
	for i := 0; i < n; i++ {
		b.samples = append(b.samples, 0)
	}
}

// Reset drops all buffered samples.
func (b *Buffer) Reset() {
	b.samples = b.samples[:0]
}
