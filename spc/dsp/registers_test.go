package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisters_RunEmitsOnePairPerSample(t *testing.T) {
	d := NewRegisters()
	buf := &Buffer{}
	d.SetSink(buf)

	d.Run(31)
	assert.Equal(t, 0, buf.Len())

	d.Run(1)
	assert.Equal(t, 2, buf.Len())

	d.Run(ClocksPerSample * 10)
	assert.Equal(t, 22, buf.Len())
	assert.Equal(t, uint64(32*11), d.Clocks)
}

func TestRegisters_ReadWrite(t *testing.T) {
	d := NewRegisters()

	d.Write(0x00, 0x7F)
	assert.Equal(t, uint8(0x7F), d.Read(0x00))

	d.Write(ENDX, 0xFF)
	assert.Equal(t, uint8(0), d.Read(ENDX), "writing ENDX clears it")

	assert.Equal(t, uint8(0xE0), d.Read(FLG), "FLG comes up muted after reset")
}

func TestBuffer_Take(t *testing.T) {
	buf := &Buffer{}
	buf.Silence(4)
	buf.Put(1, 2)

	got := buf.Take(5)
	assert.Equal(t, []int16{0, 0, 0, 0, 1}, got)
	assert.Equal(t, 1, buf.Len())

	got = buf.Take(10)
	assert.Equal(t, []int16{2}, got)
	assert.Equal(t, 0, buf.Len())
}
