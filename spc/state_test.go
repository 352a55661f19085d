package spc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-spc700/spc/cpu"
	"github.com/valerio/go-spc700/spc/memory"
)

func TestEmulator_stateRoundTrip(t *testing.T) {
	e, _ := newTestEmulator(t, memory.AccuracyHigh,
		0x8F, 0x10, 0xFB, // MOV $FB,#$10
		0x8F, 0x02, 0xF1, // MOV $F1,#$02
		0xE8, 0x99, //       MOV A,#$99
		0x2F, 0xFE, //       BRA *
	)
	_, err := e.RunFrame(5000)
	require.NoError(t, err)
	want := e.State()

	other := New(DefaultConfig())
	require.NoError(t, other.LoadState(&want))

	got := other.State()
	assert.Equal(t, want, got)
	assert.Equal(t, uint8(0x99), got.CPU.A)
	assert.True(t, got.Timers[1].Enabled)
	assert.Equal(t, 0x10, got.Timers[1].Period)
	assert.Equal(t, 0, other.Time())
}

func TestEmulator_loadStateRejectsInvalid(t *testing.T) {
	testCases := []struct {
		desc   string
		mutate func(s *State)
	}{
		{desc: "zero period", mutate: func(s *State) { s.Timers[0].Period = 0 }},
		{desc: "period too long", mutate: func(s *State) { s.Timers[2].Period = 257 }},
		{desc: "counter wider than 4 bits", mutate: func(s *State) { s.Timers[1].Counter = 0x10 }},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			e, _ := newTestEmulator(t, memory.AccuracyHigh, 0xBC, 0x2F, 0xFD)
			_, err := e.RunFrame(100)
			require.NoError(t, err)
			before := e.State()

			bad := before
			bad.RAM[0x1234] = 0x56
			bad.CPU = cpu.Registers{PC: 0x1234}
			tC.mutate(&bad)

			err = e.LoadState(&bad)

			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Equal(t, before, e.State())
		})
	}
}
