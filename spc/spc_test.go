package spc

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-spc700/spc/cpu"
	"github.com/valerio/go-spc700/spc/dsp"
	"github.com/valerio/go-spc700/spc/memory"
)

const origin = 0x0200

func newTestEmulator(t *testing.T, accuracy memory.Accuracy, program ...byte) (*Emulator, *dsp.Registers) {
	t.Helper()
	d := dsp.NewRegisters()
	cfg := DefaultConfig()
	cfg.Accuracy = accuracy
	cfg.DSP = d
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(cfg)
	require.NoError(t, e.LoadProgram(origin, program))
	return e, d
}

func TestEmulator_reset(t *testing.T) {
	e := New(DefaultConfig())

	r := e.Registers()
	assert.Equal(t, uint16(0xFFC0), r.PC)
	assert.Equal(t, cpu.Running, e.CPUState())
	assert.Equal(t, 0, e.Time())

	// boot ROM mapped, shadow RAM filled with 0xFF
	assert.Equal(t, byte(0xC0), e.Peek(0xFFFE))
	e.EnableROM(false)
	assert.Equal(t, byte(0xFF), e.Peek(0xFFFE))

	for i := range 3 {
		assert.Equal(t, uint8(0x0F), e.Memory().Timer(i).Counter())
	}
}

func TestEmulator_periodOneTimer(t *testing.T) {
	e, _ := newTestEmulator(t, memory.AccuracyHigh,
		0x8F, 0x01, 0xFA, // MOV $FA,#$01   timer 0 period 1
		0x8F, 0x01, 0xF1, // MOV $F1,#$01   enable timer 0
		0x2F, 0xFE, //       BRA *
	)

	_, err := e.RunFrame(10)
	require.NoError(t, err)
	timer := e.Memory().Timer(0)
	require.True(t, timer.Enabled())
	require.Zero(t, timer.Counter())

	_, err = e.RunFrame(timer.Prescaler())
	require.NoError(t, err)

	assert.Equal(t, uint8(1), e.Memory().Timer(0).Counter())
}

func TestEmulator_timerReadByProgram(t *testing.T) {
	e, _ := newTestEmulator(t, memory.AccuracyNormal,
		0x8F, 0x01, 0xFA, // MOV $FA,#$01
		0x8F, 0x01, 0xF1, // MOV $F1,#$01
		0x8D, 0x20, //       MOV Y,#$20
		0xFE, 0xFE, //       DBNZ Y,*
		0xE4, 0xFD, //       MOV A,$FD
		0xC4, 0xF4, //       MOV $F4,A
		0xE4, 0xFD, //       MOV A,$FD
		0xC4, 0xF5, //       MOV $F5,A
		0xFF, //             STOP
	)

	_, err := e.RunFrame(1000)
	require.ErrorIs(t, err, ErrHalted)

	// the first read lands between the first and second tick, the second
	// read right after it finds the counter cleared
	assert.Equal(t, byte(1), e.ReadPort(0, 0))
	assert.Equal(t, byte(0), e.ReadPort(0, 1))
}

func TestEmulator_frameInvariant(t *testing.T) {
	// loop: DIV YA,X ; NOP ; MUL YA ; BRA loop
	e, _ := newTestEmulator(t, memory.AccuracyHigh, 0x9E, 0x00, 0xCF, 0x2F, 0xFB)

	executed := 0
	e.SetTraceHook(func(pc uint16, opcode uint8) {
		executed += cpu.Cycles(opcode)
	})

	requested := 0
	for _, end := range []int{0, 1, 7, 11, 12, 13, 100, 1000, 3, 23, 4096} {
		result, err := e.RunFrame(end)
		require.NoError(t, err)
		requested += end

		assert.GreaterOrEqual(t, result.Time, -MaxLag)
		assert.LessOrEqual(t, result.Time, 0)
		assert.Equal(t, requested+result.Time, executed)
	}
}

func TestEmulator_step(t *testing.T) {
	// BEQ +2 (not taken) ; NOP ; NOP ; STOP
	e, _ := newTestEmulator(t, memory.AccuracyHigh, 0xF0, 0x02, 0x00, 0x00, 0xFF)

	result, err := e.Step()
	require.NoError(t, err)
	assert.Equal(t, -2, result.Time)
	assert.Equal(t, uint16(origin+2), e.Registers().PC)

	// the two refunded clocks would fit a NOP, but only one instruction runs
	_, err = e.Step()
	require.NoError(t, err)
	assert.Equal(t, uint16(origin+3), e.Registers().PC)
	assert.Equal(t, 0, e.Time())

	_, err = e.Step()
	require.NoError(t, err)
	result, err = e.Step()
	assert.ErrorIs(t, err, ErrHalted)
	assert.True(t, result.Halted)

	result, err = e.Step()
	assert.ErrorIs(t, err, ErrHalted)
	assert.Equal(t, uint16(origin+4), e.Registers().PC)
}

func TestEmulator_runFrameRejectsNegativeTime(t *testing.T) {
	e, _ := newTestEmulator(t, memory.AccuracyHigh, 0x2F, 0xFE)

	_, err := e.RunFrame(-1)

	assert.ErrorIs(t, err, ErrNegativeTime)
	assert.Equal(t, 0, e.Time())
}

func TestEmulator_portAccessPastFrameEnd(t *testing.T) {
	e, _ := newTestEmulator(t, memory.AccuracyHigh, 0x2F, 0xFE)

	e.ReadPort(5000, 0)
	require.Equal(t, 5000, e.Time())

	_, err := e.RunFrame(100)
	assert.ErrorIs(t, err, ErrFrameOverrun)
	assert.Equal(t, 5000, e.Time())

	result, err := e.RunFrame(5000)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Time, 0)
	assert.GreaterOrEqual(t, result.Time, -MaxLag)

	_, err = e.Play(64)
	assert.NoError(t, err)
}

func TestEmulator_play(t *testing.T) {
	testCases := []struct {
		desc     string
		accuracy memory.Accuracy
	}{
		{desc: "fast", accuracy: memory.AccuracyFast},
		{desc: "normal", accuracy: memory.AccuracyNormal},
		{desc: "high", accuracy: memory.AccuracyHigh},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			e, _ := newTestEmulator(t, tC.accuracy, 0x2F, 0xFE)

			for _, count := range []int{0, 2, 64, 30, 1024, 6} {
				samples, err := e.Play(count)
				require.NoError(t, err)
				assert.Len(t, samples, count)
			}
		})
	}
}

func TestEmulator_playKeepsDSPInStep(t *testing.T) {
	e, d := newTestEmulator(t, memory.AccuracyNormal, 0x2F, 0xFE)

	total := 0
	for _, count := range []int{64, 2, 510, 100} {
		_, err := e.Play(count)
		require.NoError(t, err)
		total += count * ClocksPerFrameSample
	}

	assert.Equal(t, uint64(total), d.Clocks)
}

func TestEmulator_playRejectsOddCounts(t *testing.T) {
	e, _ := newTestEmulator(t, memory.AccuracyHigh, 0x2F, 0xFE)

	for _, count := range []int{1, 3, -2} {
		_, err := e.Play(count)
		assert.ErrorIs(t, err, ErrOddSampleCount)
	}
	assert.NoError(t, e.Skip(32))
}

func TestEmulator_halt(t *testing.T) {
	e, _ := newTestEmulator(t, memory.AccuracyHigh, 0x00, 0xFF)

	result, err := e.RunFrame(100)
	assert.ErrorIs(t, err, ErrHalted)
	assert.True(t, result.Halted)
	assert.Equal(t, 0, result.Time)
	assert.Equal(t, uint16(origin+1), e.Registers().PC)

	_, err = e.RunFrame(100)
	assert.ErrorIs(t, err, ErrHalted)

	e.Reset()
	assert.Equal(t, cpu.Running, e.CPUState())
}

func TestEmulator_ports(t *testing.T) {
	// loop: MOV A,$F4 ; INC A ; MOV $F4,A ; BRA loop
	e, _ := newTestEmulator(t, memory.AccuracyHigh, 0xE4, 0xF4, 0xBC, 0xC4, 0xF4, 0x2F, 0xF9)

	e.WritePort(0, 0, 0x41)
	assert.Equal(t, byte(0x42), e.ReadPort(200, 0))

	e.WritePort(300, 0, 0x10)
	assert.Equal(t, byte(0x11), e.ReadPort(400, 0))
	assert.GreaterOrEqual(t, e.Time(), 400-MaxLag)

	// port numbers wrap
	assert.Equal(t, byte(0x11), e.ReadPort(400, 4))
}

func TestEmulator_tempo(t *testing.T) {
	e := New(DefaultConfig())

	e.SetTempo(2 * memory.TempoUnit)

	assert.Equal(t, 64, e.Memory().Timer(0).Prescaler())
	assert.Equal(t, 8, e.Memory().Timer(2).Prescaler())
}

func TestEmulator_initROM(t *testing.T) {
	e := New(DefaultConfig())
	var rom [64]byte
	rom[0] = 0xCD

	e.InitROM(rom)

	assert.Equal(t, byte(0xCD), e.Peek(0xFFC0))
}

func TestEmulator_loadProgramBounds(t *testing.T) {
	e := New(DefaultConfig())

	err := e.LoadProgram(0xFFFF, []byte{0x00, 0x00})

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestEmulator_independentInstances(t *testing.T) {
	a, _ := newTestEmulator(t, memory.AccuracyHigh, 0xBC, 0x2F, 0xFD)
	b, _ := newTestEmulator(t, memory.AccuracyHigh, 0xBC, 0x2F, 0xFD)

	_, err := a.RunFrame(600)
	require.NoError(t, err)

	assert.NotZero(t, a.Registers().A)
	assert.Zero(t, b.Registers().A)
}

func TestEmulator_ClearEcho(t *testing.T) {
	testCases := []struct {
		desc      string
		flg       uint8
		esa       uint8
		edl       uint8
		wantStart int
		wantBytes int
	}{
		{desc: "echo writes disabled", flg: dsp.FlagEchoDisable, esa: 0x40, edl: 1},
		{desc: "one block", esa: 0x40, edl: 1, wantStart: 0x4000, wantBytes: 0x800},
		{desc: "zero delay still owns four bytes", esa: 0x40, edl: 0, wantStart: 0x4000, wantBytes: 4},
		{desc: "only the low nibble of EDL counts", esa: 0x10, edl: 0xF2, wantStart: 0x1000, wantBytes: 0x1000},
		{desc: "clamped at the end of RAM", esa: 0xF8, edl: 2, wantStart: 0xF800, wantBytes: 0x800},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			e, _ := newTestEmulator(t, memory.AccuracyHigh, 0x2F, 0xFE)
			e.EnableROM(false)
			for a := 0x0300; a < 0x10000; a += 0x100 {
				e.Memory().Poke(uint16(a), 0x00)
			}
			e.WriteDSPRegister(dsp.FLG, tC.flg)
			e.WriteDSPRegister(dsp.ESA, tC.esa)
			e.WriteDSPRegister(dsp.EDL, tC.edl)

			n := e.ClearEcho()

			assert.Equal(t, tC.wantBytes, n)
			if tC.wantBytes == 0 {
				assert.Equal(t, byte(0x00), e.Peek(0x4000))
				return
			}
			assert.Equal(t, byte(0xFF), e.Peek(uint16(tC.wantStart)))
			assert.Equal(t, byte(0xFF), e.Peek(uint16(tC.wantStart+tC.wantBytes-1)))
			assert.Equal(t, byte(0x00), e.Peek(uint16(tC.wantStart-0x100)))
			if end := tC.wantStart + tC.wantBytes; end < 0x10000 && tC.wantBytes >= 0x100 {
				assert.Equal(t, byte(0x00), e.Peek(uint16(end)))
			}
		})
	}
}
