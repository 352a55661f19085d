package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepTimer is the one-tick-at-a-time reference model.
type stepTimer struct {
	period  int
	divider uint8
	counter uint8
}

func (s *stepTimer) tick() {
	s.divider++
	if s.divider == uint8(s.period) {
		s.divider = 0
		s.counter = (s.counter + 1) & 0x0F
	}
}

func TestTimer_CatchUpMatchesStepping(t *testing.T) {
	const maxTicks = 100000
	const prescaler = 16

	testCases := []struct {
		desc    string
		period  int
		divider uint8
		counter uint8
	}{
		{desc: "period 1", period: 1},
		{desc: "period 2", period: 2, counter: 7},
		{desc: "period 3", period: 3, divider: 1},
		{desc: "period 100", period: 100, divider: 42, counter: 15},
		{desc: "period 255", period: 255, divider: 254},
		{desc: "period 256", period: 256, divider: 200, counter: 3},
		{desc: "divider past period wraps through 255", period: 3, divider: 10},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			ref := stepTimer{period: tC.period, divider: tC.divider, counter: tC.counter}
			for k := 0; k <= maxTicks; k++ {
				timer := Timer{
					prescaler: prescaler,
					period:    tC.period,
					divider:   tC.divider,
					counter:   tC.counter,
					enabled:   true,
					nextTime:  1,
				}
				if k > 0 {
					timer.run(1 + (k-1)*prescaler)
					require.Equal(t, 1+k*prescaler, timer.nextTime, "next time after %d ticks", k)
				}
				if timer.counter != ref.counter || timer.divider != ref.divider {
					t.Fatalf("after %d ticks: counter=%d divider=%d, want counter=%d divider=%d",
						k, timer.counter, timer.divider, ref.counter, ref.divider)
				}
				ref.tick()
			}
		})
	}
}

func TestTimer_RunBeforeNextTimeIsNoop(t *testing.T) {
	timer := Timer{prescaler: 128, period: 1, enabled: true, nextTime: 100}

	timer.run(99)

	assert.Equal(t, 100, timer.nextTime)
	assert.Equal(t, uint8(0), timer.counter)
}

func TestTimer_DisabledOnlyAdvancesClock(t *testing.T) {
	timer := Timer{prescaler: 16, period: 1, divider: 0, counter: 9, nextTime: 1}

	timer.run(1 + 99*16)

	assert.Equal(t, 1+100*16, timer.nextTime)
	assert.Equal(t, uint8(9), timer.counter)
	assert.Equal(t, uint8(0), timer.divider)
}

func TestTimer_ReadCounterClears(t *testing.T) {
	timer := Timer{prescaler: 16, period: 1, enabled: true, nextTime: 1}

	first := timer.readCounter(1 + 4*16)
	second := timer.readCounter(1 + 4*16)

	assert.Equal(t, uint8(5), first)
	assert.Equal(t, uint8(0), second)
}

func TestPrescalersForTempo(t *testing.T) {
	testCases := []struct {
		desc  string
		tempo int
		want  [3]int
	}{
		{desc: "normal speed", tempo: TempoUnit, want: [3]int{128, 128, 16}},
		{desc: "half speed", tempo: TempoUnit / 2, want: [3]int{256, 256, 32}},
		{desc: "double speed", tempo: TempoUnit * 2, want: [3]int{64, 64, 8}},
		{desc: "clamped at 4x", tempo: TempoUnit * 16, want: [3]int{32, 32, 4}},
		{desc: "zero treated as slowest", tempo: 0, want: [3]int{4096 << 3, 4096 << 3, 4096}},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.want, prescalersForTempo(tC.tempo))
		})
	}
}
