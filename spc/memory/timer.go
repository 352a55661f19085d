package memory

// Default timer prescalers in 1.024 MHz clocks per tick: timers 0 and 1 run
// at 8 kHz, timer 2 at 64 kHz.
const (
	timer2Shift = 4 // 64 kHz
	otherShift  = 3 // 8 kHz

	// TempoUnit is the tempo value for normal playback speed.
	TempoUnit = 0x100
)

// Timer is one of the three SMP timers: a prescaler feeding an 8-bit divider
// that compares against the period, which in turn clocks a 4-bit counter.
//
// Timers are caught up lazily. nextTime is the time of the next prescaler tick,
// expressed in the same relative clock the CPU uses.
type Timer struct {
	prescaler int
	period    int // 1-256
	divider   uint8
	counter   uint8 // 4 bits
	enabled   bool
	nextTime  int
}

// ifZeroThen256 maps an 8-bit period register value to its divider length.
func ifZeroThen256(n int) int {
	return int(uint8(n-1)) + 1
}

// run catches the timer up to time if a tick is due.
func (t *Timer) run(time int) *Timer {
	if time >= t.nextTime {
		t.catchUp(time)
	}
	return t
}

// catchUp applies every tick elapsed since nextTime in one step.
// Callers must ensure time >= nextTime.
func (t *Timer) catchUp(time int) {
	elapsed := (time-t.nextTime)/t.prescaler + 1
	t.nextTime += elapsed * t.prescaler

	if !t.enabled {
		return
	}

	// ticks until the 8-bit divider next equals the period
	remain := ifZeroThen256(t.period - int(t.divider))
	divider := int(t.divider) + elapsed
	over := elapsed - remain
	if over >= 0 {
		n := over / t.period
		t.counter = uint8(int(t.counter)+1+n) & 0x0F
		divider = over - n*t.period
	}
	t.divider = uint8(divider)
}

// readCounter returns the counter and clears it.
func (t *Timer) readCounter(time int) uint8 {
	t.run(time)
	result := t.counter
	t.counter = 0
	return result
}

// Counter returns the 4-bit output counter without clearing it.
func (t Timer) Counter() uint8 { return t.counter }

// Divider returns the internal divider stage.
func (t Timer) Divider() uint8 { return t.divider }

// Period returns the divider length, 1-256.
func (t Timer) Period() int { return t.period }

// Enabled reports whether the timer is counting.
func (t Timer) Enabled() bool { return t.enabled }

// Prescaler returns the number of clocks per divider tick.
func (t Timer) Prescaler() int { return t.prescaler }

// NextTime returns the relative time of the next divider tick.
func (t Timer) NextTime() int { return t.nextTime }

// prescalersForTempo computes the timer prescalers for a tempo where
// TempoUnit is normal speed.
func prescalersForTempo(tempo int) [3]int {
	if tempo == 0 {
		tempo = 1
	}
	const timer2Rate = 1 << timer2Shift
	rate := (timer2Rate*TempoUnit + (tempo >> 1)) / tempo
	if rate < timer2Rate/4 {
		rate = timer2Rate / 4 // max 4x tempo
	}
	return [3]int{rate << otherShift, rate << otherShift, rate}
}
