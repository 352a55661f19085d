package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent frame timing.
// Less accurate than AdaptiveLimiter but simpler and good enough for the
// monitor's redraw loop.
type TickerLimiter struct {
	ticker   *time.Ticker
	duration time.Duration
}

// NewTickerLimiter paces frames of the given number of SMP clocks.
func NewTickerLimiter(clocksPerFrame int) *TickerLimiter {
	d := FrameDuration(clocksPerFrame)
	return &TickerLimiter{
		ticker:   time.NewTicker(d),
		duration: d,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.duration)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
