package timing

import "time"

// Limiter paces emulated frames against the wall clock.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// ClockRate is the SMP clock in Hz.
const ClockRate = 1024000

// FrameDuration returns the wall time taken by a frame of clocks SMP clocks.
func FrameDuration(clocks int) time.Duration {
	return time.Duration(int64(clocks) * int64(time.Second) / ClockRate)
}
