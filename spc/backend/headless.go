package backend

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-spc700/spc/debug"
)

// HeadlessBackend runs a fixed number of frames, optionally writing the
// samples as raw 16-bit little-endian stereo PCM.
type HeadlessBackend struct {
	config     BackendConfig
	callbacks  BackendCallbacks
	frameCount int
	maxFrames  int
	pcm        io.Writer
	written    int
	peak       int16
}

// NewHeadlessBackend creates a backend that quits after maxFrames frames.
// pcm may be nil.
func NewHeadlessBackend(maxFrames int, pcm io.Writer) *HeadlessBackend {
	return &HeadlessBackend{
		maxFrames: maxFrames,
		pcm:       pcm,
	}
}

func (h *HeadlessBackend) Init(config BackendConfig) error {
	h.config = config
	h.callbacks = config.Callbacks

	slog.Info("Running headless mode", "frames", h.maxFrames, "pcm", h.pcm != nil)
	return nil
}

// Update records a frame and signals completion once maxFrames is reached.
func (h *HeadlessBackend) Update(data *debug.CompleteDebugData, samples []int16) error {
	h.frameCount++

	if h.pcm != nil && len(samples) > 0 {
		if err := binary.Write(h.pcm, binary.LittleEndian, samples); err != nil {
			return fmt.Errorf("write pcm: %w", err)
		}
		h.written += len(samples)
	}
	h.peak = max(h.peak, Peak(samples))

	if h.frameCount%100 == 0 {
		slog.Debug("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.maxFrames > 0 && h.frameCount >= h.maxFrames {
		slog.Info("Headless execution completed",
			"frames", h.frameCount,
			"samples", h.written,
			"peak", h.peak,
			"pc", fmt.Sprintf("0x%04X", data.CPU.PC))
		h.callbacks.quit()
	}
	return nil
}

func (h *HeadlessBackend) Cleanup() error {
	return nil
}

// Frames returns the number of frames seen so far.
func (h *HeadlessBackend) Frames() int {
	return h.frameCount
}

// Peak returns the largest absolute sample value.
func Peak(samples []int16) int16 {
	var peak int16
	for _, s := range samples {
		if s == -32768 {
			return 32767
		}
		if s < 0 {
			s = -s
		}
		peak = max(peak, s)
	}
	return peak
}
