package spc

import (
	"log/slog"

	"github.com/valerio/go-spc700/spc/dsp"
	"github.com/valerio/go-spc700/spc/memory"
)

// Config holds the settings of a new Emulator.
type Config struct {
	// Accuracy selects DSP access timing and timer quirk emulation.
	Accuracy memory.Accuracy
	// Tempo scales timer speed; memory.TempoUnit is normal speed.
	Tempo int
	// Seed drives the timer glitch random source when Rand is nil.
	Seed uint64
	// Rand overrides the timer glitch random source.
	Rand memory.RandSource
	// DSP is the DSP collaborator. Defaults to a register-file DSP that
	// outputs silence.
	DSP dsp.DSP
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the settings used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Accuracy: memory.AccuracyHigh,
		Tempo:    memory.TempoUnit,
	}
}
