package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/valerio/go-spc700/spc"
	"github.com/valerio/go-spc700/spc/addr"
	"github.com/valerio/go-spc700/spc/memory"
)

type options struct {
	programPath string
	iplPath     string
	origin      uint16
	accuracy    memory.Accuracy
	tempo       int
	seed        uint64
}

func parseOptions(origin, accuracy string, tempo float64) (options, error) {
	var opts options

	o, err := strconv.ParseUint(origin, 0, 16)
	if err != nil {
		return opts, fmt.Errorf("invalid origin %q: %w", origin, err)
	}
	opts.origin = uint16(o)

	opts.accuracy, err = memory.ParseAccuracy(accuracy)
	if err != nil {
		return opts, err
	}

	if tempo <= 0 {
		return opts, fmt.Errorf("tempo must be positive, got %v", tempo)
	}
	opts.tempo = int(tempo * memory.TempoUnit)
	if opts.tempo < 1 {
		return opts, fmt.Errorf("tempo %v is below the smallest step 1/%d", tempo, memory.TempoUnit)
	}
	return opts, nil
}

func newEmulator(opts options) (*spc.Emulator, error) {
	cfg := spc.DefaultConfig()
	cfg.Accuracy = opts.accuracy
	cfg.Tempo = opts.tempo
	cfg.Seed = opts.seed
	cfg.Logger = slog.Default()
	emu := spc.New(cfg)

	if opts.iplPath != "" {
		data, err := os.ReadFile(opts.iplPath)
		if err != nil {
			return nil, fmt.Errorf("read boot ROM: %w", err)
		}
		if len(data) != addr.ROMSize {
			return nil, fmt.Errorf("boot ROM must be %d bytes, got %d", addr.ROMSize, len(data))
		}
		var rom [addr.ROMSize]byte
		copy(rom[:], data)
		emu.InitROM(rom)
	}

	if opts.programPath != "" {
		program, err := os.ReadFile(opts.programPath)
		if err != nil {
			return nil, fmt.Errorf("read program: %w", err)
		}
		if err := emu.LoadProgram(opts.origin, program); err != nil {
			return nil, err
		}
		slog.Info("Loaded program", "bytes", len(program), "origin", fmt.Sprintf("0x%04X", opts.origin))
	}
	return emu, nil
}
