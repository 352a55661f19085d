package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"github.com/valerio/go-spc700/spc"
	"github.com/valerio/go-spc700/spc/backend"
	"github.com/valerio/go-spc700/spc/backend/terminal"
	"github.com/valerio/go-spc700/spc/console"
	"github.com/valerio/go-spc700/spc/host"
	"github.com/valerio/go-spc700/spc/runner"
	"github.com/valerio/go-spc700/spc/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "spc700"
	app.Description = "An SPC700 sound CPU emulator"
	app.Usage = "spc700 [options] <program file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "program",
			Usage: "Raw binary to load into RAM",
		},
		cli.StringFlag{
			Name:  "origin",
			Usage: "Load address of the program, also its entry point",
			Value: "0x0200",
		},
		cli.StringFlag{
			Name:  "ipl",
			Usage: "64-byte boot ROM image (default: built-in stub)",
		},
		cli.StringFlag{
			Name:  "script",
			Usage: "Lua script playing the host side of the ports",
		},
		cli.StringFlag{
			Name:  "accuracy",
			Usage: "Emulation accuracy: fast, normal or high",
			Value: "high",
		},
		cli.Float64Flag{
			Name:  "tempo",
			Usage: "Timer speed multiplier",
			Value: 1,
		},
		cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for the timer glitch random source",
		},
		cli.IntFlag{
			Name:  "samples",
			Usage: "Samples (both channels) per frame",
			Value: runner.DefaultSamplesPerFrame,
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run headless (0 = until halt or script stop)",
		},
		cli.StringFlag{
			Name:  "pcm",
			Usage: "Write output as raw signed 16-bit little-endian stereo PCM",
		},
		cli.BoolFlag{
			Name:  "monitor",
			Usage: "Show the terminal monitor",
		},
		cli.BoolFlag{
			Name:  "console",
			Usage: "Start the interactive debugger console",
		},
		cli.BoolFlag{
			Name:  "realtime",
			Usage: "Pace headless output at the SMP's real rate",
		},
		cli.BoolFlag{
			Name:  "paused",
			Usage: "Start the monitor paused",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	programPath := c.String("program")
	if programPath == "" && c.NArg() > 0 {
		programPath = c.Args().Get(0)
	}

	opts, err := parseOptions(c.String("origin"), c.String("accuracy"), c.Float64("tempo"))
	if err != nil {
		return err
	}
	opts.programPath = programPath
	opts.iplPath = c.String("ipl")
	opts.seed = c.Uint64("seed")

	emu, err := newEmulator(opts)
	if err != nil {
		return err
	}

	if c.Bool("console") {
		return console.New(emu).RunCommands(os.Stdin, os.Stdout, true)
	}

	var script *host.Script
	if path := c.String("script"); path != "" {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		script, err = host.Load(path, string(src), emu, slog.Default())
		if err != nil {
			return err
		}
		defer script.Close()
	}

	samples := c.Int("samples")
	frameClocks := samples * spc.ClocksPerFrameSample

	var b backend.Backend
	var limiter timing.Limiter
	monitor := c.Bool("monitor")
	switch {
	case monitor:
		b = terminal.New()
		limiter = timing.NewAdaptiveLimiter(frameClocks)
	default:
		if programPath == "" && script == nil {
			cli.ShowAppHelp(c)
			return errors.New("no program or script provided")
		}
		var pcm io.Writer
		if path := c.String("pcm"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create pcm output: %w", err)
			}
			defer f.Close()
			pcm = f
		}
		b = backend.NewHeadlessBackend(c.Int("frames"), pcm)
		if c.Bool("realtime") {
			ticker := timing.NewTickerLimiter(frameClocks)
			defer ticker.Stop()
			limiter = ticker
		} else {
			limiter = timing.NewNoOpLimiter()
		}
	}

	r := runner.New(emu, b, runner.Options{
		SamplesPerFrame: samples,
		Limiter:         limiter,
		Script:          script,
		Paused:          c.Bool("paused"),
		StopOnHalt:      !monitor,
	})
	return r.Run(programPath, monitor)
}
