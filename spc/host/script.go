// Package host drives the SMP's communication ports from a Lua script,
// standing in for the main CPU that uploads code and sends commands to the
// sound program.
//
// A script may define on_frame(frame), called once per emulated frame, and
// uses these globals:
//
//	read_port(n [, t])      value the SMP last wrote to port n
//	write_port(n, v [, t])  value the SMP reads from port n
//	log(msg)                log at info level
//	stop()                  ask the runner to stop after this frame
//
// t is a clock offset into the current frame and defaults to 0.
package host

import (
	"errors"
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// Ports is the host side of the four communication ports.
type Ports interface {
	ReadPort(t, n int) byte
	WritePort(t, n int, value byte)
}

// ErrNoFrameHandler is returned by OnFrame when the script defines no
// on_frame function.
var ErrNoFrameHandler = errors.New("script has no on_frame function")

// Script is a loaded host script.
type Script struct {
	state   *lua.LState
	ports   Ports
	logger  *slog.Logger
	stopped bool
}

// Load compiles and runs the top level of src. name is used in error
// messages.
func Load(name, src string, ports Ports, logger *slog.Logger) (*Script, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Script{
		state:  lua.NewState(),
		ports:  ports,
		logger: logger.With("script", name),
	}
	s.register()

	fn, err := s.state.LoadString(src)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	s.state.Push(fn)
	if err := s.state.PCall(0, lua.MultRet, nil); err != nil {
		s.Close()
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return s, nil
}

func (s *Script) register() {
	s.state.SetGlobal("read_port", s.state.NewFunction(s.readPort))
	s.state.SetGlobal("write_port", s.state.NewFunction(s.writePort))
	s.state.SetGlobal("log", s.state.NewFunction(s.log))
	s.state.SetGlobal("stop", s.state.NewFunction(s.stop))
}

func (s *Script) port(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 0 || n > 3 {
		L.ArgError(1, "port must be 0-3")
	}
	return n
}

func (s *Script) readPort(L *lua.LState) int {
	n := s.port(L)
	t := L.OptInt(2, 0)
	L.Push(lua.LNumber(s.ports.ReadPort(t, n)))
	return 1
}

func (s *Script) writePort(L *lua.LState) int {
	n := s.port(L)
	v := L.CheckInt(2)
	t := L.OptInt(3, 0)
	s.ports.WritePort(t, n, byte(v))
	return 0
}

func (s *Script) log(L *lua.LState) int {
	s.logger.Info(L.CheckString(1))
	return 0
}

func (s *Script) stop(L *lua.LState) int {
	s.stopped = true
	return 0
}

// HasFrameHandler reports whether the script defines on_frame.
func (s *Script) HasFrameHandler() bool {
	return s.state.GetGlobal("on_frame").Type() == lua.LTFunction
}

// OnFrame calls the script's on_frame handler.
func (s *Script) OnFrame(frame int) error {
	fn := s.state.GetGlobal("on_frame")
	if fn.Type() != lua.LTFunction {
		return ErrNoFrameHandler
	}
	err := s.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(frame))
	if err != nil {
		return fmt.Errorf("on_frame(%d): %w", frame, err)
	}
	return nil
}

// Stopped reports whether the script called stop().
func (s *Script) Stopped() bool {
	return s.stopped
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.state.Close()
}
