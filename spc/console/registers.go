package console

import (
	"strings"

	"github.com/beevik/prefixtree/v2"
	"github.com/valerio/go-spc700/spc/cpu"
)

// registerField names a settable register.
type registerField struct {
	name  string
	wide  bool
	apply func(r *cpu.Registers, v uint16)
}

var (
	registerTree   = prefixtree.New[*registerField]()
	registerFields = []registerField{
		{name: "a", apply: func(r *cpu.Registers, v uint16) { r.A = uint8(v) }},
		{name: "x", apply: func(r *cpu.Registers, v uint16) { r.X = uint8(v) }},
		{name: "y", apply: func(r *cpu.Registers, v uint16) { r.Y = uint8(v) }},
		{name: "sp", apply: func(r *cpu.Registers, v uint16) { r.SP = uint8(v) }},
		{name: "psw", apply: func(r *cpu.Registers, v uint16) { r.PSW = uint8(v) }},
		{name: "pc", wide: true, apply: func(r *cpu.Registers, v uint16) { r.PC = v }},
	}
)

func init() {
	for i := range registerFields {
		registerTree.Add(registerFields[i].name, &registerFields[i])
	}
}

func lookupRegister(name string) (*registerField, error) {
	return registerTree.FindValue(strings.ToLower(name))
}
