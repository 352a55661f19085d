package backend

// Action is a user request raised by a backend.
type Action int

const (
	ActionQuit Action = iota
	ActionTogglePause
	ActionStepFrame
	ActionStepInstruction
	ActionReset
	ActionDebugToggle
	ActionLogLevelIncrease
	ActionLogLevelDecrease
)

var actionNames = map[Action]string{
	ActionQuit:             "quit",
	ActionTogglePause:      "pause",
	ActionStepFrame:        "step-frame",
	ActionStepInstruction:  "step-instruction",
	ActionReset:            "reset",
	ActionDebugToggle:      "debug-toggle",
	ActionLogLevelIncrease: "log-level+",
	ActionLogLevelDecrease: "log-level-",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}
