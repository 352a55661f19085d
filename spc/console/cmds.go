package console

import "github.com/beevik/cmd"

var cmds *cmd.Tree

// helpEntry is one line of the help listing.
type helpEntry struct {
	usage string
	brief string
}

var help []helpEntry

func addCommand(t *cmd.Tree, d cmd.CommandDescriptor) {
	t.AddCommand(d)
	help = append(help, helpEntry{usage: d.Usage, brief: d.Brief})
}

const (
	usageStep        = "step [<count>]"
	usageFrame       = "frame [<samples>]"
	usageRun         = "run [<max instructions>]"
	usageDisassemble = "disassemble [<address>] [<lines>]"
	usageMemoryDump  = "memory dump <address> [<bytes>]"
	usageMemoryWrite = "memory write <address> <byte>..."
	usagePortRead    = "port read <n>"
	usagePortWrite   = "port write <n> <value>"
	usageDSPWrite    = "dsp write <register> <value>"
	usageBreakAdd    = "breakpoint add <address>"
	usageBreakRemove = "breakpoint remove <address>"
	usageSet         = "set <register> <value>"
	usageReset       = "reset [soft]"
)

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "spc700"})
	addCommand(root, cmd.CommandDescriptor{
		Name:  "help",
		Brief: "List commands",
		Usage: "help",
		Data:  (*Console).cmdHelp,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:        "step",
		Brief:       "Execute instructions",
		Description: "Execute one or more instructions and show each one.",
		Usage:       usageStep,
		Data:        (*Console).cmdStep,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:        "frame",
		Brief:       "Play a frame",
		Description: "Run long enough to produce the given number of samples.",
		Usage:       usageFrame,
		Data:        (*Console).cmdFrame,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:        "run",
		Brief:       "Run until a breakpoint",
		Description: "Execute instructions until a breakpoint is hit, the CPU halts or the limit is reached.",
		Usage:       usageRun,
		Data:        (*Console).cmdRun,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:  "registers",
		Brief: "Display register contents",
		Usage: "registers",
		Data:  (*Console).cmdRegisters,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble from an address, or continue where the last" +
			" disassembly ended.",
		Usage: usageDisassemble,
		Data:  (*Console).cmdDisassemble,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:  "timers",
		Brief: "Display timer state",
		Usage: "timers",
		Data:  (*Console).cmdTimers,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a CPU register",
		Usage: usageSet,
		Data:  (*Console).cmdSet,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:  "reset",
		Brief: "Reset the emulator",
		Usage: usageReset,
		Data:  (*Console).cmdReset,
	})
	addCommand(root, cmd.CommandDescriptor{
		Name:  "quit",
		Brief: "Quit the console",
		Usage: "quit",
		Data:  (*Console).cmdQuit,
	})

	mem := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	addCommand(mem, cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory",
		Usage: usageMemoryDump,
		Data:  (*Console).cmdMemoryDump,
	})
	addCommand(mem, cmd.CommandDescriptor{
		Name:  "write",
		Brief: "Write bytes to memory",
		Usage: usageMemoryWrite,
		Data:  (*Console).cmdMemoryWrite,
	})

	port := root.AddSubtree(cmd.TreeDescriptor{Name: "port", Brief: "Communication port commands"})
	addCommand(port, cmd.CommandDescriptor{
		Name:  "read",
		Brief: "Read a value written by the SMP",
		Usage: usagePortRead,
		Data:  (*Console).cmdPortRead,
	})
	addCommand(port, cmd.CommandDescriptor{
		Name:  "write",
		Brief: "Send a value to the SMP",
		Usage: usagePortWrite,
		Data:  (*Console).cmdPortWrite,
	})

	dspTree := root.AddSubtree(cmd.TreeDescriptor{Name: "dsp", Brief: "DSP register commands"})
	addCommand(dspTree, cmd.CommandDescriptor{
		Name:  "registers",
		Brief: "Display the global DSP registers",
		Usage: "dsp registers",
		Data:  (*Console).cmdDSPRegisters,
	})
	addCommand(dspTree, cmd.CommandDescriptor{
		Name:  "write",
		Brief: "Write a DSP register",
		Usage: usageDSPWrite,
		Data:  (*Console).cmdDSPWrite,
	})
	addCommand(dspTree, cmd.CommandDescriptor{
		Name:        "clear-echo",
		Brief:       "Fill the echo buffer with $FF",
		Description: "Clear the RAM the echo buffer occupies, if echo writes are enabled.",
		Usage:       "dsp clear-echo",
		Data:        (*Console).cmdDSPClearEcho,
	})

	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	addCommand(bp, cmd.CommandDescriptor{
		Name:  "list",
		Brief: "List breakpoints",
		Usage: "breakpoint list",
		Data:  (*Console).cmdBreakpointList,
	})
	addCommand(bp, cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a breakpoint",
		Usage: usageBreakAdd,
		Data:  (*Console).cmdBreakpointAdd,
	})
	addCommand(bp, cmd.CommandDescriptor{
		Name:  "remove",
		Brief: "Remove a breakpoint",
		Usage: usageBreakRemove,
		Data:  (*Console).cmdBreakpointRemove,
	})

	cmds = root
}
