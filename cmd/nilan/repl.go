package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"nilan/compiler"
	"nilan/value"
	"nilan/vm"
)

// replCmd exposes the same interactive REPL the bare binary launches,
// reachable by name for scripting ("nilan repl") rather than relying
// on the zero-argument default.
type replCmd struct {
	debug bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Nilan session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive Nilan REPL session.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.debug, "debug", false, "enable the VM's per-instruction debug trace")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if cmd.debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	runREPL(os.Stdin, os.Stdout)
	return subcommands.ExitSuccess
}

// runREPL reads and executes one line at a time until EOF (Ctrl-D).
// The allocator and VM are created once and shared across lines, so a
// `var` declared on one line is visible to a `print` on the next.
func runREPL(in io.Reader, out io.Writer) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: historyFilePath(),
		Stdin:       io.NopCloser(in),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start REPL: %v\n", err)
		return
	}
	defer rl.Close()

	allocator := value.NewAllocator()
	machine := vm.New(allocator, vm.WithOutput(out),
		vm.WithDebugTrace(logrus.GetLevel() >= logrus.DebugLevel))

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF (Ctrl-D) or readline.ErrInterrupt (Ctrl-C)
			return
		}
		if line == "" {
			continue
		}

		c, err := compiler.Compile(line, allocator)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if err := machine.Interpret(c); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Fprintln(out)
	}
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.nilan_history"
}
