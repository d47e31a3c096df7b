// Command nilan is the Nilan language's command-line entry point. Its
// argument contract is fixed: no arguments starts a REPL, one argument
// compiles and runs that file, anything else is a usage error. That
// contract is intentionally not routed through google/subcommands —
// subcommands' own exit-code conventions don't match the sysexits.h
// codes this CLI must produce — but a couple of auxiliary subcommands
// ("disasm", "repl") are registered for anyone who wants to invoke them
// by name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

const (
	exitUsage   = 64
	exitCompile = 65
	exitRuntime = 70
	exitIOError = 74
)

func main() {
	if len(os.Args) >= 2 && isRegisteredSubcommand(os.Args[1]) {
		os.Exit(runSubcommands())
	}

	switch len(os.Args) {
	case 1:
		runREPL(os.Stdin, os.Stdout)
	case 2:
		os.Exit(runFile(os.Args[1], os.Stdout))
	default:
		fmt.Fprintln(os.Stderr, "Usage: nilan [script]")
		os.Exit(exitUsage)
	}
}

func isRegisteredSubcommand(arg string) bool {
	switch arg {
	case "disasm", "repl", "help", "commands", "flags":
		return true
	}
	return false
}

func runSubcommands() int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&disasmCmd{}, "")
	subcommands.Register(&replCmd{}, "")

	flag.Parse()
	return int(subcommands.Execute(context.Background()))
}
