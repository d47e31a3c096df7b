package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/compiler"
	"nilan/value"
)

// disasmCmd compiles a file and prints its disassembly without
// executing it — grounded in the teacher's "emit" command, which did
// the same against the old AST compiler.
type disasmCmd struct {
	outPath string
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a file and print its disassembly" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
  Compile <file> and print its bytecode disassembly without running it.
`
}

func (cmd *disasmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.outPath, "o", "", "write the disassembly to this file instead of stdout")
}

func (cmd *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "disasm: exactly one file argument is required")
		return subcommands.ExitUsageError
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", args[0], err)
		return subcommands.ExitFailure
	}

	c, err := compiler.Compile(string(source), value.NewAllocator())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	listing := c.Disassemble(args[0])
	if cmd.outPath == "" {
		fmt.Print(listing)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(cmd.outPath, []byte(listing), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", cmd.outPath, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
