package main

import (
	"fmt"
	"io"
	"os"

	"nilan/compiler"
	"nilan/value"
	"nilan/vm"
)

// runFile compiles and executes the Nilan source at path, writing
// program output to out, and returns the process exit code the spec's
// CLI contract requires for the outcome.
func runFile(path string, out io.Writer) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		return exitIOError
	}

	allocator := value.NewAllocator()
	c, err := compiler.Compile(string(source), allocator)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompile
	}

	machine := vm.New(allocator, vm.WithOutput(out))
	if err := machine.Interpret(c); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if _, ok := err.(vm.OutputError); ok {
			return exitIOError
		}
		return exitRuntime
	}
	return 0
}
