package vm

import (
	"strings"
	"testing"

	"nilan/compiler"
	"nilan/value"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	alloc := value.NewAllocator()
	c, err := compiler.Compile(source, alloc)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out strings.Builder
	machine := New(alloc, WithOutput(&out))
	runErr := machine.Interpret(c)
	return out.String(), runErr
}

func TestInterpretArithmetic(t *testing.T) {
	cases := map[string]string{
		"print 9 + 5;":        "14",
		"print -9 + 5;":       "-4",
		"print 8 / 2.5;":      "3.2",
		"print 14 / 4;":       "3.5",
		"print !(5 - 4 > 3 * 2 == !nil);": "true",
	}
	for src, want := range cases {
		got, err := run(t, src)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", src, err)
		}
		if got != want {
			t.Errorf("%q: got %q, want %q", src, got, want)
		}
	}
}

func TestInterpretStringConcatWithGlobal(t *testing.T) {
	got, err := run(t, `var greeting = "hi " + "there"; print greeting;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi there" {
		t.Errorf("got %q, want %q", got, "hi there")
	}
}

func TestInterpretConsecutivePrints(t *testing.T) {
	got, err := run(t, "print true; print nil;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "truenil" {
		t.Errorf("got %q, want %q", got, "truenil")
	}
}

func TestInterpretUndefinedVariable(t *testing.T) {
	_, err := run(t, "print x;")
	if err == nil {
		t.Fatal("expected an error")
	}
	uv, ok := err.(UndefinedVariable)
	if !ok {
		t.Fatalf("got error %T, want UndefinedVariable", err)
	}
	if uv.Name != "x" {
		t.Errorf("name = %q, want x", uv.Name)
	}
}

func TestInterpretInvalidAddOperands(t *testing.T) {
	_, err := run(t, `print 1 + "a";`)
	if err == nil {
		t.Fatal("expected an error")
	}
	it, ok := err.(InvalidTypes)
	if !ok {
		t.Fatalf("got error %T, want InvalidTypes", err)
	}
	if !it.Left.IsNumber() || !it.Right.IsString() {
		t.Errorf("expected operands (number, string), got (%v, %v)", it.Left, it.Right)
	}
}

func TestInterpretGlobalRedefinitionOverwrites(t *testing.T) {
	got, err := run(t, "var a = 1; var a = 2; print a;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2" {
		t.Errorf("got %q, want %q", got, "2")
	}
}

func TestInterpretEqualityAcrossKinds(t *testing.T) {
	got, err := run(t, `print 1 == "1";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "false" {
		t.Errorf("got %q, want false", got)
	}
}
