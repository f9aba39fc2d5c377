package jack_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hmny-oss/n2t-toolchain/pkg/jack"
)

func compileClass(t *testing.T, className, src string) []string {
	t.Helper()

	tokens, err := jack.NewTokenizer([]byte(src)).Tokenize()
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}

	path := filepath.Join(t.TempDir(), className+".vm")
	writer, err := jack.NewVMWriter(path)
	if err != nil {
		t.Fatalf("unable to create VM writer: %v", err)
	}

	engine := jack.NewCompilationEngine(className, tokens, writer, nil)
	if err := engine.CompileClass(); err != nil {
		writer.Abort()
		t.Fatalf("compile error: %v", err)
	}
	if err := writer.Finish(); err != nil {
		t.Fatalf("finish error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading compiled output: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func expectCompileError(t *testing.T, className, src string) {
	t.Helper()

	tokens, err := jack.NewTokenizer([]byte(src)).Tokenize()
	if err != nil {
		return // a tokenizer-level failure also satisfies "this source doesn't compile"
	}

	path := filepath.Join(t.TempDir(), className+".vm")
	writer, err := jack.NewVMWriter(path)
	if err != nil {
		t.Fatalf("unable to create VM writer: %v", err)
	}

	engine := jack.NewCompilationEngine(className, tokens, writer, nil)
	err = engine.CompileClass()
	writer.Abort()
	if err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestEmptyClass(t *testing.T) {
	lines := compileClass(t, "Foo", `class Foo { function void main() { return; } }`)
	want := []string{"function Foo.main 0", "push constant 0", "return"}
	if len(lines) != len(want) {
		t.Fatalf("expected %v, got %v", want, lines)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Fatalf("line %d: expected %q, got %q (full: %v)", i, line, lines[i], lines)
		}
	}
}

func TestFieldAccess(t *testing.T) {
	src := `
	class Point {
		field int x, y;
		constructor Point new(int ax, int ay) { let x = ax; let y = ay; return this; }
		method int getX() { return x; }
	}`
	lines := compileClass(t, "Point", src)

	newWant := []string{
		"function Point.new 0",
		"push constant 2", "call Memory.alloc 1", "pop pointer 0",
		"push argument 0", "pop this 0",
		"push argument 1", "pop this 1",
		"push pointer 0", "return",
	}
	getXWant := []string{
		"function Point.getX 0",
		"push argument 0", "pop pointer 0",
		"push this 0", "return",
	}

	all := append(append([]string{}, newWant...), getXWant...)
	if len(lines) != len(all) {
		t.Fatalf("expected %d lines, got %d: %v", len(all), len(lines), lines)
	}
	for i, want := range all {
		if lines[i] != want {
			t.Fatalf("line %d: expected %q, got %q (full: %v)", i, want, lines[i], lines)
		}
	}
}

func TestClassNameMustMatchFilenameStem(t *testing.T) {
	expectCompileError(t, "Bar", `class Foo { function void main() { return; } }`)
}

func TestFieldReferencedInsideFunctionFails(t *testing.T) {
	expectCompileError(t, "Foo", `
	class Foo {
		field int x;
		function int bad() { return x; }
	}`)
}

func TestThisReferencedInsideFunctionFails(t *testing.T) {
	expectCompileError(t, "Foo", `
	class Foo {
		function Foo bad() { return this; }
	}`)
}

func TestMethodCalledAsFunctionFails(t *testing.T) {
	expectCompileError(t, "Foo", `
	class Foo {
		method void helper() { return; }
		function void main() { do Foo.helper(); return; }
	}`)
}

func TestUndefinedCallFails(t *testing.T) {
	expectCompileError(t, "Foo", `
	class Foo {
		function void main() { do Foo.missing(); return; }
	}`)
}

func TestArityMismatchFails(t *testing.T) {
	expectCompileError(t, "Foo", `
	class Foo {
		function void helper(int a) { return; }
		function void main() { do Foo.helper(); return; }
	}`)
}

func TestVoidInExpressionFails(t *testing.T) {
	expectCompileError(t, "Foo", `
	class Foo {
		function void helper() { return; }
		function void main() { var int x; let x = Foo.helper(); return; }
	}`)
}

func TestMainClassRequiresMainFunction(t *testing.T) {
	expectCompileError(t, "Main", `class Main { function void helper() { return; } }`)
}

func TestWhileLoopLabelCounterResetsPerSubroutine(t *testing.T) {
	src := `
	class Foo {
		function void loopA() { var int x; while (true) { let x = 1; } return; }
		function void loopB() { var int x; while (true) { let x = 1; } return; }
	}`
	lines := compileClass(t, "Foo", src)

	count := func(label string) int {
		n := 0
		for _, l := range lines {
			if strings.Contains(l, label) {
				n++
			}
		}
		return n
	}
	// Each function's while loop allocates WHILE0/WHILE1 independently. Every loop
	// writes each label on two lines (label + goto, if-goto + label), so each
	// label string should appear four times across the whole file (twice per function).
	if count("WHILE0") != 4 || count("WHILE1") != 4 {
		t.Fatalf("expected WHILE0/WHILE1 to repeat once per subroutine, got: %v", lines)
	}
}

func TestForwardReferencedCallResolves(t *testing.T) {
	lines := compileClass(t, "Foo", `
	class Foo {
		function void main() { do Foo.later(); return; }
		function void later() { return; }
	}`)
	if lines[0] != "function Foo.main 0" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
}

func TestArrayAccessRequiresArrayType(t *testing.T) {
	expectCompileError(t, "Foo", `
	class Foo {
		function void main() { var int x; let x[0] = 1; return; }
	}`)
}

func TestBinaryArithmeticWithParentheses(t *testing.T) {
	lines := compileClass(t, "Foo", `
	class Foo {
		function int main() { return (1 + 2) * 3; }
	}`)
	want := []string{
		"function Foo.main 0",
		"push constant 1", "push constant 2", "add",
		"push constant 3", "call Math.multiply 2",
		"return",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %v, got %v", want, lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Fatalf("line %d: expected %q, got %q (full: %v)", i, w, lines[i], lines)
		}
	}
}
