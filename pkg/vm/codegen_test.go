package vm_test

import (
	"testing"

	"github.com/hmny-oss/n2t-toolchain/pkg/asm"
	"github.com/hmny-oss/n2t-toolchain/pkg/vm"
)

func TestSimpleAdd(t *testing.T) {
	// Literal end-to-end scenario: push constant 7; push constant 8; add must end with the
	// classic binary-op sequence "@SP / AM=M-1 / D=M / A=A-1 / M=D+M".
	program := vm.Program{{
		Name: "SimpleAdd",
		Operations: []vm.Operation{
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 7, Line: 1},
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 8, Line: 2},
			vm.ArithmeticOp{Operation: vm.Add, Line: 3},
		},
	}}

	codegen := vm.NewCodeGenerator(program, false)
	generated, err := codegen.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tail := generated[len(generated)-5:]
	expected := asm.Program{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "M", Comp: "D+M"},
	}
	for i, want := range expected {
		if tail[i] != want {
			t.Fatalf("statement %d: expected %+v, got %+v", i, want, tail[i])
		}
	}
}

func TestComparisonUsesUniqueLabelsPerFunction(t *testing.T) {
	program := vm.Program{{
		Name: "Main",
		Operations: []vm.Operation{
			vm.FuncDecl{Name: "Main.test", NLocals: 0, Line: 1},
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1, Line: 2},
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 2, Line: 3},
			vm.ArithmeticOp{Operation: vm.Eq, Line: 4},
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1, Line: 5},
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 2, Line: 6},
			vm.ArithmeticOp{Operation: vm.Eq, Line: 7},
			vm.ReturnOp{Line: 8},
		},
	}}

	codegen := vm.NewCodeGenerator(program, false)
	generated, err := codegen.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, stmt := range generated {
		if decl, ok := stmt.(asm.LabelDecl); ok {
			if seen[decl.Name] {
				t.Fatalf("label %q emitted twice", decl.Name)
			}
			seen[decl.Name] = true
		}
	}
	if !seen["Main.test$LOGIC0"] || !seen["Main.test$LOGIC1"] {
		t.Fatalf("expected two distinct per-function comparison labels, got %+v", seen)
	}
}

func TestPushPopSegments(t *testing.T) {
	test := func(name string, op vm.MemoryOp, wantFirst asm.Statement) {
		t.Run(name, func(t *testing.T) {
			program := vm.Program{{Name: "Test", Operations: []vm.Operation{op}}}
			codegen := vm.NewCodeGenerator(program, false)
			generated, err := codegen.Generate()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if generated[0] != wantFirst {
				t.Fatalf("expected first statement %+v, got %+v", wantFirst, generated[0])
			}
		})
	}

	test("push constant", vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 42, Line: 1},
		asm.AInstruction{Location: "42"})
	test("push static", vm.MemoryOp{Operation: vm.Push, Segment: vm.Static, Offset: 3, Line: 1},
		asm.AInstruction{Location: "Test.3"})
	test("push pointer 0", vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0, Line: 1},
		asm.AInstruction{Location: "3"})
	test("push temp 2", vm.MemoryOp{Operation: vm.Push, Segment: vm.Temp, Offset: 2, Line: 1},
		asm.AInstruction{Location: "7"})
	test("push local 0", vm.MemoryOp{Operation: vm.Push, Segment: vm.Local, Offset: 0, Line: 1},
		asm.AInstruction{Location: "LCL"})

	t.Run("pop into constant fails", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.MemoryOp{Operation: vm.Pop, Segment: vm.Constant, Offset: 0, Line: 1},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		if _, err := codegen.Generate(); err == nil {
			t.Fatal("expected an error popping into 'constant'")
		}
	})

	t.Run("pointer offset out of range fails", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 2, Line: 1},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		if _, err := codegen.Generate(); err == nil {
			t.Fatal("expected an error for out-of-range 'pointer' offset")
		}
	})

	t.Run("local offset beyond the shortcut stages through R13", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.MemoryOp{Operation: vm.Pop, Segment: vm.Local, Offset: 5, Line: 1},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		generated, err := codegen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		found := false
		for _, stmt := range generated {
			if a, ok := stmt.(asm.AInstruction); ok && a.Location == "R13" {
				found = true
			}
		}
		if !found {
			t.Fatal("expected R13 staging for a local offset > 1 pop")
		}
	})
}

func TestControlFlow(t *testing.T) {
	t.Run("label starting with a digit fails", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.LabelDecl{Name: "123LOOP", Line: 1},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		if _, err := codegen.Generate(); err == nil {
			t.Fatal("expected a digit-leading label to fail")
		}
	})

	t.Run("duplicate label fails", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.LabelDecl{Name: "LOOP", Line: 1},
			vm.LabelDecl{Name: "LOOP", Line: 2},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		if _, err := codegen.Generate(); err == nil {
			t.Fatal("expected a duplicate label to fail")
		}
	})

	t.Run("goto an undefined label fails at close", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.GotoOp{Jump: vm.Goto, Label: "NOWHERE", Line: 1},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		if _, err := codegen.Generate(); err == nil {
			t.Fatal("expected goto to an undefined label to fail")
		}
	})

	t.Run("operations outside any function use an implicit top-level scope", func(t *testing.T) {
		// Mirrors bare VM fixtures like SimpleAdd.vm/BasicLoop.vm: no enclosing 'function'.
		program := vm.Program{{
			Name: "BasicLoop",
			Operations: []vm.Operation{
				vm.LabelDecl{Name: "LOOP", Line: 1},
				vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1, Line: 2},
				vm.GotoOp{Jump: vm.Goto, Label: "LOOP", Line: 3},
			},
		}}
		codegen := vm.NewCodeGenerator(program, false)
		generated, err := codegen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found := false
		for _, stmt := range generated {
			if decl, ok := stmt.(asm.LabelDecl); ok && decl.Name == "BasicLoop$LOOP" {
				found = true
			}
		}
		if !found {
			t.Fatal("expected the label to be namespaced by the file prefix outside of a function")
		}
	})
}

func TestFunctionCallConvention(t *testing.T) {
	t.Run("call to an undefined function fails", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.FuncCallOp{Name: "Ghost.run", NArgs: 0, Line: 1},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		if _, err := codegen.Generate(); err == nil {
			t.Fatal("expected a call to an undefined function to fail")
		}
	})

	t.Run("function prologue pushes NLocals zeroed locals", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.FuncDecl{Name: "Test.run", NLocals: 2, Line: 1},
			vm.ReturnOp{Line: 2},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		generated, err := codegen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decl, ok := generated[0].(asm.LabelDecl); !ok || decl.Name != "Test.run" {
			t.Fatalf("expected function entry label first, got %+v", generated[0])
		}
		zeroes := 0
		for _, stmt := range generated {
			if stmt == (asm.AInstruction{Location: "0"}) {
				zeroes++
			}
		}
		if zeroes != 2 {
			t.Fatalf("expected 2 zeroed locals pushed, got %d", zeroes)
		}
	})

	t.Run("return outside a function fails", func(t *testing.T) {
		program := vm.Program{{Name: "Test", Operations: []vm.Operation{
			vm.ReturnOp{Line: 1},
		}}}
		codegen := vm.NewCodeGenerator(program, false)
		if _, err := codegen.Generate(); err == nil {
			t.Fatal("expected a top-level 'return' to fail")
		}
	})

	t.Run("bootstrap emits SP=256 then calls Sys.init", func(t *testing.T) {
		program := vm.Program{{Name: "Sys", Operations: []vm.Operation{
			vm.FuncDecl{Name: "Sys.init", NLocals: 0, Line: 1},
			vm.ReturnOp{Line: 2},
		}}}
		codegen := vm.NewCodeGenerator(program, true)
		generated, err := codegen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if generated[0] != (asm.AInstruction{Location: "256"}) {
			t.Fatalf("expected bootstrap to start with @256, got %+v", generated[0])
		}
	})
}
