package jack_test

import (
	"testing"

	"github.com/hmny-oss/n2t-toolchain/pkg/jack"
)

func TestSymbolTableClassAndSubroutineScopes(t *testing.T) {
	st := jack.NewSymbolTable()

	if err := st.Define("x", "int", jack.Field, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Define("count", "int", jack.Static, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st.StartSubroutine()
	if err := st.Define("this", "Point", jack.Argument, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Define("sum", "int", jack.Local, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if kind := st.KindOf("x"); kind != jack.Field {
		t.Fatalf("expected 'x' to be Field, got %v", kind)
	}
	if kind := st.KindOf("sum"); kind != jack.Local {
		t.Fatalf("expected 'sum' to be Local, got %v", kind)
	}
	if idx, err := st.IndexOf("this", 0); err != nil || idx != 0 {
		t.Fatalf("expected 'this' at index 0, got %d, err %v", idx, err)
	}

	if st.VarCount(jack.Field) != 1 || st.VarCount(jack.Static) != 1 || st.VarCount(jack.Local) != 1 {
		t.Fatalf("unexpected var counts: field=%d static=%d local=%d", st.VarCount(jack.Field), st.VarCount(jack.Static), st.VarCount(jack.Local))
	}

	// StartSubroutine clears Argument/Local but not Static/Field.
	st.StartSubroutine()
	if st.KindOf("sum") != jack.None {
		t.Fatal("expected 'sum' to be cleared after StartSubroutine")
	}
	if st.KindOf("x") != jack.Field {
		t.Fatal("expected class-scope 'x' to survive StartSubroutine")
	}
	if st.VarCount(jack.Local) != 0 {
		t.Fatalf("expected Local counter reset to 0, got %d", st.VarCount(jack.Local))
	}
}

func TestSymbolTableDuplicateDefineFails(t *testing.T) {
	st := jack.NewSymbolTable()
	if err := st.Define("x", "int", jack.Field, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Define("x", "int", jack.Field, 2); err == nil {
		t.Fatal("expected a duplicate definition to fail")
	}
}

func TestSymbolTableSubroutineScopeShadowsClassScope(t *testing.T) {
	st := jack.NewSymbolTable()
	if err := st.Define("x", "int", jack.Field, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.StartSubroutine()
	if err := st.Define("x", "int", jack.Argument, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if kind := st.KindOf("x"); kind != jack.Argument {
		t.Fatalf("expected subroutine-scope 'x' to win, got %v", kind)
	}
}

func TestSymbolTableUnknownIdentifierFails(t *testing.T) {
	st := jack.NewSymbolTable()
	if _, err := st.TypeOf("missing", 1); err == nil {
		t.Fatal("expected TypeOf to fail for an undeclared identifier")
	}
	if _, err := st.IndexOf("missing", 1); err == nil {
		t.Fatal("expected IndexOf to fail for an undeclared identifier")
	}
	if st.KindOf("missing") != jack.None {
		t.Fatal("expected KindOf to return None for an undeclared identifier")
	}
}

func TestKindSegment(t *testing.T) {
	cases := map[jack.Kind]string{
		jack.Static: "static", jack.Field: "this", jack.Argument: "argument", jack.Local: "local",
	}
	for kind, want := range cases {
		if got := kind.Segment(); got != want {
			t.Fatalf("%v.Segment(): expected %q, got %q", kind, want, got)
		}
	}
}
