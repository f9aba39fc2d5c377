package asm_test

import (
	"testing"

	"github.com/hmny-oss/n2t-toolchain/pkg/asm"
	"github.com/hmny-oss/n2t-toolchain/pkg/hack"
)

func TestLower(t *testing.T) {
	program := asm.Program{
		asm.AInstruction{Location: "16", Line: 1},
		asm.CInstruction{Comp: "A", Dest: "D", Line: 2},
		asm.LabelDecl{Name: "LOOP", Line: 3},
		asm.AInstruction{Location: "LOOP", Line: 4},
		asm.CInstruction{Comp: "0", Jump: "JMP", Line: 5},
	}

	lowerer := asm.NewLowerer(program)
	converted, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(converted) != 4 {
		t.Fatalf("expected 4 instructions (label decl emits none), got %d", len(converted))
	}

	addr, found := table.Lookup("LOOP")
	if !found || addr != 2 {
		t.Fatalf("expected LOOP bound to ROM address 2, got %d (found=%v)", addr, found)
	}

	aInst, ok := converted[0].(hack.AInstruction)
	if !ok || aInst.LocType != hack.Raw || aInst.LocName != "16" {
		t.Fatalf("expected Raw A instruction '16', got %+v", converted[0])
	}

	loopRef, ok := converted[1+1].(hack.AInstruction)
	if !ok || loopRef.LocType != hack.Label || loopRef.LocName != "LOOP" {
		t.Fatalf("expected Label A instruction 'LOOP', got %+v", converted[2])
	}
}

func TestLowerDuplicateLabelFails(t *testing.T) {
	program := asm.Program{
		asm.LabelDecl{Name: "LOOP", Line: 1},
		asm.LabelDecl{Name: "LOOP", Line: 2},
	}

	lowerer := asm.NewLowerer(program)
	if _, _, err := lowerer.Lower(); err == nil {
		t.Fatal("expected duplicate label to fail")
	}
}

func TestLowerBuiltInRecognized(t *testing.T) {
	program := asm.Program{asm.AInstruction{Location: "SCREEN", Line: 1}}

	lowerer := asm.NewLowerer(program)
	converted, _, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inst, ok := converted[0].(hack.AInstruction)
	if !ok || inst.LocType != hack.BuiltIn {
		t.Fatalf("expected BuiltIn A instruction, got %+v", converted[0])
	}
}
