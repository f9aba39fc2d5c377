package asm

import (
	"strconv"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
	"github.com/hmny-oss/n2t-toolchain/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// The Lowerer takes an 'asm.Program' and produces its 'hack.Program' counterpart plus the
// SymbolTable built along the way. This is pass 1 of the Assembler driver: every A/C
// command advances the ROM counter, every label declaration binds the current ROM counter to
// its name. Duplicate labels and ROM overflow fail immediately; RAM allocation for variables is
// left to hack.CodeGenerator (pass 2), which receives the table this pass produced.
type Lowerer struct{ program Program }

// NewLowerer returns a Lowerer over p.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Lower walks the program once, converting A/C instructions to their hack counterparts and
// binding every label to the ROM address it names.
func (l *Lowerer) Lower() (hack.Program, *hack.SymbolTable, error) {
	converted := hack.Program{}
	table := hack.NewSymbolTable()

	for _, asmInst := range l.program {
		switch tAsmInst := asmInst.(type) {
		case AInstruction:
			hackInst, err := l.HandleAInst(tAsmInst)
			if err != nil {
				return nil, nil, err
			}
			if uint16(len(converted)) > hack.AddressCeiling {
				return nil, nil, diag.Rangef(tAsmInst.Line, "program exceeds ROM ceiling of %d instructions", hack.AddressCeiling+1)
			}
			converted = append(converted, hackInst)

		case CInstruction:
			hackInst, err := l.HandleCInst(tAsmInst)
			if err != nil {
				return nil, nil, err
			}
			if uint16(len(converted)) > hack.AddressCeiling {
				return nil, nil, diag.Rangef(tAsmInst.Line, "program exceeds ROM ceiling of %d instructions", hack.AddressCeiling+1)
			}
			converted = append(converted, hackInst)

		case LabelDecl:
			if err := table.AddEntry(tAsmInst.Name, uint16(len(converted))); err != nil {
				return nil, nil, diag.Errorf(tAsmInst.Line, "%s", err)
			}

		default:
			return nil, nil, diag.Errorf(0, "unrecognized statement %T", asmInst)
		}
	}

	return converted, table, nil
}

// HandleAInst classifies an asm.AInstruction's payload into the Raw/BuiltIn/Label kind
// hack.AInstruction needs: a built-in symbol, a decimal literal, or a user label (resolved in
// pass 2).
func (Lowerer) HandleAInst(inst AInstruction) (hack.Instruction, error) {
	if _, found := hack.PredefinedTable[inst.Location]; found {
		return hack.AInstruction{LocType: hack.BuiltIn, LocName: inst.Location, Line: inst.Line}, nil
	}
	if _, err := strconv.ParseInt(inst.Location, 10, 32); err == nil {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location, Line: inst.Line}, nil
	}
	return hack.AInstruction{LocType: hack.Label, LocName: inst.Location, Line: inst.Line}, nil
}

// HandleCInst converts an asm.CInstruction to its hack.CInstruction counterpart. Comp is
// mandatory; Dest and Jump carry through whatever the parser saw, independently optional.
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" {
		return nil, diag.Errorf(inst.Line, "'comp' is mandatory in a C instruction")
	}
	return hack.CInstruction{Comp: inst.Comp, Dest: inst.Dest, Jump: inst.Jump, Line: inst.Line}, nil
}
