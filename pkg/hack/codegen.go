package hack

import (
	"fmt"
	"strconv"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
)

// ----------------------------------------------------------------------------
// Code Generator (Assembler pass 2)

// CodeGenerator takes a Program of already-lowered hack.Instruction values and
// emits their binary counterparts. A SymbolTable built by pass 1 (label
// collection, see pkg/asm) is required to resolve Label-typed A instructions;
// this pass allocates RAM for any symbol pass 1 never saw (a variable).
type CodeGenerator struct {
	program    Program
	table      *SymbolTable
	nextRAM    uint16 // next free RAM address for a newly-seen variable
}

// NewCodeGenerator returns a CodeGenerator over p, resolving labels against st.
// RAM allocation for new variables starts at 0x0010 per the Assembler spec.
func NewCodeGenerator(p Program, st *SymbolTable) *CodeGenerator {
	return &CodeGenerator{program: p, table: st, nextRAM: 0x0010}
}

// Generate translates every instruction in the Program to its 16-character
// ASCII binary line, in order.
func (cg *CodeGenerator) Generate() ([]string, error) {
	lines := make([]string, 0, len(cg.program))

	for _, instruction := range cg.program {
		var line string
		var err error

		switch inst := instruction.(type) {
		case AInstruction:
			line, err = cg.generateA(inst)
		case CInstruction:
			line, err = cg.generateC(inst)
		default:
			err = fmt.Errorf("unrecognized instruction %T", instruction)
		}

		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// generateA resolves the A instruction's location to a 15-bit address and
// renders it as a 16-character binary line.
func (cg *CodeGenerator) generateA(inst AInstruction) (string, error) {
	var address uint16

	switch inst.LocType {
	case Raw:
		num, err := strconv.ParseInt(inst.LocName, 10, 32)
		if err != nil || num < 0 || num > int64(AddressCeiling) {
			return "", diag.Rangef(inst.Line, "address '%s' is out of range [0, %d]", inst.LocName, AddressCeiling)
		}
		address = uint16(num)

	case Label:
		resolved, found := cg.table.Lookup(inst.LocName)
		if !found {
			if cg.nextRAM > AddressCeiling {
				return "", diag.Rangef(inst.Line, "out of RAM while allocating variable '%s'", inst.LocName)
			}
			resolved = cg.nextRAM
			cg.nextRAM++
			// AddEntry cannot fail here: Lookup above already proved the symbol absent.
			_ = cg.table.AddEntry(inst.LocName, resolved)
		}
		address = resolved

	case BuiltIn:
		resolved, found := cg.table.Lookup(inst.LocName)
		if !found {
			return "", diag.Semanticf(inst.Line, "unresolved built-in symbol '%s'", inst.LocName)
		}
		address = resolved

	default:
		return "", diag.Semanticf(inst.Line, "unrecognized location type for '%s'", inst.LocName)
	}

	return fmt.Sprintf("%016b", EncodeA(address)), nil
}

// generateC decodes the dest/comp/jump mnemonics and renders the resulting
// 16-bit command as a 16-character binary line.
func (cg *CodeGenerator) generateC(inst CInstruction) (string, error) {
	dest, err := Dest(inst.Dest, inst.Line)
	if err != nil {
		return "", err
	}
	comp, err := Comp(inst.Comp, inst.Line)
	if err != nil {
		return "", err
	}
	jump, err := Jump(inst.Jump, inst.Line)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%016b", EncodeC(dest, comp, jump)), nil
}
