package vm

import (
	"fmt"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
	"github.com/hmny-oss/n2t-toolchain/pkg/asm"
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes a 'vm.Program' and spits out its Assembler counterpart.
//
// This walks the program operation by operation, mirroring the per-line Parser, folding what
// would otherwise be two separate stages (lowering to asm.Instruction, then resolving symbols)
// into direct Assembler emission, since the VM layer never needs a symbol table of its own:
// every label it emits is already fully qualified by the time it reaches the Assembler.

// funcState is the CodeGenerator's per-function bookkeeping: reset on entry to a new function
// rather than recreated wholesale, so only the fields genuinely scoped to one function live
// here. The zero-named state ("") models the implicit top-level scope real VM fixtures use when
// operations appear outside of any declared function (e.g. SimpleAdd.vm, BasicLoop.vm).
type funcState struct {
	name          string
	labelsDefined map[string]int // label -> line defined
	gotosSeen     map[string]int // label -> line first referenced
	inferredArgs  uint16
	logicCounter  int
	callCounter   int
}

func newFuncState(name string) *funcState {
	return &funcState{name: name, labelsDefined: map[string]int{}, gotosSeen: map[string]int{}}
}

// callSite is an observed 'call' instruction, recorded for close-time arity validation.
type callSite struct {
	Callee string
	NArgs  uint16
	Line   int
}

// CodeGenerator is the stateful VM->ASM code writer. One instance spans every module of a
// program: the filename prefix changes per module (static-segment addressing) but function
// bookkeeping, the defined-functions map, and the call-site ledger persist across all of them.
type CodeGenerator struct {
	program       Program
	filePrefix    string
	current       *funcState
	definedFuncs  map[string]uint16 // name -> inferred parameter count, set when the function closes
	callSites     []callSite
	bootstrapInit bool // emit the SP=256 / call Sys.init 0 prologue before the first module
}

// NewCodeGenerator returns a CodeGenerator over p. withInit selects whether the directory-mode
// bootstrap prologue is emitted ahead of the first module; single-file translation passes false.
func NewCodeGenerator(p Program, withInit bool) *CodeGenerator {
	return &CodeGenerator{
		program:       p,
		current:       newFuncState(""),
		definedFuncs:  map[string]uint16{},
		bootstrapInit: withInit,
	}
}

// Generate walks every module's operations in order and returns the resulting Assembler
// program. Close-time validation runs once after the last module.
func (cg *CodeGenerator) Generate() (asm.Program, error) {
	out := asm.Program{}

	if cg.bootstrapInit {
		out = append(out, cg.writeInit()...)
	}

	for _, module := range cg.program {
		cg.filePrefix = module.Name

		for _, operation := range module.Operations {
			stmts, err := cg.dispatch(operation)
			if err != nil {
				return nil, err
			}
			out = append(out, stmts...)
		}
	}

	if err := cg.closeFunction(); err != nil {
		return nil, err
	}
	if err := cg.validateCalls(); err != nil {
		return nil, err
	}

	return out, nil
}

func (cg *CodeGenerator) dispatch(operation Operation) ([]asm.Statement, error) {
	switch op := operation.(type) {
	case MemoryOp:
		return cg.writeMemoryOp(op)
	case ArithmeticOp:
		return cg.writeArithmeticOp(op)
	case LabelDecl:
		return cg.writeLabel(op)
	case GotoOp:
		return cg.writeGoto(op)
	case FuncDecl:
		return cg.writeFunction(op)
	case FuncCallOp:
		return cg.writeCall(op)
	case ReturnOp:
		return cg.writeReturn(op)
	default:
		return nil, diag.Errorf(0, "unrecognized VM operation %T", operation)
	}
}

// ----------------------------------------------------------------------------
// Stack conventions

// pushD appends *SP=D, SP++ to the generated program.
func pushD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M+1"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
}

// popD appends SP--, D=*SP to the generated program.
func popD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}
}

// ----------------------------------------------------------------------------
// Arithmetic

func (cg *CodeGenerator) writeArithmeticOp(op ArithmeticOp) ([]asm.Statement, error) {
	switch op.Operation {
	case Neg:
		return unaryOp("-M"), nil
	case Not:
		return unaryOp("!M"), nil
	case Add:
		return binaryOp("D+M"), nil
	case And:
		return binaryOp("D&M"), nil
	case Or:
		return binaryOp("D|M"), nil
	case Sub:
		return binaryOp("M-D"), nil
	case Eq, Gt, Lt:
		return cg.comparisonOp(op), nil
	default:
		return nil, diag.Semanticf(op.Line, "unrecognized arithmetic operation %q", op.Operation)
	}
}

// unaryOp mutates the stack's top value in place (neg, not).
func unaryOp(comp string) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// binaryOp pops the top value into D, then combines it with the new top in place.
func binaryOp(comp string) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// comparisonOp implements eq/gt/lt: pre-store -1 (true) at the result slot, conditionally jump
// over the correction, otherwise overwrite with 0 (false). Each comparison gets its own
// function-qualified label so repeated comparisons in the same function don't collide.
func (cg *CodeGenerator) comparisonOp(op ArithmeticOp) []asm.Statement {
	jump := map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}[op.Operation]
	label := fmt.Sprintf("%s$LOGIC%d", cg.labelPrefix(), cg.current.logicCounter)
	cg.current.logicCounter++

	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.AInstruction{Location: label},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.LabelDecl{Name: label},
	}
}

// ----------------------------------------------------------------------------
// Push/pop by segment

var segmentBase = map[SegmentType]string{
	Argument: "ARG", Local: "LCL", This: "THIS", That: "THAT",
}

func (cg *CodeGenerator) writeMemoryOp(op MemoryOp) ([]asm.Statement, error) {
	if op.Segment == Argument && op.Offset+1 > cg.current.inferredArgs {
		cg.current.inferredArgs = op.Offset + 1
	}

	switch op.Segment {
	case Constant:
		return cg.pushConstant(op)
	case Static:
		return cg.memIndirectRaw(op, fmt.Sprintf("%s.%d", cg.filePrefix, op.Offset)), nil
	case Pointer:
		if op.Offset > 1 {
			return nil, diag.Rangef(op.Line, "'pointer' offset out of range, got %d", op.Offset)
		}
		return cg.memIndirectRaw(op, fmt.Sprintf("%d", 3+op.Offset)), nil
	case Temp:
		if op.Offset > 7 {
			return nil, diag.Rangef(op.Line, "'temp' offset out of range, got %d", op.Offset)
		}
		return cg.memIndirectRaw(op, fmt.Sprintf("%d", 5+op.Offset)), nil
	case Argument, Local, This, That:
		return cg.memBasePlusOffset(op, segmentBase[op.Segment]), nil
	default:
		return nil, diag.Semanticf(op.Line, "unrecognized segment %q", op.Segment)
	}
}

func (cg *CodeGenerator) pushConstant(op MemoryOp) ([]asm.Statement, error) {
	if op.Operation == Pop {
		return nil, diag.Semanticf(op.Line, "cannot pop into the 'constant' segment")
	}
	stmts := []asm.Statement{
		asm.AInstruction{Location: fmt.Sprint(op.Offset)},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	return append(stmts, pushD()...), nil
}

// memIndirectRaw handles the segments whose address is a plain A-instruction payload: a raw RAM
// address for pointer/temp, or a per-file symbolic static label.
func (cg *CodeGenerator) memIndirectRaw(op MemoryOp, location string) []asm.Statement {
	if op.Operation == Push {
		return append([]asm.Statement{
			asm.AInstruction{Location: location},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, pushD()...)
	}

	stmts := popD()
	return append(stmts, asm.AInstruction{Location: location}, asm.CInstruction{Dest: "M", Comp: "D"})
}

// memBasePlusOffset handles the argument/local/this/that segments, whose address is the base
// pointer register plus the offset. Offsets 0 and 1 take a shortcut that skips staging through
// R13; larger offsets must stage through it on pop, since popping to D clobbers A before the
// destination address computed from the base register can be used.
func (cg *CodeGenerator) memBasePlusOffset(op MemoryOp, base string) []asm.Statement {
	if op.Operation == Push {
		switch op.Offset {
		case 0:
			return append([]asm.Statement{
				asm.AInstruction{Location: base},
				asm.CInstruction{Dest: "A", Comp: "M"},
				asm.CInstruction{Dest: "D", Comp: "M"},
			}, pushD()...)
		case 1:
			return append([]asm.Statement{
				asm.AInstruction{Location: base},
				asm.CInstruction{Dest: "A", Comp: "M+1"},
				asm.CInstruction{Dest: "D", Comp: "M"},
			}, pushD()...)
		default:
			return append([]asm.Statement{
				asm.AInstruction{Location: base},
				asm.CInstruction{Dest: "D", Comp: "M"},
				asm.AInstruction{Location: fmt.Sprint(op.Offset)},
				asm.CInstruction{Dest: "A", Comp: "D+A"},
				asm.CInstruction{Dest: "D", Comp: "M"},
			}, pushD()...)
		}
	}

	switch op.Offset {
	case 0:
		return append(popD(), asm.AInstruction{Location: base}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"})
	case 1:
		return append(popD(), asm.AInstruction{Location: base}, asm.CInstruction{Dest: "A", Comp: "M+1"}, asm.CInstruction{Dest: "M", Comp: "D"})
	default:
		stage := []asm.Statement{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "D+A"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
		stage = append(stage, popD()...)
		return append(stage, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"})
	}
}

// ----------------------------------------------------------------------------
// Control flow

// labelPrefix namespaces a label/goto by the function it's declared in, falling back to the
// module's file prefix for operations outside any declared function.
func (cg *CodeGenerator) labelPrefix() string {
	if cg.current.name == "" {
		return cg.filePrefix
	}
	return cg.current.name
}

func (cg *CodeGenerator) writeLabel(op LabelDecl) ([]asm.Statement, error) {
	if len(op.Name) > 0 && op.Name[0] >= '0' && op.Name[0] <= '9' {
		return nil, diag.Errorf(op.Line, "label %q cannot start with a digit", op.Name)
	}
	if _, found := cg.current.labelsDefined[op.Name]; found {
		return nil, diag.Semanticf(op.Line, "duplicate label %q", op.Name)
	}
	cg.current.labelsDefined[op.Name] = op.Line

	qualified := fmt.Sprintf("%s$%s", cg.labelPrefix(), op.Name)
	return []asm.Statement{asm.LabelDecl{Name: qualified, Line: op.Line}}, nil
}

func (cg *CodeGenerator) writeGoto(op GotoOp) ([]asm.Statement, error) {
	if _, found := cg.current.gotosSeen[op.Label]; !found {
		cg.current.gotosSeen[op.Label] = op.Line
	}

	qualified := fmt.Sprintf("%s$%s", cg.labelPrefix(), op.Label)

	if op.Jump == Goto {
		return []asm.Statement{
			asm.AInstruction{Location: qualified},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	stmts := popD()
	return append(stmts, asm.AInstruction{Location: qualified}, asm.CInstruction{Comp: "D", Jump: "JNE"}), nil
}

// closeFunction validates the currently open function's goto/label discipline and, if it's
// named, records its inferred parameter count in definedFuncs for later call-site validation.
func (cg *CodeGenerator) closeFunction() error {
	for label, line := range cg.current.gotosSeen {
		if _, found := cg.current.labelsDefined[label]; !found {
			return diag.Semanticf(line, "label %q is never defined", label)
		}
	}
	if cg.current.name != "" {
		cg.definedFuncs[cg.current.name] = cg.current.inferredArgs
	}
	return nil
}

// ----------------------------------------------------------------------------
// Function prologue / epilogue

func (cg *CodeGenerator) writeFunction(op FuncDecl) ([]asm.Statement, error) {
	if err := cg.closeFunction(); err != nil {
		return nil, err
	}
	cg.current = newFuncState(op.Name)

	stmts := []asm.Statement{asm.LabelDecl{Name: op.Name, Line: op.Line}}
	for i := uint16(0); i < op.NLocals; i++ {
		stmts = append(stmts, asm.AInstruction{Location: "0"}, asm.CInstruction{Dest: "D", Comp: "A"})
		stmts = append(stmts, pushD()...)
	}
	return stmts, nil
}

func (cg *CodeGenerator) writeReturn(op ReturnOp) ([]asm.Statement, error) {
	if cg.current.name == "" {
		return nil, diag.Semanticf(op.Line, "'return' issued outside of a function")
	}

	restore := func(reg string) []asm.Statement {
		return []asm.Statement{
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: reg},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
	}

	// R13 holds the frame pointer (saved LCL), R14 the return address, both computed before the
	// return value overwrites ARG/SP, since that's the caller's own frame sliding into place.
	stmts := []asm.Statement{
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
	stmts = append(stmts, popD()...)
	stmts = append(stmts,
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)
	stmts = append(stmts, restore("THAT")...)
	stmts = append(stmts, restore("THIS")...)
	stmts = append(stmts, restore("ARG")...)
	stmts = append(stmts, restore("LCL")...)
	stmts = append(stmts,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
	return stmts, nil
}

func (cg *CodeGenerator) writeCall(op FuncCallOp) ([]asm.Statement, error) {
	cg.callSites = append(cg.callSites, callSite{Callee: op.Name, NArgs: op.NArgs, Line: op.Line})

	retLabel := fmt.Sprintf("%s$ret.%d", cg.labelPrefix(), cg.current.callCounter)
	cg.current.callCounter++

	stmts := []asm.Statement{asm.AInstruction{Location: retLabel}, asm.CInstruction{Dest: "D", Comp: "A"}}
	stmts = append(stmts, pushD()...)
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		stmts = append(stmts, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "D", Comp: "M"})
		stmts = append(stmts, pushD()...)
	}

	stmts = append(stmts,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(int(op.NArgs) + 5)}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: op.Name}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: retLabel, Line: op.Line},
	)
	return stmts, nil
}

// ----------------------------------------------------------------------------
// Initialization

// writeInit emits the directory-mode bootstrap: SP=256, then 'call Sys.init 0'.
func (cg *CodeGenerator) writeInit() []asm.Statement {
	stmts := []asm.Statement{
		asm.AInstruction{Location: "256"}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"},
	}
	call, _ := cg.writeCall(FuncCallOp{Name: "Sys.init", NArgs: 0})
	return append(stmts, call...)
}

// ----------------------------------------------------------------------------
// Close-time validation

// validateCalls checks every recorded call site against the functions actually defined in the
// program, rejecting calls to undeclared functions or calls that under-supply arguments the
// callee's body is observed to read from the argument segment.
func (cg *CodeGenerator) validateCalls() error {
	for _, site := range cg.callSites {
		declared, found := cg.definedFuncs[site.Callee]
		if !found {
			return diag.Semanticf(site.Line, "call to undefined function %q", site.Callee)
		}
		if site.NArgs < declared {
			return diag.Semanticf(site.Line, "call to %q passes %d argument(s), function reads at least %d", site.Callee, site.NArgs, declared)
		}
	}
	return nil
}
