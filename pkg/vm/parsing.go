package vm

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & operation of the Vm language.
//
// As in pkg/asm, each combinator is re-applied to a single already-stripped source line rather
// than to the whole file (requires per-raw-line tracking); every top-level alternative ends
// in 'pc.End()' so a line is only accepted once it's consumed in full.
var ast = pc.NewAST("virtual_machine-line", 0)

var (
	// Parser combinator for a generic VM operation (MemoryOp, ArithmeticOp, ...)
	pOperation = ast.OrdChoice("operation", nil,
		pMemoryOp, pArithmeticOp, pLabelDecl, pGotoOp,
		pFuncDecl, pFunCallOp, pReturnOp,
	)

	// Memory operation, compliant with the following syntax: "{push|pop} {segment} {index}"
	pMemoryOp = ast.And("memory_op", nil, pMemOpType, pSegment, pc.Int(), pc.End())
	// Arithmetic operation, could either be binary or unary (modifies only the Stack Pointer)
	pArithmeticOp = ast.And("arithmetic_op", nil, pArithOpType, pc.End())

	// Label declaration, compliant with the following syntax: "label {symbol}"
	pLabelDecl = ast.And("label_decl", nil, pc.Atom("label", "LABEL"), pIdent, pc.End())
	// Jump operation, compliant with the following syntax: "{if-goto|goto} {symbol}"
	pGotoOp = ast.And("goto_op", nil, pJumpType, pIdent, pc.End())

	// Function declaration, compliant with the following syntax: "function {name} {n_locals}"
	pFuncDecl = ast.And("func_decl", nil, pc.Atom("function", "FUNC"), pIdent, pc.Int(), pc.End())
	// Function call operation, compliant with the following syntax: "call {name} {n_args}"
	pFunCallOp = ast.And("func_call", nil, pc.Atom("call", "CALL"), pIdent, pc.Int(), pc.End())
	// Return operation, compliant with the following syntax: "return"
	pReturnOp = ast.And("return_op", nil, pc.Atom("return", "RETURN"), pc.End())
)

var (
	// Generic Identifier parser (for label and function declaration)
	// NOTE: An ident can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: An ident cannot begin with a leading digit (a symbol is indeed allowed).
	pIdent = pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "IDENT")

	// Available memory operation type (only push and pop since it's stack based)
	pMemOpType = ast.OrdChoice("mem_op_type", nil, pc.Atom("push", "PUSH"), pc.Atom("pop", "POP"))
	// Available heap segments (they act as registers and are used alongside the stack)
	pSegment = ast.OrdChoice("mem_segment", nil,
		pc.Atom("argument", "ARGUMENT"), pc.Atom("local", "LOCAL"),
		pc.Atom("static", "STATIC"), pc.Atom("constant", "CONSTANT"),
		pc.Atom("this", "THIS"), pc.Atom("that", "THAT"),
		pc.Atom("temp", "TEMP"), pc.Atom("pointer", "POINTER"),
	)

	// Available arithmetic operation types
	pArithOpType = ast.OrdChoice("operations", nil,
		pc.Atom("eq", "EQ"), pc.Atom("gt", "GT"), pc.Atom("lt", "LT"),
		pc.Atom("add", "ADD"), pc.Atom("sub", "SUB"), pc.Atom("neg", "NEG"),
		pc.Atom("not", "NOT"), pc.Atom("and", "AND"), pc.Atom("or", "OR"),
	)

	// Jump types can either be conditional (if-goto) or unconditional (goto).
	pJumpType = ast.OrdChoice("jump_type", nil, pc.Atom("goto", "GOTO"), pc.Atom("if-goto", "IF-GOTO"))
)

// ----------------------------------------------------------------------------
// Vm Parser

// Parser is a forward-only, line-at-a-time reader over a VM source, mirroring
// asm.Parser: comments are stripped and surrounding whitespace trimmed, but (unlike the
// Assembler) internal whitespace between tokens is kept, collapsed to single spaces, since
// VM commands are space-delimited ("push constant 7").
type Parser struct {
	scanner *bufio.Scanner
	line    int
}

// NewParser returns a Parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{scanner: bufio.NewScanner(r)}
}

// Parse drains the whole source into a flat list of Operations.
func (p *Parser) Parse() ([]Operation, error) {
	ops := []Operation{}

	for {
		op, ok, err := p.advance()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ops = append(ops, op)
	}

	return ops, nil
}

// advance reads lines until a non-empty command remains, then parses that single command.
func (p *Parser) advance() (Operation, bool, error) {
	for p.scanner.Scan() {
		p.line++

		command := stripComment(p.scanner.Text())
		if command == "" {
			continue
		}

		op, err := p.FromLine(command, p.line)
		return op, true, err
	}

	if err := p.scanner.Err(); err != nil {
		return nil, false, diag.IOErrorf("reading VM source: %s", err)
	}
	return nil, false, nil
}

// stripComment removes a trailing '//...' comment (if any), trims the remainder, and
// collapses internal whitespace runs to single spaces.
func stripComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return strings.Join(strings.Fields(line), " ")
}

// FromLine parses a single already-stripped command into its Operation.
func (p *Parser) FromLine(command string, lineNo int) (Operation, error) {
	root, success := ast.Parsewith(pOperation, pc.NewScanner([]byte(command)))
	if !success || root == nil {
		return nil, diag.Errorf(lineNo, "malformed command %q", command)
	}

	switch root.GetName() {
	case "memory_op":
		return p.HandleMemoryOp(root, lineNo)
	case "arithmetic_op":
		return p.HandleArithmeticOp(root, lineNo)
	case "label_decl":
		return p.HandleLabelDecl(root, lineNo)
	case "goto_op":
		return p.HandleGotoOp(root, lineNo)
	case "func_decl":
		return p.HandleFuncDecl(root, lineNo)
	case "func_call":
		return p.HandleFuncCall(root, lineNo)
	case "return_op":
		return ReturnOp{Line: lineNo}, nil
	default:
		return nil, diag.Errorf(lineNo, "unrecognized command %q", command)
	}
}

// HandleMemoryOp converts a "memory_op" node to a MemoryOp.
func (Parser) HandleMemoryOp(node pc.Queryable, lineNo int) (Operation, error) {
	children := node.GetChildren()
	if len(children) < 3 {
		return nil, diag.Errorf(lineNo, "malformed push/pop command")
	}

	offset, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, diag.Errorf(lineNo, "invalid index %q", children[2].GetValue())
	}

	op := MemoryOp{
		Operation: OperationType(children[0].GetValue()),
		Segment:   SegmentType(children[1].GetValue()),
		Offset:    uint16(offset),
		Line:      lineNo,
	}
	if op.Segment == Constant && op.Operation == Pop {
		return nil, diag.Semanticf(lineNo, "cannot pop into the 'constant' segment")
	}
	return op, nil
}

// HandleArithmeticOp converts an "arithmetic_op" node to an ArithmeticOp.
func (Parser) HandleArithmeticOp(node pc.Queryable, lineNo int) (Operation, error) {
	children := node.GetChildren()
	if len(children) < 1 {
		return nil, diag.Errorf(lineNo, "malformed arithmetic command")
	}
	return ArithmeticOp{Operation: ArithOpType(children[0].GetValue()), Line: lineNo}, nil
}

// HandleLabelDecl converts a "label_decl" node to a LabelDecl.
func (Parser) HandleLabelDecl(node pc.Queryable, lineNo int) (Operation, error) {
	children := node.GetChildren()
	if len(children) < 2 {
		return nil, diag.Errorf(lineNo, "malformed label declaration")
	}
	return LabelDecl{Name: children[1].GetValue(), Line: lineNo}, nil
}

// HandleGotoOp converts a "goto_op" node to a GotoOp.
func (Parser) HandleGotoOp(node pc.Queryable, lineNo int) (Operation, error) {
	children := node.GetChildren()
	if len(children) < 2 {
		return nil, diag.Errorf(lineNo, "malformed goto/if-goto command")
	}
	return GotoOp{Jump: JumpType(children[0].GetValue()), Label: children[1].GetValue(), Line: lineNo}, nil
}

// HandleFuncDecl converts a "func_decl" node to a FuncDecl.
func (Parser) HandleFuncDecl(node pc.Queryable, lineNo int) (Operation, error) {
	children := node.GetChildren()
	if len(children) < 3 {
		return nil, diag.Errorf(lineNo, "malformed function declaration")
	}
	nLocals, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, diag.Errorf(lineNo, "invalid local count %q", children[2].GetValue())
	}
	return FuncDecl{Name: children[1].GetValue(), NLocals: uint16(nLocals), Line: lineNo}, nil
}

// HandleFuncCall converts a "func_call" node to a FuncCallOp.
func (Parser) HandleFuncCall(node pc.Queryable, lineNo int) (Operation, error) {
	children := node.GetChildren()
	if len(children) < 3 {
		return nil, diag.Errorf(lineNo, "malformed function call")
	}
	nArgs, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, diag.Errorf(lineNo, "invalid argument count %q", children[2].GetValue())
	}
	return FuncCallOp{Name: children[1].GetValue(), NArgs: uint16(nArgs), Line: lineNo}, nil
}
