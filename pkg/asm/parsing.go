package asm

import (
	"bufio"
	"io"
	"strings"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & instruction of the Asm language.
//
// Unlike the whole-program grammar this package's teacher started from, each combinator here is
// re-applied to a single already-stripped source line (requires 1-based line tracking per
// raw line, including blank/comment lines, which a whole-file AST cannot give us for free). Every
// top level alternative ends in 'pc.End()' so a line is only accepted if it's consumed in full.
var ast = pc.NewAST("assembler-line", 0)

var (
	// Parser combinator for a single Assembler command line (A, C or label declaration)
	pLine = ast.OrdChoice("line", nil, pAInst, pLabelDecl, pCInst)

	// Parser combinator for A Instructions
	pAInst = ast.And("a-inst", nil, pc.Atom("@", "@"), pLabel, pc.End())
	// Parser combinator for new label declaration
	pLabelDecl = ast.And("label-decl", nil, pc.Atom("(", "("), pLabel, pc.Atom(")", ")"), pc.End())
	// Parser combinator for C Instructions
	pCInst = ast.And("c-inst", nil,
		ast.Maybe("maybe-assign", nil, ast.And("assign", nil, pDest, pc.Atom("=", "="))),
		pComp, // 'comp' should always be provided
		ast.Maybe("maybe-goto", nil, ast.And("goto", nil, pc.Atom(";", ";"), pJump)),
		pc.End(),
	)
)

var (
	// Generic label parser (A Instruction + Label declaration)
	// NOTE: A label can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: A label cannot begin with a leading digit (a symbol is indeed allowed).
	pLabel = ast.OrdChoice("label", nil, pc.Int(), pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "SYMBOL"))

	// Generic destination parser (C Instruction subsection)
	// NOTE: longer mnemonics are tried first, else the single-register atoms would shadow them.
	pDest = ast.OrdChoice("dest", nil,
		pc.Atom("AMD", "AMD"),
		pc.Atom("AM", "AM"), pc.Atom("AD", "AD"), pc.Atom("MD", "MD"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Generic computation parser (C Instruction subsection)
	// NOTE: longer mnemonics are tried first, else the constants/identities would shadow them.
	pComp = ast.OrdChoice("comp", nil,
		pc.Atom("D&A", "D&A"), pc.Atom("D&M", "D&M"),
		pc.Atom("D|A", "D|A"), pc.Atom("D|M", "D|M"),
		pc.Atom("D+A", "D+A"), pc.Atom("D+M", "D+M"),
		pc.Atom("D-A", "D-A"), pc.Atom("D-M", "D-M"),
		pc.Atom("A-D", "A-D"), pc.Atom("M-D", "M-D"),
		pc.Atom("D+1", "D+1"), pc.Atom("A+1", "A+1"), pc.Atom("M+1", "M+1"),
		pc.Atom("D-1", "D-1"), pc.Atom("A-1", "A-1"), pc.Atom("M-1", "M-1"),
		pc.Atom("!D", "!D"), pc.Atom("!A", "!A"), pc.Atom("!M", "!M"),
		pc.Atom("-D", "-D"), pc.Atom("-A", "-A"), pc.Atom("-M", "-M"),
		pc.Atom("0", "0"), pc.Atom("1", "1"), pc.Atom("-1", "-1"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Generic jump parser (C Instruction subsection)
	pJump = ast.OrdChoice("jump", nil,
		pc.Atom("JNE", "JNE"), pc.Atom("JEQ", "JEQ"),
		pc.Atom("JGT", "JGT"), pc.Atom("JGE", "JGE"),
		pc.Atom("JLT", "JLT"), pc.Atom("JLE", "JLE"),
		pc.Atom("JMP", "JMP"),
	)
)

// ----------------------------------------------------------------------------
// Asm Parser

// Parser is a forward-only, line-at-a-time reader over an Assembler source. advance
// strips comments and whitespace from one raw line at a time, so line numbers stay 1-based and
// count every raw line consumed, including blank and comment-only ones.
type Parser struct {
	scanner *bufio.Scanner
	line    int
}

// NewParser returns a Parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{scanner: bufio.NewScanner(r)}
}

// Parse drains the whole source into a Program, command by command.
func (p *Parser) Parse() (Program, error) {
	program := Program{}

	for {
		stmt, ok, err := p.advance()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		program = append(program, stmt)
	}

	return program, nil
}

// advance reads lines until a non-empty command remains (stripping '//' comments and all
// whitespace), then parses that single command. Returns ok=false once the source is exhausted.
func (p *Parser) advance() (Statement, bool, error) {
	for p.scanner.Scan() {
		p.line++

		command := stripComment(p.scanner.Text())
		if command == "" {
			continue
		}

		stmt, err := p.FromLine(command, p.line)
		return stmt, true, err
	}

	if err := p.scanner.Err(); err != nil {
		return nil, false, diag.IOErrorf("reading assembler source: %s", err)
	}
	return nil, false, nil
}

// stripComment removes a trailing '//...' comment (if any) then all whitespace from line.
func stripComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return strings.Join(strings.Fields(line), "")
}

// FromLine parses a single already-stripped command into its Statement, attaching lineNo for
// diagnostics raised both here and in later passes.
func (p *Parser) FromLine(command string, lineNo int) (Statement, error) {
	root, success := ast.Parsewith(pLine, pc.NewScanner([]byte(command)))
	if !success || root == nil {
		return nil, diag.Errorf(lineNo, "malformed command %q", command)
	}

	switch root.GetName() {
	case "a-inst":
		return p.HandleAInst(root, lineNo)
	case "label-decl":
		return p.HandleLabelDecl(root, lineNo)
	case "c-inst":
		return p.HandleCInst(root, lineNo)
	default:
		return nil, diag.Errorf(lineNo, "unrecognized command %q", command)
	}
}

// HandleAInst converts an "a-inst" node to an AInstruction.
func (Parser) HandleAInst(node pc.Queryable, lineNo int) (Statement, error) {
	symbol := node.GetChildren()[1]
	if symbol.GetName() != "INT" && symbol.GetName() != "SYMBOL" {
		return nil, diag.Errorf(lineNo, "expected token SYMBOL or INT, got %s", symbol.GetName())
	}
	return AInstruction{Location: symbol.GetValue(), Line: lineNo}, nil
}

// HandleLabelDecl converts a "label-decl" node to a LabelDecl.
func (Parser) HandleLabelDecl(node pc.Queryable, lineNo int) (Statement, error) {
	symbol := node.GetChildren()[1]
	if symbol.GetName() != "SYMBOL" {
		return nil, diag.Errorf(lineNo, "label '%s' cannot start with a digit", symbol.GetValue())
	}
	return LabelDecl{Name: symbol.GetValue(), Line: lineNo}, nil
}

// HandleCInst converts a "c-inst" node to a CInstruction. dest and jump are independently
// optional and may both be present on the same instruction.
func (Parser) HandleCInst(node pc.Queryable, lineNo int) (Statement, error) {
	children := node.GetChildren()
	if len(children) < 3 {
		return nil, diag.Errorf(lineNo, "malformed C instruction")
	}
	maybeAssign, comp, maybeGoto := children[0], children[1], children[2]

	inst := CInstruction{Comp: comp.GetValue(), Line: lineNo}

	if maybeAssign.GetName() == "assign" && len(maybeAssign.GetChildren()) == 2 {
		inst.Dest = maybeAssign.GetChildren()[0].GetValue()
	}
	if maybeGoto.GetName() == "goto" && len(maybeGoto.GetChildren()) == 2 {
		inst.Jump = maybeGoto.GetChildren()[1].GetValue()
	}

	return inst, nil
}
