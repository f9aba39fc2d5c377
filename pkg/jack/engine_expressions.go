package jack

import "github.com/hmny-oss/n2t-toolchain/internal/diag"

// ----------------------------------------------------------------------------
// expression / term

// binOp describes how a binary operator symbol is emitted: either a single VM
// arithmetic command, or (for '*' and '/', which the Hack ALU has no op for) a
// call into the Math library.
type binOp struct {
	command string
	call    string
}

var binOps = map[string]binOp{
	"+": {command: "add"},
	"-": {command: "sub"},
	"&": {command: "and"},
	"|": {command: "or"},
	"<": {command: "lt"},
	">": {command: "gt"},
	"=": {command: "eq"},
	"*": {call: "Math.multiply"},
	"/": {call: "Math.divide"},
}

// compileExpression: '<term> (<binop> <term>)*', strictly left-associative with
// no precedence (explicit design note — this is per the Jack language spec
// and is not a bug to "fix").
func (ce *CompilationEngine) compileExpression() error {
	if ce.xml != nil {
		ce.xml.open("expression")
		defer ce.xml.close()
	}

	if err := ce.compileTerm(); err != nil {
		return err
	}

	for {
		t := ce.cur()
		if t.Type != SymbolTok {
			return nil
		}
		op, ok := binOps[t.Literal]
		if !ok {
			return nil
		}
		ce.advance()

		if err := ce.compileTerm(); err != nil {
			return err
		}
		if op.call != "" {
			if err := ce.writer.WriteCall(op.call, 2); err != nil {
				return err
			}
		} else if err := ce.writer.WriteArithmetic(op.command); err != nil {
			return err
		}
	}
}

// compileExpressionList compiles a possibly empty comma-separated expression
// list and returns how many expressions it contained.
func (ce *CompilationEngine) compileExpressionList() (uint16, error) {
	if ce.xml != nil {
		ce.xml.open("expressionList")
		defer ce.xml.close()
	}

	var count uint16
	if ce.isSymbol(")") {
		return 0, nil
	}
	for {
		if err := ce.compileExpression(); err != nil {
			return 0, err
		}
		count++

		if ce.isSymbol(",") {
			ce.advance()
			continue
		}
		return count, nil
	}
}

// compileTerm dispatches over every term form of the expression grammar.
func (ce *CompilationEngine) compileTerm() error {
	if ce.xml != nil {
		ce.xml.open("term")
		defer ce.xml.close()
	}

	t := ce.cur()
	switch {
	case t.Type == IntConstTok:
		ce.advance()
		return ce.writer.WritePush("constant", t.IntVal)

	case t.Type == StringConstTok:
		ce.advance()
		return ce.compileStringConst(t.Literal, t.Line)

	case t.Type == KeywordTok && t.Literal == "true":
		ce.advance()
		if err := ce.writer.WritePush("constant", 0); err != nil {
			return err
		}
		return ce.writer.WriteArithmetic("not")

	case t.Type == KeywordTok && (t.Literal == "false" || t.Literal == "null"):
		ce.advance()
		return ce.writer.WritePush("constant", 0)

	case t.Type == KeywordTok && t.Literal == "this":
		if ce.currentKind == FunctionSub {
			return diag.Semanticf(t.Line, "'this' referenced inside a function")
		}
		ce.advance()
		return ce.writer.WritePush("pointer", 0)

	case t.Type == SymbolTok && t.Literal == "(":
		ce.advance()
		if err := ce.compileExpression(); err != nil {
			return err
		}
		return ce.expectSymbol(")")

	case t.Type == SymbolTok && (t.Literal == "-" || t.Literal == "~"):
		ce.advance()
		if err := ce.compileTerm(); err != nil {
			return err
		}
		if t.Literal == "-" {
			return ce.writer.WriteArithmetic("neg")
		}
		return ce.writer.WriteArithmetic("not")

	case t.Type == IdentifierTok:
		return ce.compileIdentifierTerm()

	default:
		return diag.Errorf(t.Line, "unexpected token in expression: %s %q", t.Type, t.Literal)
	}
}

// compileStringConst: '≤32767'-char literal, built at runtime with String.new
// then one String.appendChar call per character.
func (ce *CompilationEngine) compileStringConst(s string, line int) error {
	if len(s) > maxIntConst {
		return diag.Rangef(line, "string constant exceeds maximum length %d", maxIntConst)
	}
	if err := ce.writer.WritePush("constant", uint16(len(s))); err != nil {
		return err
	}
	if err := ce.writer.WriteCall("String.new", 1); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		if err := ce.writer.WritePush("constant", uint16(s[i])); err != nil {
			return err
		}
		if err := ce.writer.WriteCall("String.appendChar", 2); err != nil {
			return err
		}
	}
	return nil
}

// compileIdentifierTerm handles every identifier-led term form: array access,
// a bare or qualified subroutine call, or a plain variable reference.
func (ce *CompilationEngine) compileIdentifierTerm() error {
	nameTok := ce.cur()
	name, err := ce.expectIdentifier()
	if err != nil {
		return err
	}

	switch {
	case ce.isSymbol("["):
		return ce.compileArrayAccess(name, nameTok.Line)
	case ce.isSymbol("(") || ce.isSymbol("."):
		return ce.compileCallTail(name, nameTok.Line, true)
	default:
		kind := ce.symbols.KindOf(name)
		if kind == None {
			return diag.Semanticf(nameTok.Line, "unknown identifier '%s'", name)
		}
		if err := ce.checkFieldAccess(kind, nameTok.Line); err != nil {
			return err
		}
		index, err := ce.symbols.IndexOf(name, nameTok.Line)
		if err != nil {
			return err
		}
		return ce.writer.WritePush(kind.Segment(), index)
	}
}

// compileArrayAccess: 'name[expr]' → push base address, add index, dereference
// through 'that'. name must be of declared type Array.
func (ce *CompilationEngine) compileArrayAccess(name string, line int) error {
	kind := ce.symbols.KindOf(name)
	if kind == None {
		return diag.Semanticf(line, "unknown identifier '%s'", name)
	}
	if err := ce.checkFieldAccess(kind, line); err != nil {
		return err
	}
	varType, err := ce.symbols.TypeOf(name, line)
	if err != nil {
		return err
	}
	if varType != "Array" {
		return diag.Semanticf(line, "'%s' is not of declared type Array", name)
	}
	index, err := ce.symbols.IndexOf(name, line)
	if err != nil {
		return err
	}

	ce.advance() // '['
	if err := ce.writer.WritePush(kind.Segment(), index); err != nil {
		return err
	}
	if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol("]"); err != nil {
		return err
	}
	if err := ce.writer.WriteArithmetic("add"); err != nil {
		return err
	}
	if err := ce.writer.WritePop("pointer", 1); err != nil {
		return err
	}
	return ce.writer.WritePush("that", 0)
}
