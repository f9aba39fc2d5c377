package jack

import "github.com/hmny-oss/n2t-toolchain/internal/diag"

// ----------------------------------------------------------------------------
// statements

// compileStatements loops over 'let | do | if | while | return' until none match.
func (ce *CompilationEngine) compileStatements() error {
	if ce.xml != nil {
		ce.xml.open("statements")
		defer ce.xml.close()
	}

	for {
		switch {
		case ce.isKeyword("let"):
			if err := ce.compileLet(); err != nil {
				return err
			}
		case ce.isKeyword("do"):
			if err := ce.compileDo(); err != nil {
				return err
			}
		case ce.isKeyword("if"):
			if err := ce.compileIf(); err != nil {
				return err
			}
		case ce.isKeyword("while"):
			if err := ce.compileWhile(); err != nil {
				return err
			}
		case ce.isKeyword("return"):
			if err := ce.compileReturn(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// compileLet: 'let <name>[<expr>] = <expr> ;'.
func (ce *CompilationEngine) compileLet() error {
	if ce.xml != nil {
		ce.xml.open("letStatement")
		defer ce.xml.close()
	}
	ce.advance() // 'let'

	nameTok := ce.cur()
	name, err := ce.expectIdentifier()
	if err != nil {
		return err
	}
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

	if ce.isSymbol("[") {
		varType, err := ce.symbols.TypeOf(name, nameTok.Line)
		if err != nil {
			return err
		}
		if varType != "Array" {
			return diag.Semanticf(nameTok.Line, "'%s' is not of declared type Array", name)
		}
		ce.advance()
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

		if err := ce.expectSymbol("="); err != nil {
			return err
		}
		if err := ce.compileExpression(); err != nil {
			return err
		}
		if err := ce.expectSymbol(";"); err != nil {
			return err
		}

		if err := ce.writer.WritePop("temp", 0); err != nil {
			return err
		}
		if err := ce.writer.WritePop("pointer", 1); err != nil {
			return err
		}
		if err := ce.writer.WritePush("temp", 0); err != nil {
			return err
		}
		return ce.writer.WritePop("that", 0)
	}

	if err := ce.expectSymbol("="); err != nil {
		return err
	}
	if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol(";"); err != nil {
		return err
	}
	return ce.writer.WritePop(kind.Segment(), index)
}

// compileDo: 'do <subroutineCall> ;' — compiles the call, then discards its
// return value with 'pop temp 0'.
func (ce *CompilationEngine) compileDo() error {
	if ce.xml != nil {
		ce.xml.open("doStatement")
		defer ce.xml.close()
	}
	ce.advance() // 'do'

	if err := ce.compileSubroutineCall(); err != nil {
		return err
	}
	if err := ce.expectSymbol(";"); err != nil {
		return err
	}
	return ce.writer.WritePop("temp", 0)
}

// compileIf: 'if (expr) { S1 } (else { S2 })?'.
func (ce *CompilationEngine) compileIf() error {
	if ce.xml != nil {
		ce.xml.open("ifStatement")
		defer ce.xml.close()
	}
	ce.advance() // 'if'

	if err := ce.expectSymbol("("); err != nil {
		return err
	}
	if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol(")"); err != nil {
		return err
	}

	if err := ce.writer.WriteArithmetic("not"); err != nil {
		return err
	}
	elseLabel := ce.newLabel("IF")
	if err := ce.writer.WriteIfGoto(elseLabel); err != nil {
		return err
	}

	if err := ce.expectSymbol("{"); err != nil {
		return err
	}
	if err := ce.compileStatements(); err != nil {
		return err
	}
	if err := ce.expectSymbol("}"); err != nil {
		return err
	}

	if !ce.isKeyword("else") {
		return ce.writer.WriteLabel(elseLabel)
	}

	endLabel := ce.newLabel("IF")
	if err := ce.writer.WriteGoto(endLabel); err != nil {
		return err
	}
	if err := ce.writer.WriteLabel(elseLabel); err != nil {
		return err
	}

	ce.advance() // 'else'
	if err := ce.expectSymbol("{"); err != nil {
		return err
	}
	if err := ce.compileStatements(); err != nil {
		return err
	}
	if err := ce.expectSymbol("}"); err != nil {
		return err
	}

	return ce.writer.WriteLabel(endLabel)
}

// compileWhile: 'while (expr) { statements }'.
func (ce *CompilationEngine) compileWhile() error {
	if ce.xml != nil {
		ce.xml.open("whileStatement")
		defer ce.xml.close()
	}
	ce.advance() // 'while'

	topLabel := ce.newLabel("WHILE")
	endLabel := ce.newLabel("WHILE")
	if err := ce.writer.WriteLabel(topLabel); err != nil {
		return err
	}

	if err := ce.expectSymbol("("); err != nil {
		return err
	}
	if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol(")"); err != nil {
		return err
	}

	if err := ce.writer.WriteArithmetic("not"); err != nil {
		return err
	}
	if err := ce.writer.WriteIfGoto(endLabel); err != nil {
		return err
	}

	if err := ce.expectSymbol("{"); err != nil {
		return err
	}
	if err := ce.compileStatements(); err != nil {
		return err
	}
	if err := ce.expectSymbol("}"); err != nil {
		return err
	}

	if err := ce.writer.WriteGoto(topLabel); err != nil {
		return err
	}
	return ce.writer.WriteLabel(endLabel)
}

// compileReturn: void subroutines return without an expression; non-void return
// exactly one; constructors must return 'this' (a bare 'return;' in a constructor
// also returns 'this').
func (ce *CompilationEngine) compileReturn() error {
	if ce.xml != nil {
		ce.xml.open("returnStatement")
		defer ce.xml.close()
	}
	retTok := ce.cur()
	ce.advance() // 'return'

	if ce.currentKind == ConstructorSub {
		if !ce.isSymbol(";") {
			// 'return this;' is also accepted, spelled out as an ordinary expression;
			// any other returned expression is rejected.
			next := ce.pos + 1
			if !ce.isKeyword("this") || next >= len(ce.tokens) || ce.tokens[next].Type != SymbolTok || ce.tokens[next].Literal != ";" {
				return diag.Semanticf(retTok.Line, "constructor must return 'this'")
			}
			if err := ce.compileExpression(); err != nil {
				return err
			}
		} else {
			if err := ce.writer.WritePush("pointer", 0); err != nil {
				return err
			}
		}
		if err := ce.expectSymbol(";"); err != nil {
			return err
		}
		return ce.writer.WriteReturn()
	}

	if ce.currentReturn == "void" {
		if !ce.isSymbol(";") {
			return diag.Semanticf(retTok.Line, "void subroutine must return without an expression")
		}
		ce.advance() // ';'
		if err := ce.writer.WritePush("constant", 0); err != nil {
			return err
		}
		return ce.writer.WriteReturn()
	}

	if ce.isSymbol(";") {
		return diag.Semanticf(retTok.Line, "non-void subroutine must return an expression")
	}
	if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol(";"); err != nil {
		return err
	}
	return ce.writer.WriteReturn()
}

// checkFieldAccess enforces that 'field' may not be read or assigned inside a
// function (a subroutine with no bound object); the matching rule for 'this'
// is enforced by compileTerm.
func (ce *CompilationEngine) checkFieldAccess(kind Kind, line int) error {
	if ce.currentKind == FunctionSub && kind == Field {
		return diag.Semanticf(line, "'field' variable referenced inside a function")
	}
	return nil
}
