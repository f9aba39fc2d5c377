package jack

import "github.com/hmny-oss/n2t-toolchain/internal/diag"

// ----------------------------------------------------------------------------
// subroutine calls

// compileSubroutineCall reads a fresh leading identifier and compiles the call
// that follows it; used by the 'do' statement, which (unlike a term) can never
// be a bare variable reference or an array access.
func (ce *CompilationEngine) compileSubroutineCall() error {
	firstTok := ce.cur()
	first, err := ce.expectIdentifier()
	if err != nil {
		return err
	}
	return ce.compileCallTail(first, firstTok.Line, false)
}

// compileCallTail compiles a call given its already-consumed leading
// identifier: either 'first(' (a bare call on the current object) or
// 'first.name(' (qualified by a variable or a class name).
func (ce *CompilationEngine) compileCallTail(first string, firstLine int, inExpression bool) error {
	if ce.isSymbol("(") {
		return ce.emitCall(first, "", true, inExpression, firstLine)
	}
	if ce.isSymbol(".") {
		ce.advance()
		subTok := ce.cur()
		subName, err := ce.expectIdentifier()
		if err != nil {
			return err
		}
		return ce.emitCall(subName, first, false, inExpression, subTok.Line)
	}
	return diag.Errorf(firstLine, "expected a subroutine call after '%s'", first)
}

// emitCall compiles '(' <args> ')' and emits the receiver push (if any) and
// the 'call' command (dotted-call resolution rules), then records the
// call site for close-time validation when it targets the class
// currently being compiled — the only class this compilation unit has full
// knowledge of.
func (ce *CompilationEngine) emitCall(subName, qualifier string, bare bool, inExpression bool, line int) error {
	var calleeClass string
	var requireMethod, pushedReceiver bool

	switch {
	case bare:
		if ce.currentKind == FunctionSub {
			return diag.Semanticf(line, "implicit method call '%s' inside a function", subName)
		}
		if err := ce.writer.WritePush("pointer", 0); err != nil {
			return err
		}
		calleeClass, requireMethod, pushedReceiver = ce.className, true, true

	default:
		kind := ce.symbols.KindOf(qualifier)
		if kind != None {
			if err := ce.checkFieldAccess(kind, line); err != nil {
				return err
			}
			varType, err := ce.symbols.TypeOf(qualifier, line)
			if err != nil {
				return err
			}
			index, err := ce.symbols.IndexOf(qualifier, line)
			if err != nil {
				return err
			}
			if err := ce.writer.WritePush(kind.Segment(), index); err != nil {
				return err
			}
			calleeClass, requireMethod, pushedReceiver = varType, true, true
		} else {
			calleeClass, requireMethod, pushedReceiver = qualifier, false, false
		}
	}

	if err := ce.expectSymbol("("); err != nil {
		return err
	}
	argCount, err := ce.compileExpressionList()
	if err != nil {
		return err
	}
	if err := ce.expectSymbol(")"); err != nil {
		return err
	}

	nArgs := argCount
	if pushedReceiver {
		nArgs++
	}
	if err := ce.writer.WriteCall(calleeClass+"."+subName, nArgs); err != nil {
		return err
	}

	if calleeClass == ce.className {
		ce.calls = append(ce.calls, recordedCall{
			Name: subName, ArgCount: argCount, RequireMethod: requireMethod, InExpression: inExpression, Line: line,
		})
	}
	return nil
}
