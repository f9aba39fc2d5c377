package jack

import "github.com/hmny-oss/n2t-toolchain/internal/diag"

// ----------------------------------------------------------------------------
// subroutineDec / subroutineBody

// compileSubroutineDec: '(constructor|function|method) (void|<type>) <name> ( <paramList> ) <body>'.
func (ce *CompilationEngine) compileSubroutineDec() error {
	if ce.xml != nil {
		ce.xml.open("subroutineDec")
		defer ce.xml.close()
	}

	kindTok := ce.cur()
	var kind subroutineKind
	switch kindTok.Literal {
	case "constructor":
		kind = ConstructorSub
	case "function":
		kind = FunctionSub
	case "method":
		kind = MethodSub
	}
	ce.advance()

	returnTypeTok := ce.cur()
	returnType, err := ce.parseReturnType()
	if err != nil {
		return err
	}
	if kind == ConstructorSub && returnType != ce.className {
		return diag.Semanticf(returnTypeTok.Line, "constructor '%s' must return '%s', got '%s'", ce.className, ce.className, returnType)
	}

	nameTok := ce.cur()
	name, err := ce.expectIdentifier()
	if err != nil {
		return err
	}

	ce.symbols.StartSubroutine()
	ce.labelCounter = 0
	ce.currentKind = kind
	ce.currentReturn = returnType

	if kind == MethodSub {
		// Implicitly bound as argument 0, ahead of any declared parameter.
		if err := ce.symbols.Define("this", ce.className, Argument, nameTok.Line); err != nil {
			return err
		}
	}

	if err := ce.expectSymbol("("); err != nil {
		return err
	}
	paramCount, err := ce.compileParameterList()
	if err != nil {
		return err
	}
	if err := ce.expectSymbol(")"); err != nil {
		return err
	}

	if _, exists := ce.defined[name]; exists {
		return diag.Semanticf(nameTok.Line, "subroutine '%s' already declared in class '%s'", name, ce.className)
	}
	ce.defined[name] = subroutineInfo{Kind: kind, ParamCount: paramCount, ReturnType: returnType, DeclaredAt: nameTok.Line}

	return ce.compileSubroutineBody(name, kind)
}

// compileParameterList: a possibly empty comma-separated '<type> <name>' list;
// each name enters the subroutine symbol table with kind Argument.
func (ce *CompilationEngine) compileParameterList() (uint16, error) {
	if ce.xml != nil {
		ce.xml.open("parameterList")
		defer ce.xml.close()
	}

	var count uint16
	if ce.isSymbol(")") {
		return 0, nil
	}

	for {
		dataType, err := ce.parseType()
		if err != nil {
			return 0, err
		}
		nameTok := ce.cur()
		name, err := ce.expectIdentifier()
		if err != nil {
			return 0, err
		}
		if err := ce.symbols.Define(name, dataType, Argument, nameTok.Line); err != nil {
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

// compileSubroutineBody: '{ <varDec>* <statements> }'. Emits 'function Name.sub
// <localCount>' once every local has been declared, then the constructor/method
// prologue, then the statement sequence.
func (ce *CompilationEngine) compileSubroutineBody(name string, kind subroutineKind) error {
	if ce.xml != nil {
		ce.xml.open("subroutineBody")
		defer ce.xml.close()
	}

	if err := ce.expectSymbol("{"); err != nil {
		return err
	}
	for ce.isKeyword("var") {
		if err := ce.compileVarDec(); err != nil {
			return err
		}
	}

	localCount := ce.symbols.VarCount(Local)
	if err := ce.writer.WriteFunction(ce.className+"."+name, localCount); err != nil {
		return err
	}

	switch kind {
	case ConstructorSub:
		fieldCount := ce.symbols.VarCount(Field)
		if fieldCount == 0 {
			fieldCount = 1
		}
		if err := ce.writer.WritePush("constant", fieldCount); err != nil {
			return err
		}
		if err := ce.writer.WriteCall("Memory.alloc", 1); err != nil {
			return err
		}
		if err := ce.writer.WritePop("pointer", 0); err != nil {
			return err
		}
	case MethodSub:
		if err := ce.writer.WritePush("argument", 0); err != nil {
			return err
		}
		if err := ce.writer.WritePop("pointer", 0); err != nil {
			return err
		}
	}

	if err := ce.compileStatements(); err != nil {
		return err
	}
	return ce.expectSymbol("}")
}

// compileVarDec: 'var <type> <name> (, <name>)* ;' — each name enters as Local.
func (ce *CompilationEngine) compileVarDec() error {
	if ce.xml != nil {
		ce.xml.open("varDec")
		defer ce.xml.close()
	}

	ce.advance() // 'var'
	dataType, err := ce.parseType()
	if err != nil {
		return err
	}

	for {
		nameTok := ce.cur()
		name, err := ce.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ce.symbols.Define(name, dataType, Local, nameTok.Line); err != nil {
			return err
		}

		if ce.isSymbol(",") {
			ce.advance()
			continue
		}
		break
	}

	return ce.expectSymbol(";")
}
