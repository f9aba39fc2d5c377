package jack

import "github.com/hmny-oss/n2t-toolchain/internal/diag"

// ----------------------------------------------------------------------------
// close-time class validation

// validateClass runs once, after the whole class has been read, so forward
// references to subroutines declared later in the file resolve correctly.
func (ce *CompilationEngine) validateClass() error {
	if ce.className == "Main" {
		info, ok := ce.defined["main"]
		if !ok || info.Kind != FunctionSub {
			return diag.Semanticf(0, "class 'Main' must define a function 'main'")
		}
	}

	for _, call := range ce.calls {
		info, ok := ce.defined[call.Name]
		if !ok {
			return diag.Semanticf(call.Line, "call to undefined subroutine '%s.%s'", ce.className, call.Name)
		}

		isMethod := info.Kind == MethodSub
		if call.RequireMethod && !isMethod {
			return diag.Semanticf(call.Line, "'%s.%s' is not a method but was called as one", ce.className, call.Name)
		}
		if !call.RequireMethod && isMethod {
			return diag.Semanticf(call.Line, "'%s.%s' is a method but was called as a function", ce.className, call.Name)
		}

		if call.ArgCount != info.ParamCount {
			return diag.Semanticf(call.Line, "'%s.%s' expects %d argument(s), got %d", ce.className, call.Name, info.ParamCount, call.ArgCount)
		}

		if call.InExpression && info.ReturnType == "void" {
			return diag.Semanticf(call.Line, "void subroutine '%s.%s' used inside an expression", ce.className, call.Name)
		}
	}

	return nil
}
