package jack

import "github.com/hmny-oss/n2t-toolchain/internal/diag"

// ----------------------------------------------------------------------------
// Symbol table

// Kind is the finite set of variable kinds the symbol table tracks.
type Kind int

const (
	None Kind = iota
	Static
	Field
	Argument
	Local
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Field:
		return "field"
	case Argument:
		return "argument"
	case Local:
		return "local"
	default:
		return "none"
	}
}

// Segment maps a variable Kind onto the VM memory segment it's addressed through
// ('<kindSeg>' table): Static→static, Field→this, Argument→argument, Local→local.
func (k Kind) Segment() string {
	switch k {
	case Static:
		return "static"
	case Field:
		return "this"
	case Argument:
		return "argument"
	case Local:
		return "local"
	default:
		return ""
	}
}

// maxVarCount is the per-kind counter ceiling, matching the assembler and
// Jack compiler's shared RAM address headroom.
const maxVarCount = 32766

// symbol is one entry of the symbol table: its declared type, kind and the
// index assigned to it within that kind's running counter.
type symbol struct {
	DataType string
	Kind     Kind
	Index    uint16
}

// SymbolTable is the two-level (class, subroutine) name→(type,kind,index) map
//. Argument and Local live in the subroutine-scope table and are cleared
// by StartSubroutine; Static and Field live in the class-scope table and persist
// for the life of the class.
type SymbolTable struct {
	class      map[string]symbol
	subroutine map[string]symbol

	staticCount, fieldCount, argCount, localCount uint16
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{class: map[string]symbol{}, subroutine: map[string]symbol{}}
}

// StartSubroutine resets the subroutine-scope table and its Argument/Local
// counters; the class-scope table and its counters are left untouched.
func (st *SymbolTable) StartSubroutine() {
	st.subroutine = map[string]symbol{}
	st.argCount, st.localCount = 0, 0
}

// Define enters name into the table appropriate for kind, assigning it the
// current counter value for that kind before incrementing it. Fails if name is
// already present in the target map, or the kind's counter would overflow.
func (st *SymbolTable) Define(name, dataType string, kind Kind, line int) error {
	target, counter := st.target(kind)
	if _, exists := target[name]; exists {
		return diag.Semanticf(line, "'%s' is already declared in this scope", name)
	}
	if *counter >= maxVarCount {
		return diag.Rangef(line, "too many '%s' variables declared (limit %d)", kind, maxVarCount)
	}

	target[name] = symbol{DataType: dataType, Kind: kind, Index: *counter}
	*counter++
	return nil
}

func (st *SymbolTable) target(kind Kind) (map[string]symbol, *uint16) {
	switch kind {
	case Static:
		return st.class, &st.staticCount
	case Field:
		return st.class, &st.fieldCount
	case Argument:
		return st.subroutine, &st.argCount
	case Local:
		return st.subroutine, &st.localCount
	default:
		panic("jack: Define called with Kind None")
	}
}

// lookup returns the entry for name, giving the subroutine-scope table priority
// over the class-scope one, and whether it was found at all.
func (st *SymbolTable) lookup(name string) (symbol, bool) {
	if sym, ok := st.subroutine[name]; ok {
		return sym, true
	}
	if sym, ok := st.class[name]; ok {
		return sym, true
	}
	return symbol{}, false
}

// KindOf returns the kind of name, or None if it isn't declared in either scope.
func (st *SymbolTable) KindOf(name string) Kind {
	sym, ok := st.lookup(name)
	if !ok {
		return None
	}
	return sym.Kind
}

// TypeOf returns the declared type of name; fails if name is undeclared.
func (st *SymbolTable) TypeOf(name string, line int) (string, error) {
	sym, ok := st.lookup(name)
	if !ok {
		return "", diag.Semanticf(line, "unknown identifier '%s'", name)
	}
	return sym.DataType, nil
}

// IndexOf returns the running-counter index assigned to name; fails if name is
// undeclared.
func (st *SymbolTable) IndexOf(name string, line int) (uint16, error) {
	sym, ok := st.lookup(name)
	if !ok {
		return 0, diag.Semanticf(line, "unknown identifier '%s'", name)
	}
	return sym.Index, nil
}

// VarCount returns the number of entries declared with the given kind.
func (st *SymbolTable) VarCount(kind Kind) uint16 {
	switch kind {
	case Static:
		return st.staticCount
	case Field:
		return st.fieldCount
	case Argument:
		return st.argCount
	case Local:
		return st.localCount
	default:
		return 0
	}
}
