package hack

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the Hack instruction set.
//
// We declare a shared 'Instruction' interface for both A and C instructions as well
// as defining some useful constants for runtime assertions during the codegen phase
// such as the address ceiling both Assembler passes enforce.

// Just used to put together A and C instructions struct, use type switch to disambiguate.
type Instruction interface{}

// A Hack program is just a flat sequence of (already lowered) A/C instructions.
type Program []Instruction

// Highest ROM/RAM address the Assembler is allowed to use: one below the 15-bit
// int16 max, leaving a word of headroom per the Assembler symbol table invariants.
const AddressCeiling uint16 = 32766

// ----------------------------------------------------------------------------
// A Instructions

// In memory representation of an A Instruction for the Hack architecture spec.
//
// The A instruction has only one functionality in the Hack computer, it instructs
// the CPU to load a specific memory address from the computer memory (this includes
// both the RAM as well as the memory mapped I/O such as Keyboard and Screen).
//
// The location can be expressed in multiple ways:
// - A raw memory address (e.g. 1, 2, 3)
// - A user defined label (e.g. LOOP, ADD, TEMP)
// - A built-in symbol from the Hack architecture spec (e.g. SP, THIS, THAT)
type AInstruction struct {
	LocType LocationType // The type of the location identified by 'LocName'
	LocName string       // A generic "payload" (the label/builtin/raw symbol)
	Line    int          // 1-based source line, carried for diagnostics
}

type LocationType uint8 // Enumeration for the different types of location (built-in, label, raw)

const (
	Raw     LocationType = 0 // Raw address literal (e.g. @2345, @8989)
	Label   LocationType = 1 // User-defined location w/ a user given name (e.g. @MAIN, @LOOP)
	BuiltIn LocationType = 2 // Predefined association per the Hack specs (@SCREEN, @KBD, @R1)
)

// ----------------------------------------------------------------------------
// C Instructions

// In memory representation of a C Instruction for the Hack architecture spec.
//
// The C instruction handles the computation side of the Hack computer, it instructs
// the CPU on what operation to execute and which register to use, also it allows to
// specify jump conditions to change the execution flow at runtime.
type CInstruction struct {
	Comp string // The 'computation' mnemonic, defines the calculation the CPU should perform
	Dest string // The 'destination' mnemonic, defines if/where the result should be saved
	Jump string // The 'jump' mnemonic, defines on what premise a jump to another instruction occurs
	Line int    // 1-based source line, carried for diagnostics
}

// ----------------------------------------------------------------------------
// Symbol table

// SymbolTable is a flat symbol-to-address mapping, pre-populated at construction
// with every predefined Hack symbol. The Assembler's two passes (pkg/asm)
// mutate the same table: pass 1 binds label declarations to ROM addresses, pass
// 2 allocates RAM addresses for newly-seen variables.
type SymbolTable struct {
	entries map[string]uint16
}

// NewSymbolTable returns a table pre-seeded with every predefined Hack symbol.
func NewSymbolTable() *SymbolTable {
	table := &SymbolTable{entries: make(map[string]uint16, len(PredefinedTable))}
	for symbol, address := range PredefinedTable {
		table.entries[symbol] = address
	}
	return table
}

// Lookup returns the address bound to symbol, if any.
func (st *SymbolTable) Lookup(symbol string) (uint16, bool) {
	address, found := st.entries[symbol]
	return address, found
}

// Contains reports whether symbol has already been bound to an address.
func (st *SymbolTable) Contains(symbol string) bool {
	_, found := st.entries[symbol]
	return found
}

// AddEntry binds symbol to address. Fails if the symbol is already bound: each
// symbol resolves to at most one address.
func (st *SymbolTable) AddEntry(symbol string, address uint16) error {
	if st.Contains(symbol) {
		return &DuplicateSymbolError{Symbol: symbol}
	}
	st.entries[symbol] = address
	return nil
}

// PredefinedTable maps every built-in Hack symbol to its fixed address.
var PredefinedTable = map[string]uint16{
	"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
	"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5,
	"R6": 6, "R7": 7, "R8": 8, "R9": 9, "R10": 10, "R11": 11,
	"R12": 12, "R13": 13, "R14": 14, "R15": 15,
	"SCREEN": 0x4000, "KBD": 0x6000,
}

// DuplicateSymbolError reports a second definition of an already-bound symbol.
type DuplicateSymbolError struct{ Symbol string }

func (e *DuplicateSymbolError) Error() string {
	return "symbol '" + e.Symbol + "' is already defined"
}
