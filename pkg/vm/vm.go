package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for the
// language and we define some other useful top-level struct such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation units
// that can be also referenced as file or modules or also classes.
//
// Every operation carries the 1-based source line it was read from, for diagnostics raised
// both here and in the code writer.

// A VM Program is a set of multiple modules/files; in the VM spec each Jack class is
// translated to its own '.vm' file (just like a Java '.class' file), each handled as its
// own translation unit by the code writer, in filename order.
type Program []Module

// A VM Module is a named, linear list of VM operations, one per source '.vm' file. Name is
// the file's stem, used both for static-segment addressing and, trivially, for sorting.
type Module struct {
	Name       string
	Operations []Operation
}

// Used to put together all operation in the VM language (Memory, Arithmetic, ... ops).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operation on the stack.
// We could either push a new value taken from the specified segment location on the stack's
// top or take the stack's top and saves its value at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
	Line      int
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segment accessible for a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constant

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's argument

	This    SegmentType = "this"    // Virtual segment used to point to a specific memory location
	That    SegmentType = "that"    // Virtual segment used to point to a specific memory location
	Pointer SegmentType = "pointer" // Real segment w/ 2 location used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of a Arithmetic operation for the VM language.
//
// In the VM intermediate language there are just a handful of operation available.
// In particular each operation acts directly on the top of the stack, of course we have both unary
// and binary operation, the specific management of each op will be handled in the codegen phase.
type ArithmeticOp struct {
	Operation ArithOpType
	Line      int
}

type ArithOpType string // Enum to manage the operation allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Control flow & function operations

// LabelDecl declares a jump target, namespaced by the current function at codegen time.
type LabelDecl struct {
	Name string
	Line int
}

// JumpType distinguishes unconditional from conditional jumps.
type JumpType string

const (
	Goto   JumpType = "goto"
	IfGoto JumpType = "if-goto"
)

// GotoOp is either an unconditional or conditional jump to a label.
type GotoOp struct {
	Jump  JumpType
	Label string
	Line  int
}

// FuncDecl opens a function body, declaring how many locals it owns.
type FuncDecl struct {
	Name    string
	NLocals uint16
	Line    int
}

// FuncCallOp calls a (possibly not-yet-defined) function with nArgs already pushed.
type FuncCallOp struct {
	Name  string
	NArgs uint16
	Line  int
}

// ReturnOp returns from the current function.
type ReturnOp struct {
	Line int
}
