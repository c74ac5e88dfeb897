// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir defines the module-level object model that an external
// IR loader hands to the analyses in this repository. Parsing or
// producing this model (from LLVM bitcode or any other compiled
// representation) is explicitly out of scope here; ir only fixes the
// shape of the collaborator spec.md §6 describes.
package ir

// Location is a source location. Line == 0 means debug information is
// absent. Locations are totally ordered, lexicographically by file
// then line.
type Location struct {
	File string
	Line int
}

// Less gives the total order over Locations used to make violation
// lists deterministic under a serialized run.
func (l Location) Less(o Location) bool {
	if l.File != o.File {
		return l.File < o.File
	}
	return l.Line < o.Line
}

func (l Location) String() string {
	if l.Line == 0 {
		return l.File
	}
	return l.File + ":" + itoa(l.Line)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ErrorCodeTable maps a symbolic error-code name to its integer
// constant, as recorded by the compiler's debug info or a synonym
// table built alongside it.
type ErrorCodeTable map[string]int64

// Module is an entire translation unit's worth of compiled functions.
type Module struct {
	Name      string
	Functions []*Function
	Globals   []*Global

	// ModuleRoot, if set, is stripped as a common prefix before
	// computing a Function's top-level source folder for
	// GetGraphRequest.remove_cross_folder.
	ModuleRoot string
}

// Global is a module-level variable.
type Global struct {
	Name             string
	UnnamedAddr      bool
	IsNullPointer    bool
	IsPointerOrInt   bool
	StructLiteral    []GlobalField // non-nil iff this is a struct literal initializer
	InitFunctionName string        // non-empty iff initialized to the address of a function
}

// GlobalField is one field of a global struct literal initializer.
type GlobalField struct {
	FieldIndex int
	ConstName  string // symbolic name of the constant stored here
}

// Function is a single function definition or declaration.
type Function struct {
	// SourceName is the debug-info (demangled) name; empty if no
	// debug info names this function.
	SourceName string
	// IRName is the possibly-mangled name used as the call
	// target and as the stable per-module identity.
	IRName string

	IsDeclaration bool
	IsIntrinsic   bool
	ReturnIsVoid  bool

	Args   []*Value
	Blocks []*BasicBlock

	module *Module
}

func (f *Function) Module() *Module { return f.module }

// TopLevelFolder returns the first path segment of f's defining
// location after stripping the module root, or "" if unknown.
func (f *Function) TopLevelFolder() string {
	if len(f.Blocks) == 0 || len(f.Blocks[0].Instructions) == 0 {
		return ""
	}
	file := f.Blocks[0].Instructions[0].Loc.File
	if f.module != nil && f.module.ModuleRoot != "" {
		if len(file) > len(f.module.ModuleRoot) && file[:len(f.module.ModuleRoot)] == f.module.ModuleRoot {
			file = file[len(f.module.ModuleRoot):]
		}
	}
	for i := 0; i < len(file); i++ {
		if file[i] == '/' {
			return file[:i]
		}
	}
	return ""
}

// BasicBlock is a maximal straight-line sequence of instructions.
type BasicBlock struct {
	Index        int
	Instructions []*Instruction
	Preds, Succs []*BasicBlock
	Function     *Function
}

// Terminator returns the block's last instruction, or nil if empty.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// Opcode enumerates the instruction shapes the analyses care about.
// Anything else is Other.
type Opcode int

const (
	Other Opcode = iota
	OpAlloca
	OpLoad
	OpStore
	OpGEP          // getelementptr
	OpCall
	OpPhi
	OpSelect
	OpBinOp
	OpICmp
	OpBr           // unconditional branch
	OpCondBr       // conditional branch
	OpRet
	OpDebugDeclare // llvm.dbg.declare-style intrinsic
)

// Predicate is an icmp comparison predicate.
type Predicate int

const (
	PredNone Predicate = iota
	PredEQ
	PredNE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
)

// Swap returns the predicate that holds when its two operands are
// exchanged.
func (p Predicate) Swap() Predicate {
	switch p {
	case PredSLT:
		return PredSGT
	case PredSGT:
		return PredSLT
	case PredSLE:
		return PredSGE
	case PredSGE:
		return PredSLE
	}
	return p // EQ, NE, None are symmetric
}

func (p Predicate) String() string {
	switch p {
	case PredEQ:
		return "EQ"
	case PredNE:
		return "NE"
	case PredSLT:
		return "SLT"
	case PredSLE:
		return "SLE"
	case PredSGT:
		return "SGT"
	case PredSGE:
		return "SGE"
	}
	return "NONE"
}

// Value is an SSA-like value: either an Instruction result or a
// function argument.
type Value struct {
	Name string // empty for unnamed temporaries
	Def  *Instruction

	// Uses lists every instruction that reads this value as an
	// operand, populated by the external loader alongside Def. A
	// call instruction's Result with an empty Uses has a discarded
	// return value.
	Uses []*Instruction
}

// HasUses reports whether any instruction reads v.
func (v *Value) HasUses() bool { return len(v.Uses) > 0 }

// Instruction is one IR instruction, in a single basic block.
type Instruction struct {
	Opcode Opcode
	Block  *BasicBlock
	Index  int // position within Block.Instructions

	Loc Location

	Result *Value // nil for instructions without a result (store, br, ...)

	// Operands, interpreted per Opcode:
	//  Store:   Operands[0]=value stored, Operands[1]=address
	//  Load:    Operands[0]=address
	//  GEP:     Operands[0]=base
	//  ICmp:    Operands[0], Operands[1], Pred, ConstOperand (index of the
	//           constant operand if one side is a constant, else -1)
	//  CondBr:  Operands[0]=condition
	//  Ret:     Operands[0]=returned value (absent if void)
	//  Phi/Select: Operands = incoming values
	//  Call:    Operands = call arguments
	Operands []*Value

	Pred         Predicate
	ConstOperand int // index into Operands of the literal-int operand, or -1
	ConstValue   int64

	// Call-specific.
	Callees []*Function // possible callees; >1 for indirect calls
	IsIndirectCall bool

	// GEP-specific: the field-address key this instruction
	// addresses, when staticaly known (base name + two index
	// levels, per the memory model in spec.md §3/§4.3).
	GEPBase        string
	GEPIndex1      string
	GEPIndex2      string
	GEPStructType  string // for approx_name fallback

	// Global/struct-literal info for stores of file-scope data.
	StoredGlobalStruct []GlobalField
	StoredFunctionName string

	// DebugDeclare-specific: the surface-level variable name.
	DeclareVarName string

	// BinOp is tagged separately so the names pass can always
	// name its result the ErrorCode("OK") sentinel without
	// inspecting the specific operator.
}

// CondSuccs returns the (true, false) successor blocks of a
// conditional-branch terminator. It panics if the instruction is not
// OpCondBr.
func (i *Instruction) CondSuccs() (t, f *BasicBlock) {
	if i.Opcode != OpCondBr {
		panic("ir: CondSuccs of non-branch instruction")
	}
	b := i.Block
	return b.Succs[0], b.Succs[1]
}
