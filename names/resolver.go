// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package names

import (
	"fmt"
	"strconv"

	"github.com/aclements/go-eesi/ir"
)

// Warning records a recoverable degradation the resolver hit while
// walking the module (missing base for a GEP, an indirect call with
// no resolvable targets, and so on). Warnings are collected rather
// than logged, so callers can assert on them in tests; they are only
// available through Resolver.Warnings.
type Warning struct {
	Loc     ir.Location
	Message string
}

// Resolver assigns every ir.Value a stable VarName and tracks the
// memory model backing field-of-struct lookups. A Resolver is
// populated by a single-threaded pass over a Module (Run) and is
// read-only afterward, matching spec.md §5's "populated
// single-threaded...read-only during detectors".
type Resolver struct {
	names    map[*ir.Value]VarName
	instrIDs map[*ir.Instruction]int
	fnCounters map[string]int

	mem *memoryModel

	allocaCounter int
	localValues   map[*ir.Function]map[*ir.Value]bool
	functionsByName map[string]*ir.Function

	warnings []Warning
}

// NewResolver creates an empty resolver. Call Run once per module
// before querying.
func NewResolver() *Resolver {
	return &Resolver{
		names:       make(map[*ir.Value]VarName),
		instrIDs:    make(map[*ir.Instruction]int),
		fnCounters:  make(map[string]int),
		mem:         newMemoryModel(),
		localValues: make(map[*ir.Function]map[*ir.Value]bool),
	}
}

// Warnings returns the warnings accumulated by Run.
func (r *Resolver) Warnings() []Warning { return r.warnings }

func (r *Resolver) warn(loc ir.Location, format string, args ...any) {
	r.warnings = append(r.warnings, Warning{Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// Run performs the single-threaded module walk that assigns names to
// every global, argument, and instruction result in m.
func (r *Resolver) Run(m *ir.Module) {
	r.functionsByName = make(map[string]*ir.Function, len(m.Functions))
	for _, fn := range m.Functions {
		r.functionsByName[fn.IRName] = fn
	}
	for _, g := range m.Globals {
		r.nameGlobal(g)
	}
	for _, fn := range m.Functions {
		r.nameArgs(fn)
		local := make(map[*ir.Value]bool)
		r.localValues[fn] = local
		for _, arg := range fn.Args {
			local[arg] = true
		}
		for _, bb := range fn.Blocks {
			for _, inst := range bb.Instructions {
				r.stackName(inst) // assigns/caches the per-instruction id
				if inst.Result != nil {
					local[inst.Result] = true
				}
				r.visit(inst)
			}
		}
	}
}

func (r *Resolver) nameGlobal(g *ir.Global) {
	if g.Name == "" || g.UnnamedAddr || g.IsNullPointer || !g.IsPointerOrInt {
		return
	}
	v := &ir.Value{Name: g.Name}
	r.names[v] = NewInt(g.Name, ScopeGlobal, nil)
}

func (r *Resolver) nameArgs(fn *ir.Function) {
	for _, arg := range fn.Args {
		r.names[arg] = NewInt(ArgName(fn.IRName, arg.Name), ScopeGlobal, nil)
	}
}

// Of returns the stable VarName Run assigned to val. It is a pure
// lookup: a value Run never named (e.g. a constant) yields Empty.
func (r *Resolver) Of(val *ir.Value) VarName {
	if val == nil {
		return Empty
	}
	if v, ok := r.names[val]; ok {
		return v
	}
	return Empty
}

// setName idempotently assigns name to val the first time it's seen;
// later visits never shadow an already-assigned name, matching the
// "repeated calls return the same object" contract (Of is a pure
// lookup; assignment only ever happens once, during Run).
func (r *Resolver) setName(val *ir.Value, name VarName) {
	if val == nil {
		return
	}
	if _, ok := r.names[val]; ok {
		return
	}
	r.names[val] = name
}

// StackName returns "functionName.N", stable across repeated queries
// for the same instruction. Instruction 0 within a function's
// namespace is reserved for the function's entry alias (CallName);
// real instructions are numbered starting at 1 in the order Run
// visits them.
func (r *Resolver) StackName(inst *ir.Instruction) string {
	id, ok := r.instrIDs[inst]
	if !ok {
		id = r.stackName(inst)
	}
	return fmt.Sprintf("%s.%d", inst.Block.Function.IRName, id)
}

func (r *Resolver) stackName(inst *ir.Instruction) int {
	if id, ok := r.instrIDs[inst]; ok {
		return id
	}
	fnName := inst.Block.Function.IRName
	r.fnCounters[fnName]++
	id := r.fnCounters[fnName]
	r.instrIDs[inst] = id
	return id
}

// BBNames returns the (entry, exit) stack names of block b, derived
// from the StackName of its first instruction with bbe/bbx suffixes.
func (r *Resolver) BBNames(b *ir.BasicBlock) (entry, exit string) {
	if len(b.Instructions) == 0 {
		return "", ""
	}
	base := r.StackName(b.Instructions[0])
	return base + ".bbe", base + ".bbx"
}

// CallName is the fixed "functionName.0" alias for fn's entry vertex.
// CallName("main") is additionally treated as the ICFG entry.
func CallName(fn *ir.Function) string {
	return fn.IRName + ".0"
}

// MainEntryName is the synthetic ICFG entry vertex name.
const MainEntryName = "main.0"

// LocalValues returns the set of Values semantically local to fn
// (its arguments and every instruction result defined within it).
func (r *Resolver) LocalValues(fn *ir.Function) map[*ir.Value]bool {
	return r.localValues[fn]
}

// ApproxName derives a Memory VarName from the struct type at the
// base of a field-address instruction, usable as a fallback key when
// no concrete base name is available.
func (r *Resolver) ApproxName(gep *ir.Instruction) VarName {
	if gep.GEPStructType == "" {
		return Empty
	}
	return NewMemory(MemoryName{Base: "~" + gep.GEPStructType, Idx1: strconv.Itoa(indexOf(gep))})
}

func indexOf(gep *ir.Instruction) int {
	// The field index is carried as GEPIndex1 when concrete;
	// ApproxName is only reached when it's not, so fall back to
	// the instruction's position as a stable (if coarse) key.
	return gep.Index
}

// LoadIndex returns the MemoryName used to resolve a field-load, if
// value is such a load and its key is known.
func (r *Resolver) LoadIndex(val *ir.Value) (MemoryName, bool) {
	inst := val.Def
	if inst == nil || inst.Opcode != ir.OpLoad {
		return MemoryName{}, false
	}
	return r.loadKey(inst)
}

func (r *Resolver) loadKey(load *ir.Instruction) (MemoryName, bool) {
	addr := load.Operands[0]
	if addr.Def == nil || addr.Def.Opcode != ir.OpGEP {
		return MemoryName{}, false
	}
	return r.gepKey(addr.Def)
}

func (r *Resolver) gepKey(gep *ir.Instruction) (MemoryName, bool) {
	if gep.GEPBase == "" {
		return MemoryName{}, false
	}
	return MemoryName{Base: gep.GEPBase, Idx1: gep.GEPIndex1, Idx2: gep.GEPIndex2}, true
}

// visit applies the naming rules of spec.md §4.3 to one instruction.
func (r *Resolver) visit(inst *ir.Instruction) {
	switch inst.Opcode {
	case ir.OpDebugDeclare:
		// Overrides any synthesized local name with fn#var.
		target := inst.Operands[0]
		name := NewInt(inst.Block.Function.IRName+"#"+inst.DeclareVarName, ScopeLocal, inst.Block.Function)
		r.names[target] = name

	case ir.OpAlloca:
		if _, ok := r.names[inst.Result]; !ok {
			r.allocaCounter++
			r.setName(inst.Result, NewInt(fmt.Sprintf("cabs2cil_%d", r.allocaCounter), ScopeLocal, inst.Block.Function))
		}

	case ir.OpStore:
		r.visitStore(inst)

	case ir.OpLoad:
		r.visitLoad(inst)

	case ir.OpPhi, ir.OpSelect:
		vs := make([]VarName, len(inst.Operands))
		for i, op := range inst.Operands {
			vs[i] = r.Of(op)
		}
		r.setName(inst.Result, NewMulti(vs...))

	case ir.OpCall:
		r.visitCall(inst)

	case ir.OpBinOp:
		r.setName(inst.Result, NewErrorCode("OK"))
	}
}

func (r *Resolver) visitStore(inst *ir.Instruction) {
	s, addr := inst.Operands[0], inst.Operands[1]

	if addr.Def != nil && addr.Def.Opcode == ir.OpGEP {
		key, ok := r.gepKey(addr.Def)
		if !ok {
			r.warn(inst.Loc, "store to GEP with unresolved base")
		} else {
			r.mem.merge(key, r.Of(s))
		}
	}

	if len(inst.StoredGlobalStruct) > 0 {
		for _, field := range inst.StoredGlobalStruct {
			key := MemoryName{Base: addr.Name, Idx1: strconv.Itoa(field.FieldIndex)}
			r.mem.set(key, NewErrorCode(field.ConstName))
		}
	}

	if inst.StoredFunctionName != "" {
		var key MemoryName
		var known bool
		if addr.Def != nil && addr.Def.Opcode == ir.OpGEP {
			key, known = r.gepKey(addr.Def)
			if !known {
				v := r.ApproxName(addr.Def)
				if v.Kind == KindMemory {
					key, known = v.Mem, true
				}
			}
		}
		if known {
			if fn, ok := r.functionsByName[inst.StoredFunctionName]; ok {
				r.mem.merge(key, NewFunction(fn))
			}
		}
	}
}

func (r *Resolver) visitLoad(inst *ir.Instruction) {
	from := inst.Operands[0]
	if from.Def != nil && from.Def.Opcode == ir.OpGEP {
		key, ok := r.gepKey(from.Def)
		if !ok {
			if v := r.ApproxName(from.Def); v.Kind == KindMemory {
				key, ok = v.Mem, true
			}
		}
		if ok {
			if v, found := r.mem.get(key); found {
				r.setName(inst.Result, v)
				return
			}
		}
		r.warn(inst.Loc, "load from GEP with unknown memory key")
		r.setName(inst.Result, Empty)
		return
	}

	r.setName(inst.Result, r.Of(from))
}

func (r *Resolver) visitCall(inst *ir.Instruction) {
	if inst.IsIndirectCall || len(inst.Callees) > 1 {
		var exchanges []VarName
		for _, callee := range inst.Callees {
			exchanges = append(exchanges, NewErrorCode(FunctionExchangeName(callee.IRName)))
		}
		if len(exchanges) == 0 {
			r.warn(inst.Loc, "indirect call with no resolvable targets")
			r.setName(inst.Result, Empty)
			return
		}
		r.setName(inst.Result, NewMulti(exchanges...))
		return
	}
	if len(inst.Callees) == 1 {
		r.setName(inst.Result, NewErrorCode(FunctionExchangeName(inst.Callees[0].IRName)))
		return
	}
	r.setName(inst.Result, Empty)
}
