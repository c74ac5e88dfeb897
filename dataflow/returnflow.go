// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataflow implements the two intraprocedural analyses that
// feed the violation detectors: return-value propagation (which SSA
// values may flow to each value at each program point) and
// return-constraint propagation (what sign-lattice constraint holds
// on a callee's return value at each program point).
package dataflow

import (
	"github.com/aclements/go-eesi/ir"
)

// ValueSet is a set of ir.Values, used as the "may flow to" fact of
// ReturnFlow.
type ValueSet map[*ir.Value]bool

func (s ValueSet) clone() ValueSet {
	out := make(ValueSet, len(s))
	for v := range s {
		out[v] = true
	}
	return out
}

func (s ValueSet) union(o ValueSet) ValueSet {
	out := s.clone()
	for v := range o {
		out[v] = true
	}
	return out
}

func singleton(v *ir.Value) ValueSet { return ValueSet{v: true} }

// fact is a full per-instruction map<value, set<value>>.
type fact map[*ir.Value]ValueSet

func (f fact) clone() fact {
	out := make(fact, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (f fact) get(v *ir.Value) ValueSet {
	if s, ok := f[v]; ok {
		return s
	}
	return nil
}

func joinFacts(fs []fact) fact {
	out := fact{}
	for _, f := range fs {
		for k, v := range f {
			if existing, ok := out[k]; ok {
				out[k] = existing.union(v)
			} else {
				out[k] = v.clone()
			}
		}
	}
	return out
}

// ReturnFlow is the result of the forward must-may return-value
// propagation analysis for a single function: for every instruction,
// the set of values that may flow into each tracked binding by that
// point.
type ReturnFlow struct {
	in, out map[*ir.Instruction]fact
}

// RunReturnFlow computes ReturnFlow for fn.
func RunReturnFlow(fn *ir.Function) *ReturnFlow {
	rf := &ReturnFlow{
		in:  make(map[*ir.Instruction]fact),
		out: make(map[*ir.Instruction]fact),
	}
	if len(fn.Blocks) == 0 {
		return rf
	}

	blockIn := make(map[*ir.BasicBlock]fact, len(fn.Blocks))
	blockOut := make(map[*ir.BasicBlock]fact, len(fn.Blocks))

	worklist := append([]*ir.BasicBlock{}, fn.Blocks...)
	queued := make(map[*ir.BasicBlock]bool, len(fn.Blocks))
	for _, b := range fn.Blocks {
		queued[b] = true
	}

	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]
		queued[b] = false

		var preds []fact
		for _, p := range b.Preds {
			if f, ok := blockOut[p]; ok {
				preds = append(preds, f)
			}
		}
		in := joinFacts(preds)
		blockIn[b] = in

		cur := in.clone()
		for _, inst := range b.Instructions {
			rf.in[inst] = cur.clone()
			cur = transferReturnFlow(cur, inst)
			rf.out[inst] = cur.clone()
		}

		if !factsEqual(cur, blockOut[b]) {
			blockOut[b] = cur
			for _, s := range b.Succs {
				if !queued[s] {
					queued[s] = true
					worklist = append(worklist, s)
				}
			}
		}
	}
	return rf
}

func transferReturnFlow(in fact, inst *ir.Instruction) fact {
	out := in.clone()
	switch inst.Opcode {
	case ir.OpStore:
		s, r := inst.Operands[0], inst.Operands[1]
		if set := out.get(s); set != nil {
			out[r] = set
		} else {
			out[r] = singleton(s)
		}

	case ir.OpLoad:
		from := inst.Operands[0]
		if set := out.get(from); set != nil {
			out[inst.Result] = set
		} else {
			out[inst.Result] = singleton(from)
		}

	case ir.OpPhi, ir.OpSelect:
		var acc ValueSet
		for _, op := range inst.Operands {
			var s ValueSet
			if set := out.get(op); set != nil {
				s = set
			} else {
				s = singleton(op)
			}
			if acc == nil {
				acc = s.clone()
			} else {
				acc = acc.union(s)
			}
		}
		out[inst.Result] = acc

	default:
		if inst.Result != nil {
			out[inst.Result] = singleton(inst.Result)
		}
	}
	return out
}

func factsEqual(a, b fact) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || len(va) != len(vb) {
			return false
		}
		for v := range va {
			if !vb[v] {
				return false
			}
		}
	}
	return true
}

// InFact returns the incoming "may flow to" map at inst.
func (rf *ReturnFlow) InFact(inst *ir.Instruction) map[*ir.Value]ValueSet {
	return rf.in[inst]
}

// OutFact returns the outgoing "may flow to" map at inst.
func (rf *ReturnFlow) OutFact(inst *ir.Instruction) map[*ir.Value]ValueSet {
	return rf.out[inst]
}

// FlowsToReturn reports whether val may flow, via this ReturnFlow's
// tracked bindings, to the operand of some `ret` instruction in fn.
func (rf *ReturnFlow) FlowsToReturn(fn *ir.Function, val *ir.Value) bool {
	for _, b := range fn.Blocks {
		term := b.Terminator()
		if term == nil || term.Opcode != ir.OpRet || len(term.Operands) == 0 {
			continue
		}
		retVal := term.Operands[0]
		in := rf.InFact(term)
		if set, ok := in[retVal]; ok && set[val] {
			return true
		}
		if retVal == val {
			return true
		}
	}
	return false
}
