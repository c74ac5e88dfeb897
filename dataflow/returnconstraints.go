// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataflow

import (
	"github.com/aclements/go-eesi/ir"
	"github.com/aclements/go-eesi/lattice"
)

// cfact is a sparse constraint map: callee IR name -> the sign
// element under which execution is live at this program point. A
// callee absent from the map is implicitly Top (unconstrained); Top
// entries are never stored, keeping the map sparse.
type cfact map[string]lattice.Sign

func (f cfact) get(callee string) lattice.Sign {
	if s, ok := f[callee]; ok {
		return s
	}
	return lattice.Top
}

func (f cfact) withRefined(callee string, s lattice.Sign) cfact {
	out := make(cfact, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	if s == lattice.Top {
		delete(out, callee)
	} else {
		out[callee] = s
	}
	return out
}

func joinCFacts(fs []cfact) cfact {
	keys := map[string]bool{}
	for _, f := range fs {
		for k := range f {
			keys[k] = true
		}
	}
	out := cfact{}
	for k := range keys {
		acc := fs[0].get(k)
		for _, f := range fs[1:] {
			acc = lattice.Join(acc, f.get(k))
		}
		if acc != lattice.Top {
			out[k] = acc
		}
	}
	return out
}

func cfactsEqual(a, b cfact) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// ReturnConstraints is the result of the return-constraint
// propagation analysis for a single function: at each instruction,
// the sign constraint under which execution is live, per callee.
type ReturnConstraints struct {
	in map[*ir.Instruction]cfact
}

// RunReturnConstraints computes ReturnConstraints for fn.
func RunReturnConstraints(fn *ir.Function) *ReturnConstraints {
	rc := &ReturnConstraints{in: make(map[*ir.Instruction]cfact)}
	if len(fn.Blocks) == 0 {
		return rc
	}

	// incoming[succ][pred] is the fact pred's terminator sends
	// along the pred->succ edge; joinCFacts combines every
	// predecessor's contribution when a block is re-evaluated.
	blockOut := make(map[*ir.BasicBlock]cfact, len(fn.Blocks))
	incoming := make(map[*ir.BasicBlock]map[*ir.BasicBlock]cfact, len(fn.Blocks))

	worklist := append([]*ir.BasicBlock{}, fn.Blocks...)
	queued := make(map[*ir.BasicBlock]bool, len(fn.Blocks))
	for _, b := range fn.Blocks {
		queued[b] = true
	}

	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]
		queued[b] = false

		var edgeFacts []cfact
		for _, f := range incoming[b] {
			edgeFacts = append(edgeFacts, f)
		}
		// joinCFacts(nil) yields {} (fully unconstrained), the
		// correct baseline for a block with no predecessors.
		// Prepending a synthetic empty fact here would wrongly pull
		// every real predecessor's constraint back toward Top.
		in := joinCFacts(edgeFacts)

		cur := in
		for _, inst := range b.Instructions {
			rc.in[inst] = cur
		}

		trueEdge, falseEdge := terminatorEdges(b, cur)

		changed := false
		if term := b.Terminator(); term != nil && term.Opcode == ir.OpCondBr {
			t, f := term.CondSuccs()
			changed = setIncoming(incoming, b, t, trueEdge) || changed
			changed = setIncoming(incoming, b, f, falseEdge) || changed
		} else {
			for _, s := range b.Succs {
				changed = setIncoming(incoming, b, s, cur) || changed
			}
		}
		if !cfactsEqual(cur, blockOut[b]) {
			blockOut[b] = cur
		}
		if changed {
			for _, s := range b.Succs {
				if !queued[s] {
					queued[s] = true
					worklist = append(worklist, s)
				}
			}
		}
	}
	return rc
}

// setIncoming records the fact that from sends to along the from->to
// edge and reports whether it differs from what was previously
// recorded there (so the caller knows whether to re-queue to).
func setIncoming(incoming map[*ir.BasicBlock]map[*ir.BasicBlock]cfact, from, to *ir.BasicBlock, f cfact) bool {
	if incoming[to] == nil {
		incoming[to] = make(map[*ir.BasicBlock]cfact)
	}
	old, ok := incoming[to][from]
	incoming[to][from] = f
	return !ok || !cfactsEqual(old, f)
}

// terminatorEdges computes the (true, false) edge facts for b's
// terminator given b's live-in fact in. If the terminator isn't a
// conditional icmp branch, both are just in (the "no refinement"
// case); the caller only uses the relevant one for non-branch
// terminators.
func terminatorEdges(b *ir.BasicBlock, in cfact) (trueEdge, falseEdge cfact) {
	term := b.Terminator()
	if term == nil || term.Opcode != ir.OpCondBr {
		return in, in
	}
	cond := term.Operands[0]
	icmp := cond.Def
	if icmp == nil || icmp.Opcode != ir.OpICmp || icmp.ConstOperand < 0 {
		return in, in
	}

	var callVal *ir.Value
	if icmp.ConstOperand == 0 {
		callVal = icmp.Operands[1]
	} else {
		callVal = icmp.Operands[0]
	}
	if callVal.Def == nil || callVal.Def.Opcode != ir.OpCall || callVal.Def.IsIndirectCall || len(callVal.Def.Callees) != 1 {
		return in, in
	}
	callee := callVal.Def.Callees[0].IRName

	pred := icmp.Pred
	if icmp.ConstOperand == 0 {
		pred = pred.Swap()
	}
	constSign := signOfConst(icmp.ConstValue)
	trueAdmit := admittedSign(pred, constSign)
	falseAdmit := lattice.Complement(trueAdmit)

	return in.withRefined(callee, trueAdmit), in.withRefined(callee, falseAdmit)
}

func signOfConst(c int64) lattice.Sign {
	switch {
	case c < 0:
		return lattice.Less
	case c > 0:
		return lattice.Greater
	default:
		return lattice.Zero
	}
}

// admittedSign maps an icmp predicate and the sign of its literal
// operand to the tightest sign-lattice element the true branch of
// that comparison soundly admits.
func admittedSign(pred ir.Predicate, constSign lattice.Sign) lattice.Sign {
	switch pred {
	case ir.PredEQ:
		switch constSign {
		case lattice.Zero:
			return lattice.Zero
		case lattice.Greater:
			return lattice.Greater
		case lattice.Less:
			return lattice.Less
		}
	case ir.PredNE:
		if constSign == lattice.Zero {
			return lattice.NotZero
		}
	case ir.PredSLT:
		switch constSign {
		case lattice.Zero, lattice.Less:
			return lattice.Less
		}
	case ir.PredSLE:
		switch constSign {
		case lattice.Zero:
			return lattice.LessEqual
		case lattice.Less:
			return lattice.Less
		}
	case ir.PredSGT:
		switch constSign {
		case lattice.Zero, lattice.Greater:
			return lattice.Greater
		}
	case ir.PredSGE:
		switch constSign {
		case lattice.Zero:
			return lattice.GreaterEqual
		case lattice.Greater:
			return lattice.Greater
		}
	}
	return lattice.Top
}

// InFact returns the sparse callee -> constraint map live at inst.
func (rc *ReturnConstraints) InFact(inst *ir.Instruction) map[string]lattice.Sign {
	return rc.in[inst]
}
