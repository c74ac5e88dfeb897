// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aclements/go-eesi/dataflow"
	"github.com/aclements/go-eesi/ir"
	"github.com/aclements/go-eesi/lattice"
)

// declCallee returns a non-void declaration for name, suitable as the
// sole entry of an ir.Instruction.Callees list.
func declCallee(name string) *ir.Function {
	return &ir.Function{SourceName: name, IRName: name, IsDeclaration: true}
}

// callInst builds a direct, single-callee call instruction at loc
// whose result is a fresh value.
func callInst(callee *ir.Function, loc ir.Location) *ir.Instruction {
	v := &ir.Value{}
	inst := &ir.Instruction{Opcode: ir.OpCall, Loc: loc, Result: v, Callees: []*ir.Function{callee}}
	v.Def = inst
	return inst
}

func brInst(to *ir.BasicBlock) *ir.Instruction {
	return &ir.Instruction{Opcode: ir.OpBr}
}

func retVoidInst() *ir.Instruction {
	return &ir.Instruction{Opcode: ir.OpRet}
}

func retValInst(v *ir.Value) *ir.Instruction {
	return &ir.Instruction{Opcode: ir.OpRet, Operands: []*ir.Value{v}}
}

// icmpInst compares callResult against a literal int (constValue) with
// pred, placed at Operands[0] (so ConstOperand=1, no swap needed).
func icmpInst(callResult *ir.Value, pred ir.Predicate, constValue int64) *ir.Instruction {
	cond := &ir.Value{}
	inst := &ir.Instruction{
		Opcode:       ir.OpICmp,
		Result:       cond,
		Operands:     []*ir.Value{callResult, {}},
		Pred:         pred,
		ConstOperand: 1,
		ConstValue:   constValue,
	}
	cond.Def = inst
	return inst
}

func condBrInst(cond *ir.Value) *ir.Instruction {
	return &ir.Instruction{Opcode: ir.OpCondBr, Operands: []*ir.Value{cond}}
}

func finishBlock(b *ir.BasicBlock, fn *ir.Function, insts ...*ir.Instruction) {
	b.Instructions = insts
	b.Function = fn
	for _, inst := range insts {
		inst.Block = b
	}
}

func link(pred, succ *ir.BasicBlock) {
	pred.Succs = append(pred.Succs, succ)
	succ.Preds = append(succ.Preds, pred)
}

// TestInsufficientCheck_UnguardedUnpropagated_Violates covers an
// entirely unchecked, unpropagated call site: spec.md §8's "hello
// printf" shape.
func TestInsufficientCheck_UnguardedUnpropagated_Violates(t *testing.T) {
	mustcheck := declCallee("mustcheck")
	call := callInst(mustcheck, ir.Location{File: "t.c", Line: 10})
	b0 := &ir.BasicBlock{}
	main := &ir.Function{SourceName: "main", IRName: "main"}
	finishBlock(b0, main, call, retVoidInst())
	main.Blocks = []*ir.BasicBlock{b0}

	rc := dataflow.RunReturnConstraints(main)
	rf := dataflow.RunReturnFlow(main)

	d := NewInsufficientCheckDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Less)})
	d.Run(main, rc, rf)

	require.Len(t, d.Violations(), 1)
	v := d.Violations()[0]
	require.Equal(t, InsufficientCheck, v.Type)
	require.Equal(t, call.Loc, v.Location)
	require.Equal(t, main, v.ParentFn)
}

func TestInsufficientCheck_TopSpecFiltered(t *testing.T) {
	mustcheck := declCallee("mustcheck")
	call := callInst(mustcheck, ir.Location{File: "t.c", Line: 10})
	b0 := &ir.BasicBlock{}
	main := &ir.Function{SourceName: "main", IRName: "main"}
	finishBlock(b0, main, call, retVoidInst())
	main.Blocks = []*ir.BasicBlock{b0}

	rc := dataflow.RunReturnConstraints(main)
	rf := dataflow.RunReturnFlow(main)

	d := NewInsufficientCheckDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Top)})
	d.Run(main, rc, rf)

	require.Empty(t, d.Violations())
}

// TestInsufficientCheck_PropagationSoundness builds `return
// mustcheck();` directly: the call's result is the return operand
// itself, so the detector must never report it regardless of the
// specification.
func TestInsufficientCheck_PropagationSoundness(t *testing.T) {
	mustcheck := declCallee("mustcheck")
	call := callInst(mustcheck, ir.Location{File: "t.c", Line: 4})
	b0 := &ir.BasicBlock{}
	main := &ir.Function{SourceName: "main", IRName: "main"}
	finishBlock(b0, main, call, retValInst(call.Result))
	main.Blocks = []*ir.BasicBlock{b0}

	rc := dataflow.RunReturnConstraints(main)
	rf := dataflow.RunReturnFlow(main)

	d := NewInsufficientCheckDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Less)})
	d.Run(main, rc, rf)

	require.Empty(t, d.Violations())
}

// buildSingleGuard builds:
//
//	x := mustcheck()
//	if x == 0 { goto ok } else { goto cont }
//	ok: goto end
//	cont: goto end
//	end: return
//
// Neither branch propagates x, so sufficiency can only come from the
// complement/meet step (§4.7 rules 2-6), not from propagation.
func buildSingleGuard() (fn *ir.Function, call *ir.Instruction) {
	mustcheck := declCallee("mustcheck")
	call = callInst(mustcheck, ir.Location{File: "eq.c", Line: 4})
	icmp := icmpInst(call.Result, ir.PredEQ, 0)
	fn = &ir.Function{SourceName: "caller", IRName: "caller"}

	b0, bOK, bCont, bEnd := &ir.BasicBlock{}, &ir.BasicBlock{}, &ir.BasicBlock{}, &ir.BasicBlock{}
	finishBlock(b0, fn, call, icmp, condBrInst(icmp.Result))
	finishBlock(bOK, fn, brInst(bEnd))
	finishBlock(bCont, fn, brInst(bEnd))
	finishBlock(bEnd, fn, retVoidInst())

	link(b0, bOK)   // true: x == 0
	link(b0, bCont) // false: x != 0
	link(bOK, bEnd)
	link(bCont, bEnd)

	fn.Blocks = []*ir.BasicBlock{b0, bOK, bCont, bEnd}
	return fn, call
}

// TestInsufficientCheck_SingleGuardCoversOrthogonalSpec checks that a
// guard on one sign (== 0) can still rule out a different
// specification (LessThanZero) via the Zero/NotZero complement, while
// a specification matching the guard's own orthogonal range (NotZero)
// is left unresolved and reported.
func TestInsufficientCheck_SingleGuardCoversOrthogonalSpec(t *testing.T) {
	fn, call := buildSingleGuard()
	rc := dataflow.RunReturnConstraints(fn)
	rf := dataflow.RunReturnFlow(fn)

	d := NewInsufficientCheckDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Less)})
	d.Run(fn, rc, rf)
	require.Empty(t, d.Violations(), "NotZero's complement of the == 0 guard strictly covers LessThanZero")

	fn2, _ := buildSingleGuard()
	rc2 := dataflow.RunReturnConstraints(fn2)
	rf2 := dataflow.RunReturnFlow(fn2)
	d2 := NewInsufficientCheckDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.NotZero)})
	d2.Run(fn2, rc2, rf2)
	require.Len(t, d2.Violations(), 1, "the == 0 guard says nothing about NotZero itself")
}

// TestInsufficientCheck_CombinedGuardsAcrossCallSites exercises §4.7's
// complement/meet step over two separately guarded call sites to the
// same callee (one > 0, one < 0) and a third, unguarded one.
// Constraints are collected per callee name across the whole parent
// function, not per call site, so all three calls share the same
// verdict: the false edge of the > 0 guard records LessEqual, whose
// complement Greater meets back to a dead element covering
// LessThanZero, so no call is reported.
func TestInsufficientCheck_CombinedGuardsAcrossCallSites(t *testing.T) {
	mustcheck := declCallee("mustcheck")
	fn := &ir.Function{SourceName: "caller", IRName: "caller"}

	call1 := callInst(mustcheck, ir.Location{File: "c.c", Line: 4})
	icmp1 := icmpInst(call1.Result, ir.PredSGT, 0) // r1 > 0

	call2 := callInst(mustcheck, ir.Location{File: "c.c", Line: 8})
	icmp2 := icmpInst(call2.Result, ir.PredSLT, 0) // r2 < 0

	call3 := callInst(mustcheck, ir.Location{File: "c.c", Line: 12}) // never checked

	b0, bPos, bNext1, bNeg, bNext2, bEnd :=
		&ir.BasicBlock{}, &ir.BasicBlock{}, &ir.BasicBlock{}, &ir.BasicBlock{}, &ir.BasicBlock{}, &ir.BasicBlock{}

	finishBlock(b0, fn, call1, icmp1, condBrInst(icmp1.Result))
	finishBlock(bPos, fn, brInst(bNext1))
	finishBlock(bNext1, fn, call2, icmp2, condBrInst(icmp2.Result))
	finishBlock(bNeg, fn, brInst(bEnd))
	finishBlock(bNext2, fn, call3, brInst(bEnd))
	finishBlock(bEnd, fn, retVoidInst())

	link(b0, bPos)     // true: r1 > 0
	link(b0, bNext1)   // false: r1 <= 0
	link(bPos, bNext1)
	link(bNext1, bNeg)   // true: r2 < 0
	link(bNext1, bNext2) // false: r2 >= 0
	link(bNeg, bEnd)
	link(bNext2, bEnd)

	fn.Blocks = []*ir.BasicBlock{b0, bPos, bNext1, bNeg, bNext2, bEnd}

	rc := dataflow.RunReturnConstraints(fn)
	rf := dataflow.RunReturnFlow(fn)

	d := NewInsufficientCheckDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Less)})
	d.Run(fn, rc, rf)

	require.Empty(t, d.Violations())
	_ = call3
}
