// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package icfg

import (
	"strconv"

	"github.com/aclements/go-eesi/dataflow"
	"github.com/aclements/go-eesi/ir"
	"github.com/aclements/go-eesi/names"
)

// Options tunes graph construction for a single GetGraphRequest.
type Options struct {
	// RemoveCrossFolder suppresses an indirect call's edge to a
	// candidate callee when the caller and callee's top-level
	// source folders differ, unless the callee's folder is
	// "include".
	RemoveCrossFolder bool
}

// Builder assembles a Graph from a resolved Module. A Builder is used
// once per module; construct a new one per GetGraphRequest.
type Builder struct {
	Resolver *names.Resolver
	Flows    map[*ir.Function]*dataflow.ReturnFlow
	Options  Options

	g            *Graph
	retVertices  map[*ir.Function][]*Vertex
	callSites    map[*ir.Function][]*Vertex
}

// Build runs the full four-step algorithm of spec.md §4.9 over m and
// returns the resulting Graph. Only the predicate-value vertices carry
// labels at this point; the instruction labels are attached by a
// separate LabelPass call.
func (b *Builder) Build(m *ir.Module) *Graph {
	b.g = newGraph()
	b.retVertices = make(map[*ir.Function][]*Vertex)
	b.callSites = make(map[*ir.Function][]*Vertex)

	b.buildEntries(m)
	for _, fn := range m.Functions {
		if fn.IsDeclaration || fn.IsIntrinsic {
			continue
		}
		b.buildFunction(fn)
	}
	b.buildMayRetEdges()
	return b.g
}

func findMain(m *ir.Module) *ir.Function {
	for _, fn := range m.Functions {
		if fn.IsDeclaration || fn.IsIntrinsic {
			continue
		}
		if fn.IRName == "main" {
			return fn
		}
	}
	return nil
}

// buildEntries implements step 1: the synthetic root and every
// function's callname.0 vertex.
func (b *Builder) buildEntries(m *ir.Module) {
	mainFn := findMain(m)
	mainVertex := b.g.addNode(names.MainEntryName)

	for _, fn := range m.Functions {
		if fn.IsDeclaration || fn.IsIntrinsic {
			continue
		}
		callVertex := b.g.addNode(names.CallName(fn))
		if mainFn == nil {
			b.g.addEdge(mainVertex, callVertex, MetaCall, ir.Location{})
		}
		if len(fn.Blocks) > 0 {
			entryBBE, _ := b.Resolver.BBNames(fn.Blocks[0])
			loc := fn.Blocks[0].Instructions[0].Loc
			b.g.addEdge(callVertex, b.g.addNode(entryBBE), MetaNone, loc)
		}
	}
}

// buildFunction implements step 2 (instruction chaining and block
// edges) and step 3 (call edges) for one function.
func (b *Builder) buildFunction(fn *ir.Function) {
	for _, block := range fn.Blocks {
		b.buildBlockBody(fn, block)
	}
	for _, block := range fn.Blocks {
		b.buildBlockEdges(fn, block)
	}
}

func (b *Builder) buildBlockBody(fn *ir.Function, block *ir.BasicBlock) {
	bbe, bbx := b.Resolver.BBNames(block)
	bbeV := b.g.addNode(bbe)
	bbxV := b.g.addNode(bbx)

	prev := bbeV
	for i, inst := range block.Instructions {
		instV := b.g.addNode(b.Resolver.StackName(inst))
		b.g.addEdge(prev, instV, MetaNone, inst.Loc)
		prev = instV

		if inst.Opcode == ir.OpRet {
			b.retVertices[fn] = append(b.retVertices[fn], instV)
		}
		if inst.Opcode == ir.OpCall {
			var returnSiteName string
			if i+1 < len(block.Instructions) {
				returnSiteName = b.Resolver.StackName(block.Instructions[i+1])
			} else {
				returnSiteName = bbx
			}
			b.buildCall(fn, inst, instV, returnSiteName)
		}
	}
	b.g.addEdge(prev, bbxV, MetaNone, block.Terminator().Loc)
}

func (b *Builder) buildCall(fn *ir.Function, inst *ir.Instruction, instV *Vertex, returnSiteName string) {
	returnSiteV := b.g.addNode(returnSiteName)
	b.g.addEdge(instV, returnSiteV, MetaRet, inst.Loc)

	for _, callee := range inst.Callees {
		if b.Options.RemoveCrossFolder && (inst.IsIndirectCall || len(inst.Callees) > 1) {
			callerFolder, calleeFolder := fn.TopLevelFolder(), callee.TopLevelFolder()
			if callerFolder != calleeFolder && calleeFolder != "include" {
				continue
			}
		}
		if callee.IsDeclaration {
			leaf := b.g.addNode(callee.IRName)
			b.g.addEdge(instV, leaf, MetaCall, inst.Loc)
			continue
		}
		calleeEntry := b.g.addNode(names.CallName(callee))
		b.g.addEdge(instV, calleeEntry, MetaCall, inst.Loc)
		b.callSites[callee] = append(b.callSites[callee], returnSiteV)
	}
}

func (b *Builder) buildBlockEdges(fn *ir.Function, block *ir.BasicBlock) {
	_, bbx := b.Resolver.BBNames(block)
	bbxV := b.g.addNode(bbx)
	term := block.Terminator()
	if term == nil {
		return
	}

	if term.Opcode == ir.OpCondBr {
		tSucc, fSucc := term.CondSuccs()
		tBBE, _ := b.Resolver.BBNames(tSucc)
		fBBE, _ := b.Resolver.BBNames(fSucc)
		tLabel, fLabel := condBranchLabels(term)

		pvTrue := b.g.addNode(bbx + ".pv.t")
		pvTrue.Labels = append(pvTrue.Labels, b.g.Labels.Intern(tLabel))
		b.g.addEdge(bbxV, pvTrue, MetaNone, term.Loc)
		b.g.addEdge(pvTrue, b.g.addNode(tBBE), MetaNone, term.Loc)

		pvFalse := b.g.addNode(bbx + ".pv.f")
		pvFalse.Labels = append(pvFalse.Labels, b.g.Labels.Intern(fLabel))
		b.g.addEdge(bbxV, pvFalse, MetaNone, term.Loc)
		b.g.addEdge(pvFalse, b.g.addNode(fBBE), MetaNone, term.Loc)
		return
	}

	for _, succ := range block.Succs {
		succBBE, _ := b.Resolver.BBNames(succ)
		b.g.addEdge(bbxV, b.g.addNode(succBBE), MetaNone, term.Loc)
	}
}

// condBranchLabels computes the (true, false) predicate-value vertex
// labels for a conditional branch whose condition is an icmp, per
// spec.md §4.9: operand-order swap (the literal in position 0) implies
// a predicate swap; a missing literal operand yields NAC; a condition
// that isn't an icmp at all yields NAP.
func condBranchLabels(term *ir.Instruction) (trueLabel, falseLabel string) {
	cond := term.Operands[0]
	icmp := cond.Def
	if icmp == nil || icmp.Opcode != ir.OpICmp {
		return condBranchLabel("", "", false, "NAP"), condBranchLabel("", "", false, "NAP")
	}
	if icmp.ConstOperand < 0 {
		return condBranchLabel("", "", false, "NAC"), condBranchLabel("", "", false, "NAC")
	}

	pred := predicateFromIR(icmp.Pred, icmp.ConstOperand == 0)
	sign := signName(icmp.ConstValue)

	trueLabel = condBranchLabel(pred, sign, true, "")
	falseLabel = condBranchLabel(pred.negate(), sign, true, "")
	return trueLabel, falseLabel
}

func icmpPredName(p ir.Predicate) predicateName {
	switch p {
	case ir.PredEQ:
		return predEQ
	case ir.PredNE:
		return predNE
	case ir.PredSLT:
		return predSLT
	case ir.PredSLE:
		return predSLE
	case ir.PredSGT:
		return predSGT
	case ir.PredSGE:
		return predSGE
	}
	return predEQ
}

func predicateFromIR(p ir.Predicate, swapped bool) predicateName {
	if swapped {
		p = p.Swap()
	}
	return icmpPredName(p)
}

func signName(c int64) string {
	switch {
	case c < 0:
		return "LESS"
	case c > 0:
		return "GREATER"
	default:
		return "ZERO"
	}
}

// buildMayRetEdges implements step 4: linking every function's return
// vertices to every recorded call-site return site.
func (b *Builder) buildMayRetEdges() {
	for fn, rets := range b.retVertices {
		for _, cs := range b.callSites[fn] {
			for _, rv := range rets {
				b.g.addEdge(rv, cs, MetaMayRet, ir.Location{})
			}
		}
	}
}

// LabelPass attaches the non-branch instruction labels of spec.md
// §4.9 (store, load, return, getelementptr, and the catch-all) to
// their instruction's vertex. Call it once after Build.
func LabelPass(g *Graph, r *names.Resolver, m *ir.Module, flows map[*ir.Function]*dataflow.ReturnFlow) {
	for _, fn := range m.Functions {
		if fn.IsDeclaration || fn.IsIntrinsic {
			continue
		}
		rf := flows[fn]
		for _, block := range fn.Blocks {
			for _, inst := range block.Instructions {
				label, ok := instructionLabel(r, fn, inst, rf)
				if !ok {
					continue
				}
				v, ok := g.Node(r.StackName(inst))
				if !ok {
					continue
				}
				v.Labels = append(v.Labels, g.Labels.Intern(label))
			}
		}
	}
}

func instructionLabel(r *names.Resolver, fn *ir.Function, inst *ir.Instruction, rf *dataflow.ReturnFlow) (string, bool) {
	parentFn := fn.IRName
	switch inst.Opcode {
	case ir.OpCondBr, ir.OpCall:
		// Handled at edge-construction time (predicate-value
		// vertices) or not labeled at all (call instructions
		// themselves carry no F2V_ label; their call/ret/may_ret
		// edges already encode everything the walker needs).
		return "", false

	case ir.OpStore:
		return storeLabel(r, fn, inst, rf)

	case ir.OpLoad:
		v := r.Of(inst.Result)
		if v.Kind == names.KindErrorCode && v.Name != "OK" {
			return loadErrLabel(v.Name, parentFn), true
		}
		return "", false

	case ir.OpRet:
		return retLabel(r, fn, inst, rf)

	case ir.OpGEP:
		if inst.GEPStructType != "" {
			return gepTypeLabel(inst.GEPStructType), true
		}
		return gepFallbackLabel(parentFn), true

	default:
		return instLabel(opcodeName(inst.Opcode), parentFn), true
	}
}

func storeLabel(r *names.Resolver, fn *ir.Function, inst *ir.Instruction, rf *dataflow.ReturnFlow) (string, bool) {
	parentFn := fn.IRName
	stored := inst.Operands[0]

	v := r.Of(stored)
	if v.Kind == names.KindErrorCode && v.Name != "OK" {
		return storeErrLabel(v.Name, parentFn), true
	}
	if k, ok := constIntValue(stored); ok {
		return storeDirLabel(k, parentFn), true
	}
	if rf != nil {
		if k, callee, ok := resolveIndirect(rf, inst, stored); ok {
			if callee != "" {
				return storeIndirCalleeLabel(callee, parentFn), true
			}
			return storeIndirConstLabel(k, parentFn), true
		}
	}
	return "", false
}

func retLabel(r *names.Resolver, fn *ir.Function, inst *ir.Instruction, rf *dataflow.ReturnFlow) (string, bool) {
	parentFn := fn.IRName
	if len(inst.Operands) == 0 {
		return "", false
	}
	retVal := inst.Operands[0]

	v := r.Of(retVal)
	if v.Kind == names.KindErrorCode && v.Name != "OK" {
		return retErrLabel(v.Name, parentFn), true
	}
	if k, ok := constIntValue(retVal); ok {
		return retDirLabel(k, parentFn), true
	}
	if rf != nil {
		if k, callee, ok := resolveIndirect(rf, inst, retVal); ok {
			if callee != "" {
				return retCalleeLabel(callee, parentFn), true
			}
			return retIndirConstLabel(k, parentFn), true
		}
	}
	return "", false
}

// resolveIndirect consults the return-value propagation analysis
// (§4.4) for a value that isn't itself a constant or error code,
// looking for a constant or call result that may flow into val by the
// time inst executes.
func resolveIndirect(rf *dataflow.ReturnFlow, inst *ir.Instruction, val *ir.Value) (k int64, callee string, ok bool) {
	set, has := rf.InFact(inst)[val]
	if !has {
		return 0, "", false
	}
	for v := range set {
		if c, isConst := constIntValue(v); isConst {
			return c, "", true
		}
		if v.Def != nil && v.Def.Opcode == ir.OpCall && len(v.Def.Callees) == 1 {
			return 0, v.Def.Callees[0].IRName, true
		}
	}
	return 0, "", false
}

// constIntValue recognizes an unnamed immediate int operand: a Value
// with no defining instruction whose Name is its decimal literal.
func constIntValue(v *ir.Value) (int64, bool) {
	if v == nil || v.Def != nil || v.Name == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v.Name, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func opcodeName(op ir.Opcode) string {
	switch op {
	case ir.OpAlloca:
		return "alloca"
	case ir.OpLoad:
		return "load"
	case ir.OpStore:
		return "store"
	case ir.OpGEP:
		return "getelementptr"
	case ir.OpCall:
		return "call"
	case ir.OpPhi:
		return "phi"
	case ir.OpSelect:
		return "select"
	case ir.OpBinOp:
		return "binop"
	case ir.OpICmp:
		return "icmp"
	case ir.OpBr:
		return "br"
	case ir.OpCondBr:
		return "condbr"
	case ir.OpRet:
		return "ret"
	case ir.OpDebugDeclare:
		return "dbg.declare"
	}
	return "other"
}
