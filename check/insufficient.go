// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"github.com/aclements/go-eesi/dataflow"
	"github.com/aclements/go-eesi/ir"
	"github.com/aclements/go-eesi/lattice"
)

// InsufficientCheckDetector flags call sites whose return value is
// live in an error range the call site's surrounding code never
// rules out, and which isn't simply being passed through to the
// caller's own return.
type InsufficientCheckDetector struct {
	Specs map[string]ir.Specification // keyed by callee source name

	violations []Violation
	warnings   []Warning
}

func NewInsufficientCheckDetector(specs []ir.Specification) *InsufficientCheckDetector {
	m := make(map[string]ir.Specification, len(specs))
	for _, s := range specs {
		m[s.FunctionName] = s
	}
	return &InsufficientCheckDetector{Specs: m}
}

// Run visits every call instruction in fn, using rc and rf (already
// computed over fn) to decide sufficiency and propagation.
func (d *InsufficientCheckDetector) Run(fn *ir.Function, rc *dataflow.ReturnConstraints, rf *dataflow.ReturnFlow) {
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			if inst.Opcode != ir.OpCall || inst.IsIndirectCall || len(inst.Callees) != 1 {
				continue
			}
			d.visitCall(fn, inst, rc, rf)
		}
	}
}

func (d *InsufficientCheckDetector) visitCall(fn *ir.Function, call *ir.Instruction, rc *dataflow.ReturnConstraints, rf *dataflow.ReturnFlow) {
	callee := call.Callees[0]
	spec, ok := d.Specs[callee.SourceName]
	if !ok {
		return
	}
	if !ShouldCheck(callee, spec) {
		return
	}

	propagated := isPropagated(fn, call, rf)
	sufficient := isSufficientlyChecked(fn, callee, spec, rc)

	if propagated || sufficient {
		return
	}

	d.violations = append(d.violations, Violation{
		Location:      call.Loc,
		Specification: spec,
		Type:          InsufficientCheck,
		Message:       "Insufficient check.",
		ParentFn:      fn,
	})
}

// isSufficientlyChecked implements InsufficientChecksPass's sufficiency
// test: collect every distinct constraint ever placed on callee's
// return value anywhere in parent (its "live" set), complement each to
// get the set of signs execution is known dead under, then meet every
// pairing of dead constraints. If any meet's complement is provably
// narrower than spec's element, the call site has been checked enough
// to rule out the specification's error range.
//
// If every meet comes out Top, callee's return value was constrained
// somewhere in parent but never in a way that narrows anything (e.g.
// it was compared against something other than a literal); that's
// treated as sufficiently checked to avoid over-reporting on such
// comparisons. But if callee's return value was never constrained
// anywhere in parent at all (live is empty), the call site was simply
// never examined, and onlyTop's vacuous true must not suppress the
// report: an entirely unguarded, unpropagated call is exactly the bug
// this detector exists to find.
func isSufficientlyChecked(parent *ir.Function, callee *ir.Function, spec ir.Specification, rc *dataflow.ReturnConstraints) bool {
	live := map[lattice.Sign]bool{}
	for _, bb := range parent.Blocks {
		for _, inst := range bb.Instructions {
			fact := rc.InFact(inst)
			if s, ok := fact[callee.IRName]; ok {
				live[s] = true
			}
		}
	}

	dead := map[lattice.Sign]bool{lattice.Top: true}
	for s := range live {
		dead[lattice.Complement(s)] = true
	}

	onlyTop := true
	for e1 := range dead {
		for e2 := range dead {
			m := lattice.Meet(e1, e2)
			if m == lattice.Bottom {
				continue
			}
			if m != lattice.Top {
				onlyTop = false
			}
			complement := lattice.Complement(m)
			if lattice.IsLessThan(spec.Element, complement) {
				return true
			}
		}
	}

	return onlyTop && len(live) > 0
}

func isPropagated(parent *ir.Function, call *ir.Instruction, rf *dataflow.ReturnFlow) bool {
	return rf.FlowsToReturn(parent, call.Result)
}

// Violations returns the violations found so far.
func (d *InsufficientCheckDetector) Violations() []Violation { return d.violations }

// Warnings returns the recoverable per-call-site issues encountered
// while running, if any were recorded.
func (d *InsufficientCheckDetector) Warnings() []Warning { return d.warnings }
