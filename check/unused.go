// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"github.com/aclements/go-eesi/ir"
)

// UnusedReturnDetector flags call sites that discard the return value
// of a function with a specification that passes ShouldCheck; beyond
// that filter the specification's element plays no part: any checkable
// function's result that's never read is assumed load-bearing.
type UnusedReturnDetector struct {
	Specs map[string]ir.Specification // keyed by callee source name

	violations []Violation
}

func NewUnusedReturnDetector(specs []ir.Specification) *UnusedReturnDetector {
	m := make(map[string]ir.Specification, len(specs))
	for _, s := range specs {
		m[s.FunctionName] = s
	}
	return &UnusedReturnDetector{Specs: m}
}

// Run visits every call instruction in fn and reports those whose
// result is discarded.
func (d *UnusedReturnDetector) Run(fn *ir.Function) {
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			d.visitCall(fn, inst)
		}
	}
}

func (d *UnusedReturnDetector) visitCall(fn *ir.Function, call *ir.Instruction) {
	if call.Opcode != ir.OpCall || call.IsIndirectCall || len(call.Callees) != 1 {
		return
	}
	if call.Result == nil {
		return
	}

	callee := call.Callees[0]
	spec, ok := d.Specs[callee.SourceName]
	if !ok {
		return
	}
	if !ShouldCheck(callee, spec) {
		return
	}

	if call.Result.HasUses() {
		return
	}

	d.violations = append(d.violations, Violation{
		Location:      call.Loc,
		Specification: spec,
		Type:          UnusedReturnValue,
		Message:       "Unused return value.",
		ParentFn:      fn,
	})
}

// Violations returns the violations found so far.
func (d *UnusedReturnDetector) Violations() []Violation { return d.violations }
