// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package check implements the violation detectors: insufficient
// checks on a call's return value, and unused return values, each
// filtered through the shared should_check predicate.
package check

import (
	"github.com/aclements/go-eesi/ir"
)

// ViolationType distinguishes the two kinds of bug this package
// detects.
type ViolationType int

const (
	InsufficientCheck ViolationType = iota
	UnusedReturnValue
)

func (t ViolationType) String() string {
	if t == InsufficientCheck {
		return "InsufficientCheck"
	}
	return "UnusedReturnValue"
}

// Violation is a single detected call-site bug.
type Violation struct {
	Location      ir.Location
	Specification ir.Specification
	Type          ViolationType
	Message       string
	ParentFn      *ir.Function
}

// Warning is a recoverable, per-call-site detector failure (no usable
// debug location, an unresolved callee) that degrades to skipping the
// site rather than reporting anything.
type Warning struct {
	Loc     ir.Location
	Message string
}
