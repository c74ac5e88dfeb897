// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "github.com/aclements/go-eesi/lattice"

// Specification is a mined or hand-authored error specification: a
// claim that FunctionName returns values in Element when it signals
// failure, held with Confidence (defaults to 1.0).
type Specification struct {
	FunctionName string
	Element      lattice.Sign
	Confidence   float64
}

// NewSpecification builds a Specification with the default confidence
// of 1.0.
func NewSpecification(functionName string, element lattice.Sign) Specification {
	return Specification{FunctionName: functionName, Element: element, Confidence: 1.0}
}
