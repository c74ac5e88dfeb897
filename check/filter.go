// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"github.com/aclements/go-eesi/internal/logx"
	"github.com/aclements/go-eesi/ir"
	"github.com/aclements/go-eesi/lattice"
)

// ShouldCheck reports whether spec is checkable at all for fn: fn
// must have a non-empty source name and a non-void return type, and
// spec's element must not be Invalid, Bottom, or Top.
//
// An Invalid element logs a warning (it should never have reached a
// detector); Bottom and Top are silently skipped, since meeting or
// joining against them never produces an actionable report.
func ShouldCheck(fn *ir.Function, spec ir.Specification) bool {
	if fn.SourceName == "" {
		return false
	}
	if fn.ReturnIsVoid {
		return false
	}
	switch spec.Element {
	case lattice.Invalid:
		logx.Warn("specification for %s has Invalid element; skipping", spec.FunctionName)
		return false
	case lattice.Bottom, lattice.Top:
		return false
	}
	return true
}
