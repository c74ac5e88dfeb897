// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aclements/go-eesi/ir"
	"github.com/aclements/go-eesi/lattice"
)

func TestUnusedReturnDetector_DiscardedResultViolates(t *testing.T) {
	mustcheck := declCallee("mustcheck")
	call := callInst(mustcheck, ir.Location{File: "t.c", Line: 3})
	b0 := &ir.BasicBlock{}
	fn := &ir.Function{SourceName: "main", IRName: "main"}
	finishBlock(b0, fn, call, retVoidInst())
	fn.Blocks = []*ir.BasicBlock{b0}

	d := NewUnusedReturnDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Less)})
	d.Run(fn)

	require.Len(t, d.Violations(), 1)
	v := d.Violations()[0]
	require.Equal(t, UnusedReturnValue, v.Type)
	require.Equal(t, call.Loc, v.Location)
}

func TestUnusedReturnDetector_UsedResultIsFine(t *testing.T) {
	mustcheck := declCallee("mustcheck")
	call := callInst(mustcheck, ir.Location{File: "t.c", Line: 3})
	icmp := icmpInst(call.Result, ir.PredEQ, 0)
	call.Result.Uses = []*ir.Instruction{icmp}

	b0 := &ir.BasicBlock{}
	fn := &ir.Function{SourceName: "main", IRName: "main"}
	finishBlock(b0, fn, call, icmp, condBrInst(icmp.Result), retVoidInst())
	fn.Blocks = []*ir.BasicBlock{b0}

	d := NewUnusedReturnDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Less)})
	d.Run(fn)

	require.Empty(t, d.Violations())
}

func TestUnusedReturnDetector_TopSpecFiltered(t *testing.T) {
	mustcheck := declCallee("mustcheck")
	call := callInst(mustcheck, ir.Location{File: "t.c", Line: 3})
	b0 := &ir.BasicBlock{}
	fn := &ir.Function{SourceName: "main", IRName: "main"}
	finishBlock(b0, fn, call, retVoidInst())
	fn.Blocks = []*ir.BasicBlock{b0}

	d := NewUnusedReturnDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Top)})
	d.Run(fn)

	require.Empty(t, d.Violations())
}

func TestUnusedReturnDetector_NoSpecIgnored(t *testing.T) {
	other := declCallee("unspecced")
	call := callInst(other, ir.Location{File: "t.c", Line: 3})
	b0 := &ir.BasicBlock{}
	fn := &ir.Function{SourceName: "main", IRName: "main"}
	finishBlock(b0, fn, call, retVoidInst())
	fn.Blocks = []*ir.BasicBlock{b0}

	d := NewUnusedReturnDetector([]ir.Specification{ir.NewSpecification("mustcheck", lattice.Less)})
	d.Run(fn)

	require.Empty(t, d.Violations())
}

func TestUnusedReturnDetector_VoidReturnNeverFlagged(t *testing.T) {
	logmsg := declCallee("logmsg")
	logmsg.ReturnIsVoid = true
	call := &ir.Instruction{Opcode: ir.OpCall, Loc: ir.Location{File: "t.c", Line: 3}, Callees: []*ir.Function{logmsg}}
	b0 := &ir.BasicBlock{}
	fn := &ir.Function{SourceName: "main", IRName: "main"}
	finishBlock(b0, fn, call, retVoidInst())
	fn.Blocks = []*ir.BasicBlock{b0}

	d := NewUnusedReturnDetector([]ir.Specification{ir.NewSpecification("logmsg", lattice.Less)})
	d.Run(fn)

	require.Empty(t, d.Violations())
}
