// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package icfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aclements/go-eesi/ir"
)

func TestGraphAddNodeIdempotent(t *testing.T) {
	g := newGraph()
	a := g.addNode("main.1")
	b := g.addNode("main.1")
	require.Same(t, a, b)

	_, ok := g.Node("main.1")
	require.True(t, ok)
	_, ok = g.Node("missing")
	require.False(t, ok)
}

func TestGraphToEdgeListRecordCarriesSourceVertexLabels(t *testing.T) {
	g := newGraph()
	src := g.addNode("main.1")
	dst := g.addNode("main.2")
	src.Labels = []int{g.Labels.Intern("F2V_RET_OK_main")}

	g.addEdge(src, dst, MetaNone, ir.Location{File: "t.c", Line: 7})

	rec := g.ToEdgeListRecord()
	require.Len(t, rec.Edges, 1)
	er := rec.Edges[0]
	require.Equal(t, "main.1", er.Source)
	require.Equal(t, "main.2", er.Target)
	require.Equal(t, "", er.MetaLabel)
	require.Equal(t, []int{0}, er.LabelID)
	require.Equal(t, "F2V_RET_OK_main", rec.IDToLabel[0])
}

func TestGraphToEdgeListRecordMetaLabels(t *testing.T) {
	g := newGraph()
	caller := g.addNode("caller.1")
	callee := g.addNode("callee.0")
	g.addEdge(caller, callee, MetaCall, ir.Location{})

	rec := g.ToEdgeListRecord()
	require.Equal(t, "call", rec.Edges[0].MetaLabel)
}
