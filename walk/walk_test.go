// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package walk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aclements/go-eesi/lpds"
)

func linearGraph(n int) (g *lpds.Graph, first *lpds.Node, startLabel int) {
	g = lpds.NewGraph()
	nodes := make([]*lpds.Node, n)
	for i := range nodes {
		nodes[i] = g.AddNode(string(rune('a' + i)))
	}
	for i := 0; i < n-1; i++ {
		g.AddEdge(nodes[i], nodes[i+1], false, false, nil, []int{i})
	}
	return g, nodes[0], 0
}

// TestWalkLengthBoundStopsExactlyAtLimit checks a chain long enough to
// reach WalkLength emits exactly WalkLength labels, never more.
func TestWalkLengthBoundStopsExactlyAtLimit(t *testing.T) {
	g, _, startID := linearGraph(10)
	labels := map[int]string{}
	for _, id := range g.AllLabels() {
		labels[id] = "l"
	}
	w := &Walker{Graph: g, LabelNames: labels, WalkLength: 4, Rand: rand.New(rand.NewSource(1))}

	sent, ok := w.walk(startID, "start")
	require.True(t, ok)
	require.Len(t, sent.Labels, 4)
}

// TestWalkStopsAtDeadEnd checks a chain shorter than WalkLength ends
// the walk early rather than looping or panicking on a nil successor.
func TestWalkStopsAtDeadEnd(t *testing.T) {
	g, _, startID := linearGraph(3)
	labels := map[int]string{}
	for _, id := range g.AllLabels() {
		labels[id] = "l"
	}
	w := &Walker{Graph: g, LabelNames: labels, WalkLength: 50, Rand: rand.New(rand.NewSource(1))}

	sent, ok := w.walk(startID, "start")
	require.True(t, ok)
	require.Less(t, len(sent.Labels), 50)
}

func TestWalkUnknownStartLabelFails(t *testing.T) {
	g := lpds.NewGraph()
	w := &Walker{Graph: g, LabelNames: map[int]string{}, WalkLength: 5, Rand: rand.New(rand.NewSource(1))}

	_, ok := w.walk(99, "missing")
	require.False(t, ok)
}

func TestPushIfCallPushesCallsSiblingReturnSite(t *testing.T) {
	g := lpds.NewGraph()
	caller := g.AddNode("caller.0")
	callee := g.AddNode("callee.0")
	retSite := g.AddNode("caller.1")

	callEdge := g.AddEdge(caller, callee, true, false, []string{"callee"}, nil)
	g.AddEdge(caller, retSite, false, false, nil, nil)

	var stack []*lpds.Node
	pushIfCall(callEdge, &stack)

	require.Len(t, stack, 1)
	require.Same(t, retSite, stack[0])
}

func TestPushIfCallNoOpOnNonCallEdge(t *testing.T) {
	g := lpds.NewGraph()
	a := g.AddNode("a")
	b := g.AddNode("b")
	e := g.AddEdge(a, b, false, false, nil, nil)

	var stack []*lpds.Node
	pushIfCall(e, &stack)
	require.Empty(t, stack)
}

// TestFindEdgeToMatchesExactTarget is the crux of context sensitivity:
// given two may_return edges leaving a shared callee, the pop
// transition must pick the one whose target is the specific call
// site's own return site, not an arbitrary may_return edge.
func TestFindEdgeToMatchesExactTarget(t *testing.T) {
	g := lpds.NewGraph()
	callee := g.AddNode("callee.0")
	ret1 := g.AddNode("caller1.1")
	ret2 := g.AddNode("caller2.1")

	e1 := g.AddEdge(callee, ret1, false, true, nil, nil)
	e2 := g.AddEdge(callee, ret2, false, true, nil, nil)

	require.Same(t, e1, findEdgeTo([]*lpds.Edge{e1, e2}, ret1))
	require.Same(t, e2, findEdgeTo([]*lpds.Edge{e1, e2}, ret2))
	require.Nil(t, findEdgeTo([]*lpds.Edge{e1, e2}, g.AddNode("someone.else")))
}

// TestStepPopUsesContextNotRandomChoice drives step() through a
// shared callee with two competing may_return edges and confirms the
// pop transition deterministically returns to the call site recorded
// on the stack, regardless of which *rand.Rand is supplied: a
// context-insensitive walker that picked any may_return edge at
// random would occasionally (and wrongly) return to the other
// caller's site.
func TestStepPopUsesContextNotRandomChoice(t *testing.T) {
	g := lpds.NewGraph()
	callee := g.AddNode("callee.0")
	ret1 := g.AddNode("caller1.1")
	ret2 := g.AddNode("caller2.1")
	g.AddEdge(callee, ret1, false, true, nil, []int{1})
	g.AddEdge(callee, ret2, false, true, nil, []int{2})

	w := &Walker{Graph: g}
	for seed := int64(0); seed < 5; seed++ {
		stack := []*lpds.Node{ret1}
		edge, next, ok := w.step(callee, &stack, rand.New(rand.NewSource(seed)))
		require.True(t, ok)
		require.Same(t, ret1, next)
		require.Same(t, ret1, edge.To)
		require.Empty(t, stack, "the matched return site must be popped")
	}
}
