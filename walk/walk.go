// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package walk implements the context-sensitive random walker that
// samples label sequences ("sentences") from a built LPDS, for
// training function-embedding models. Its uniform edge choice is
// grounded on go-weave/amb's Amb(n), which also picks uniformly among
// n branches under a hard depth budget; the walker reuses that same
// "uniform Intn(n) pick with a length bound" shape with a per-walk
// call/may-return stack layered on top for context sensitivity.
package walk

import (
	"context"
	"math/rand"

	"github.com/aclements/go-eesi/dpool"
	"github.com/aclements/go-eesi/lpds"
)

// Sentence is one completed walk: the label it started from and the
// sequence of labels emitted along the way.
type Sentence struct {
	StartLabel string
	Labels     []string
}

// Writer accepts completed sentences. Implementations must be safe
// for concurrent use, since walks run in parallel.
type Writer interface {
	Write(Sentence) error
}

// Walker generates sentences by sampling random paths over Graph.
type Walker struct {
	Graph *lpds.Graph

	// LabelNames maps an interned label id (as attached to LPDS
	// edges) back to its string form: lpds.Graph.LabelNames(), not
	// an icfg.EdgeListRecord.IDToLabel directly, since Ingest folds
	// callee-name labels in under ids the ICFG's own table never
	// assigned.
	LabelNames map[int]string

	WalksPerLabel int
	WalkLength    int
	Writer        Writer

	// Workers bounds walker concurrency; <=0 uses dpool's default.
	Workers int

	// Rand, if set, is used instead of a freshly-seeded source for
	// every random choice. Not safe to share across concurrent
	// walks: set it alongside Workers=1 for a deterministic,
	// serialized run (spec.md §5).
	Rand *rand.Rand
}

// job is one (start label, walk index) unit of work, the granularity
// dpool dispatches across: spec.md §5 calls this a per-label dispatch
// keyed by label instead of function.
type job struct {
	labelID int
	label   string
}

// Run generates WalksPerLabel sentences for every label present in
// Graph, shuffled per the scheduling model in spec.md §4.11, handing
// each completed sentence to Writer.
func (w *Walker) Run(ctx context.Context) error {
	ids := w.Graph.AllLabels()
	jobs := make([]job, 0, len(ids)*w.WalksPerLabel)
	for _, id := range ids {
		name, ok := w.LabelNames[id]
		if !ok {
			continue
		}
		for n := 0; n < w.WalksPerLabel; n++ {
			jobs = append(jobs, job{labelID: id, label: name})
		}
	}
	shuffle(jobs, w.rng())

	return dpool.RunVoid(ctx, w.Workers, jobs, func(_ context.Context, j job) error {
		s, ok := w.walk(j.labelID, j.label)
		if !ok {
			return nil
		}
		return w.Writer.Write(s)
	})
}

func (w *Walker) rng() *rand.Rand {
	if w.Rand != nil {
		return w.Rand
	}
	return rand.New(rand.NewSource(rand.Int63()))
}

func shuffle(jobs []job, r *rand.Rand) {
	r.Shuffle(len(jobs), func(i, j int) { jobs[i], jobs[j] = jobs[j], jobs[i] })
}

// walk runs one walk starting from startLabel, per the 4-step
// algorithm of spec.md §4.11.
func (w *Walker) walk(startLabelID int, startLabel string) (Sentence, bool) {
	r := w.rng()

	edges := w.Graph.EdgesForLabel(startLabelID)
	if len(edges) == 0 {
		return Sentence{}, false
	}
	start := edges[r.Intn(len(edges))]

	sent := Sentence{StartLabel: startLabel, Labels: []string{startLabel}}
	current := start.To
	var stack []*lpds.Node

	for len(sent.Labels) < w.WalkLength && current != nil {
		edge, next, ok := w.step(current, &stack, r)
		if !ok {
			break
		}
		if label, ok := w.pickLabel(edge, r); ok {
			sent.Labels = append(sent.Labels, label)
		}
		current = next
	}

	return sent, true
}

// step performs one transition from current, mutating stack per the
// call-push/may-return-pop discipline, and returns the edge taken and
// its target (nil target ends the walk).
func (w *Walker) step(current *lpds.Node, stack *[]*lpds.Node, r *rand.Rand) (*lpds.Edge, *lpds.Node, bool) {
	out := current.OutEdges()
	if len(out) == 0 {
		return nil, nil, false
	}
	if len(out) == 1 {
		e := out[0]
		pushIfCall(e, stack)
		return e, e.To, true
	}

	var mayRet, other []*lpds.Edge
	for _, e := range out {
		if e.IsMayReturn {
			mayRet = append(mayRet, e)
		} else {
			other = append(other, e)
		}
	}

	if len(other) == 0 {
		// Pop transition: every outgoing edge is may_return.
		if n := len(*stack); n > 0 {
			target := (*stack)[n-1]
			*stack = (*stack)[:n-1]
			e := findEdgeTo(mayRet, target)
			if e == nil {
				e = mayRet[r.Intn(len(mayRet))]
			}
			return e, e.To, true
		}
		if len(mayRet) > 0 {
			e := mayRet[r.Intn(len(mayRet))]
			return e, e.To, true
		}
		return nil, nil, false
	}

	e := other[r.Intn(len(other))]
	pushIfCall(e, stack)
	return e, e.To, true
}

// pushIfCall pushes the call edge's sibling non-call local successor
// (the return site) onto the return stack, per spec.md §4.11 step 2:
// "push onto the return stack each non-call outgoing edge (there is
// exactly one, the local successor)".
func pushIfCall(e *lpds.Edge, stack *[]*lpds.Node) {
	if !e.IsCall {
		return
	}
	for _, sib := range e.From.OutEdges() {
		if !sib.IsCall && !sib.IsMayReturn {
			*stack = append(*stack, sib.To)
		}
	}
}

// findEdgeTo returns the edge in edges whose target is to, if any —
// used so a pop transition lands on the exact call's own return site
// rather than an arbitrary may_return edge when more than one is
// available.
func findEdgeTo(edges []*lpds.Edge, to *lpds.Node) *lpds.Edge {
	for _, e := range edges {
		if e.To == to {
			return e
		}
	}
	return nil
}

// pickLabel uniformly chooses one of edge's attached label ids and
// resolves it to a string; an edge with no labels emits nothing for
// that step.
func (w *Walker) pickLabel(e *lpds.Edge, r *rand.Rand) (string, bool) {
	if len(e.LabelIDs) == 0 {
		return "", false
	}
	id := e.LabelIDs[r.Intn(len(e.LabelIDs))]
	name, ok := w.LabelNames[id]
	return name, ok
}
