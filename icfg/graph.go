// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package icfg

import "github.com/aclements/go-eesi/ir"

// Vertex is one program point: a basic-block entry/exit, an
// instruction, a predicate-value junction, or a declaration leaf.
type Vertex struct {
	Name   string
	Labels []int // label ids attached by the label pass
}

// MetaLabel tags the role an Edge plays in the call/return discipline
// the walker relies on for context sensitivity.
type MetaLabel string

const (
	MetaNone     MetaLabel = ""
	MetaCall     MetaLabel = "call"
	MetaRet      MetaLabel = "ret"
	MetaMayRet   MetaLabel = "may_ret"
)

// Edge is a directed edge of the ICFG.
type Edge struct {
	Source, Target *Vertex
	MetaLabel      MetaLabel
	SourceLoc      ir.Location
	LabelIDs       []int
}

// Graph is the built ICFG: vertices keyed by stack name (idempotent
// under repeated adds), a flat edge list, and the label table the
// label pass interned strings into.
type Graph struct {
	vertices map[string]*Vertex
	edges    []*Edge
	Labels   *LabelTable
}

func newGraph() *Graph {
	return &Graph{vertices: make(map[string]*Vertex), Labels: NewLabelTable()}
}

// addNode returns the vertex named name, creating it if this is the
// first time name is seen.
func (g *Graph) addNode(name string) *Vertex {
	if v, ok := g.vertices[name]; ok {
		return v
	}
	v := &Vertex{Name: name}
	g.vertices[name] = v
	return v
}

// Node looks up an existing vertex by name.
func (g *Graph) Node(name string) (*Vertex, bool) {
	v, ok := g.vertices[name]
	return v, ok
}

func (g *Graph) addEdge(from, to *Vertex, meta MetaLabel, loc ir.Location) *Edge {
	e := &Edge{Source: from, Target: to, MetaLabel: meta, SourceLoc: loc}
	g.edges = append(g.edges, e)
	return e
}

// Edges returns every edge built so far, in insertion order.
func (g *Graph) Edges() []*Edge { return g.edges }

// Vertices returns every vertex built so far.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(g.vertices))
	for _, v := range g.vertices {
		out = append(out, v)
	}
	return out
}

// EdgeRecord is the serializable form of an Edge (spec.md §6).
type EdgeRecord struct {
	Source, Target string
	MetaLabel      string
	SourceLocation ir.Location
	LabelID        []int
}

// EdgeListRecord is the full serialized ICFG handed to the output
// URI: the edge list plus the id-to-label table needed to decode it.
type EdgeListRecord struct {
	Edges     []EdgeRecord
	IDToLabel map[int]string
}

// ToEdgeListRecord flattens g into its wire form, copying each
// vertex's attached label ids onto every edge leaving it so a
// consumer that only sees the edge list (not the vertex set) still
// recovers per-vertex labels.
func (g *Graph) ToEdgeListRecord() EdgeListRecord {
	out := EdgeListRecord{IDToLabel: make(map[int]string, g.Labels.Len())}
	for id := 0; id < g.Labels.Len(); id++ {
		s, _ := g.Labels.String(id)
		out.IDToLabel[id] = s
	}
	for _, e := range g.edges {
		labelIDs := append([]int{}, e.Source.Labels...)
		out.Edges = append(out.Edges, EdgeRecord{
			Source:         e.Source.Name,
			Target:         e.Target.Name,
			MetaLabel:      string(e.MetaLabel),
			SourceLocation: e.SourceLoc,
			LabelID:        labelIDs,
		})
	}
	return out
}
