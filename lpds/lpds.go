// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lpds implements the labeled pushdown system the random
// walker samples paths over: a concurrent-safe multigraph generalizing
// memmodel.Graph's node/adjacency shape with edge labels and the
// call/may-return tags a context-sensitive walk needs.
package lpds

import (
	"hash/fnv"
	"sync"

	"github.com/aclements/go-eesi/icfg"
)

const shardCount = 32

// Node is one vertex of the LPDS, identified by name.
type Node struct {
	Name string

	mu  sync.Mutex
	out []*Edge
}

// Edge is a directed, labeled edge. Two parallel edges between the
// same pair of nodes are distinct entries (Graph is a multigraph).
type Edge struct {
	From, To    *Node
	IsCall      bool
	IsMayReturn bool
	CalleeNames []string // deduplicated callee names, set on every edge out of a call node
	LabelIDs    []int
}

// Graph is the concurrent-safe LPDS: a node-by-name index, per-source
// adjacency, and a label-to-edges multimap, built from an ICFG
// edge-list via Ingest. Construction is safe for concurrent callers
// (spec.md §5's "LPDS during construction" shared state), using
// sharded locks keyed by a hash of the node name rather than one
// global lock, per the teacher's "Pointer-heavy LPDS" design note.
type Graph struct {
	shards [shardCount]shard

	labelMu sync.Mutex
	byLabel map[int][]*Edge

	namesMu   sync.Mutex
	labelName map[int]string
	nameLabel map[string]int
	nextLabel int
}

type shard struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

// NewGraph returns an empty LPDS.
func NewGraph() *Graph {
	g := &Graph{
		byLabel:   make(map[int][]*Edge),
		labelName: make(map[int]string),
		nameLabel: make(map[string]int),
	}
	for i := range g.shards {
		g.shards[i].nodes = make(map[string]*Node)
	}
	return g
}

// internLabel returns the id for name, assigning a fresh one (above
// any id already claimed by the ICFG's own LabelTable or carried on an
// ingested edge) the first time
// name is seen. Used to fold callee-name labels into the same id space
// as the ICFG's F2V_ labels, so they're indexed and emitted the same
// way.
func (g *Graph) internLabel(name string) int {
	g.namesMu.Lock()
	defer g.namesMu.Unlock()
	if id, ok := g.nameLabel[name]; ok {
		return id
	}
	id := g.nextLabel
	g.nextLabel++
	g.nameLabel[name] = id
	g.labelName[id] = name
	return id
}

// LabelNames returns a snapshot of every label id Ingest has assigned
// a string to, both the ICFG's own interned F2V_ labels and the
// callee-name labels Ingest folds in alongside them. Callers build a
// walk.Walker's LabelNames from this instead of an
// icfg.EdgeListRecord.IDToLabel directly, since the latter alone is
// missing the callee-name ids.
func (g *Graph) LabelNames() map[int]string {
	g.namesMu.Lock()
	defer g.namesMu.Unlock()
	out := make(map[int]string, len(g.labelName))
	for id, s := range g.labelName {
		out[id] = s
	}
	return out
}

func shardFor(name string) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32() % shardCount)
}

// AddNode returns the node named name, creating it if absent.
// Idempotent: calling it twice with the same name yields the same
// *Node.
func (g *Graph) AddNode(name string) *Node {
	s := &g.shards[shardFor(name)]
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[name]; ok {
		return n
	}
	n := &Node{Name: name}
	s.nodes[name] = n
	return n
}

// Node looks up an existing node by name without creating it.
func (g *Graph) Node(name string) (*Node, bool) {
	s := &g.shards[shardFor(name)]
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[name]
	return n, ok
}

// AddEdge adds a new directed edge from source to target; both must
// already have been added via AddNode. Calling it twice with
// identical arguments yields two distinct edges, per the multigraph
// contract.
func (g *Graph) AddEdge(source, target *Node, isCall, isMayReturn bool, callees []string, labelIDs []int) *Edge {
	e := &Edge{From: source, To: target, IsCall: isCall, IsMayReturn: isMayReturn, CalleeNames: callees, LabelIDs: labelIDs}

	source.mu.Lock()
	source.out = append(source.out, e)
	source.mu.Unlock()

	g.labelMu.Lock()
	for _, id := range labelIDs {
		g.byLabel[id] = append(g.byLabel[id], e)
	}
	g.labelMu.Unlock()

	return e
}

// OutEdges returns node's outgoing edges.
func (n *Node) OutEdges() []*Edge {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Edge, len(n.out))
	copy(out, n.out)
	return out
}

// EdgesForLabel returns every edge tagged with label id, the walker's
// starting point for a given start label.
func (g *Graph) EdgesForLabel(id int) []*Edge {
	g.labelMu.Lock()
	defer g.labelMu.Unlock()
	out := make([]*Edge, len(g.byLabel[id]))
	copy(out, g.byLabel[id])
	return out
}

// AllLabels returns every label id that has at least one edge.
func (g *Graph) AllLabels() []int {
	g.labelMu.Lock()
	defer g.labelMu.Unlock()
	out := make([]int, 0, len(g.byLabel))
	for id := range g.byLabel {
		out = append(out, id)
	}
	return out
}

// NodeCount and EdgeCount support the counts operations named in
// spec.md §4.10.
func (g *Graph) NodeCount() int {
	n := 0
	for i := range g.shards {
		g.shards[i].mu.Lock()
		n += len(g.shards[i].nodes)
		g.shards[i].mu.Unlock()
	}
	return n
}

func (g *Graph) EdgeCount() int {
	n := 0
	for i := range g.shards {
		s := &g.shards[i]
		s.mu.Lock()
		for _, node := range s.nodes {
			n += len(node.OutEdges())
		}
		s.mu.Unlock()
	}
	return n
}

// Ingest builds an LPDS from a built ICFG edge-list record, applying
// spec.md §4.10's translation rules: a "main.0"-sourced edge is
// skipped; meta_label is split into the is_call/is_may_return bits
// ("ret" edges become plain edges); every outgoing edge of a call node
// is additionally tagged with the deduplicated set of callee names;
// and each edge's label ids are kept as interned ids, translated back
// to strings via Graph.LabelNames.
//
// Callee names are themselves interned as label ids and folded into
// the edge's own label id list, not just attached as CalleeNames:
// GetLabels/EmitLabel in the ground-truth walker draw from the exact
// same label pool a call node's non-call edges already carry, so a
// function name is as much a sentence word (and a valid walk start
// label) as any F2V_ tag.
func Ingest(rec icfg.EdgeListRecord) *Graph {
	g := NewGraph()
	for id, s := range rec.IDToLabel {
		g.labelName[id] = s
		g.nameLabel[s] = id
		if id >= g.nextLabel {
			g.nextLabel = id + 1
		}
	}

	calleesBySource := make(map[string]map[string]bool)
	for _, er := range rec.Edges {
		// Ids carried on edges but missing from IDToLabel are
		// reserved too, so a callee-name id never shares one.
		for _, id := range er.LabelID {
			if id >= g.nextLabel {
				g.nextLabel = id + 1
			}
		}
		if er.MetaLabel == "call" {
			if calleesBySource[er.Source] == nil {
				calleesBySource[er.Source] = make(map[string]bool)
			}
			calleesBySource[er.Source][er.Target] = true
		}
	}

	for _, er := range rec.Edges {
		if er.Source == "main.0" {
			continue
		}
		src := g.AddNode(er.Source)
		dst := g.AddNode(er.Target)

		isCall := er.MetaLabel == "call"
		isMayReturn := er.MetaLabel == "may_ret"

		labelIDs := append([]int(nil), er.LabelID...)
		var callees []string
		if m := calleesBySource[er.Source]; len(m) > 0 {
			for name := range m {
				callees = append(callees, name)
				labelIDs = append(labelIDs, g.internLabel(name))
			}
		}

		g.AddEdge(src, dst, isCall, isMayReturn, callees, labelIDs)
	}
	return g
}
