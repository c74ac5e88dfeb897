// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package names assigns every IR value a stable symbolic name
// (VarName) so that later components can reason about values
// textually rather than by SSA identity alone, and maintains the
// small field-of-struct memory model that backs it.
package names

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/aclements/go-eesi/ir"
)

// Kind is the tag of a VarName's variant.
type Kind int

const (
	KindEmpty Kind = iota
	KindInt
	KindErrorCode
	KindFunction
	KindMemory
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindInt:
		return "Int"
	case KindErrorCode:
		return "ErrorCode"
	case KindFunction:
		return "Function"
	case KindMemory:
		return "Memory"
	case KindMulti:
		return "Multi"
	}
	return "Kind(?)"
}

// Scope indicates where a VarName's binding is visible.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeLocal
	ScopeGlobal
)

// MemoryName is a field-of-struct key: a base object name plus up to
// two levels of index (field/array indices), as produced by GEP
// chains.
type MemoryName struct {
	Base, Idx1, Idx2 string
}

func (m MemoryName) Key() string {
	var b strings.Builder
	b.WriteString(m.Base)
	if m.Idx1 != "" {
		b.WriteByte('.')
		b.WriteString(m.Idx1)
	}
	if m.Idx2 != "" {
		b.WriteByte('.')
		b.WriteString(m.Idx2)
	}
	return b.String()
}

// Opaque keys are produced for type-punned unions and must never
// participate in the memory model's merge rules.
func (m MemoryName) Opaque() bool {
	k := m.Key()
	return k == "union" || k == "union.0.0"
}

// VarName is the tagged union over {Int, ErrorCode, Function, Memory,
// Multi, Empty} described in spec.md §3. Invariant: a Multi never
// contains another Multi (flattened at construction).
type VarName struct {
	Kind  Kind
	Scope Scope
	Owner *ir.Function // non-nil iff Scope == ScopeLocal

	Name string      // canonical name payload for Int/ErrorCode
	Mem  MemoryName  // payload for Memory
	Func *ir.Function // payload for Function
	Multi []VarName  // payload for Multi; flattened, deduplicated, never nested
}

// Empty is the VarName assigned to values with no useful name.
var Empty = VarName{Kind: KindEmpty}

// NewInt builds an Int VarName with the given scope (the resolver
// assigns Int names either global scope, for module-level symbols, or
// local scope for synthesized temporaries — callers pick via scope).
func NewInt(name string, scope Scope, owner *ir.Function) VarName {
	return VarName{Kind: KindInt, Scope: scope, Owner: owner, Name: name}
}

// NewErrorCode builds an ErrorCode VarName, e.g. the "OK" sentinel or
// a TENTATIVE_<name> external presentation.
func NewErrorCode(name string) VarName {
	return VarName{Kind: KindErrorCode, Scope: ScopeGlobal, Name: name}
}

// NewFunction builds a VarName referring to a function, used to model
// function pointers and call exchange variables.
func NewFunction(fn *ir.Function) VarName {
	return VarName{Kind: KindFunction, Scope: ScopeGlobal, Func: fn, Name: fn.IRName}
}

// NewMemory builds a VarName for a field-of-struct location.
func NewMemory(m MemoryName) VarName {
	return VarName{Kind: KindMemory, Scope: ScopeGlobal, Mem: m}
}

// NewMulti flattens and deduplicates vs into a single Multi VarName.
// If, after flattening, only one distinct name remains, that name is
// returned unwrapped (a singleton Multi would be indistinguishable
// from its element and only complicates downstream matching).
func NewMulti(vs ...VarName) VarName {
	seen := map[string]VarName{}
	var order []string
	var add func(v VarName)
	add = func(v VarName) {
		if v.Kind == KindMulti {
			for _, inner := range v.Multi {
				add(inner)
			}
			return
		}
		key := v.key()
		if _, ok := seen[key]; !ok {
			seen[key] = v
			order = append(order, key)
		}
	}
	for _, v := range vs {
		add(v)
	}
	if len(order) == 1 {
		return seen[order[0]]
	}
	slices.Sort(order)
	flat := make([]VarName, len(order))
	for i, k := range order {
		flat[i] = seen[k]
	}
	return VarName{Kind: KindMulti, Scope: ScopeNone, Multi: flat}
}

// key is the canonical identity used for deduplication within Multi.
func (v VarName) key() string {
	switch v.Kind {
	case KindEmpty:
		return "empty"
	case KindInt, KindErrorCode:
		return v.Kind.String() + ":" + v.Name
	case KindFunction:
		return "Function:" + v.Func.IRName
	case KindMemory:
		return "Memory:" + v.Mem.Key()
	case KindMulti:
		var parts []string
		for _, inner := range v.Multi {
			parts = append(parts, inner.key())
		}
		return "Multi:" + strings.Join(parts, ",")
	}
	return "?"
}

func (v VarName) String() string {
	switch v.Kind {
	case KindEmpty:
		return ""
	case KindInt:
		return v.Name
	case KindErrorCode:
		return v.Name
	case KindFunction:
		return v.Func.IRName
	case KindMemory:
		return v.Mem.Key()
	case KindMulti:
		parts := make([]string, len(v.Multi))
		for i, inner := range v.Multi {
			parts[i] = inner.String()
		}
		return "{" + strings.Join(parts, "|") + "}"
	}
	return "?"
}

// IsMulti reports whether v is a Multi VarName.
func (v VarName) IsMulti() bool { return v.Kind == KindMulti }

// Equal reports whether v and o name the same thing.
func (v VarName) Equal(o VarName) bool { return v.key() == o.key() }

// FunctionExchangeName is the synthetic global VarName naming a
// callee's return value ("callee$return", spec.md's "exchange
// variable").
func FunctionExchangeName(calleeIRName string) string {
	return calleeIRName + "$return"
}

// ArgName is the VarName given to a function argument ("fn$arg").
func ArgName(fnIRName, argName string) string {
	return fnIRName + "$" + argName
}

// TentativePrefix prefixes error-code names presented outside the
// module boundary (spec.md §6).
const TentativePrefix = "TENTATIVE_"

// TentativeName applies TentativePrefix to an error-code name.
func TentativeName(name string) string {
	return TentativePrefix + name
}
