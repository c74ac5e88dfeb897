// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package names

// memoryModel implements the small field-of-struct abstraction of
// spec.md §4.3: a map from MemoryName to the VarName currently
// believed to live there, populated by global struct literals and
// GEP+store sequences.
type memoryModel struct {
	m map[string]VarName
}

func newMemoryModel() *memoryModel {
	return &memoryModel{m: make(map[string]VarName)}
}

func (mm *memoryModel) get(key MemoryName) (VarName, bool) {
	v, ok := mm.m[key.Key()]
	return v, ok
}

// set overwrites key's binding unconditionally (used when seeding
// from a global struct literal or a fresh non-merging store).
func (mm *memoryModel) set(key MemoryName, v VarName) {
	if key.Opaque() {
		return
	}
	mm.m[key.Key()] = v
}

// merge applies the §4.3 merge rule for memory_model[key] <- update:
//
//	both Multi        -> union
//	only one Multi     -> insert the other into it
//	both Function, distinct -> fresh Multi of both
//	otherwise          -> overwrite
//
// Keys with an opaque (type-punned) name are ignored entirely.
func (mm *memoryModel) merge(key MemoryName, update VarName) {
	if key.Opaque() {
		return
	}
	k := key.Key()
	existing, ok := mm.m[k]
	if !ok {
		mm.m[k] = update
		return
	}
	switch {
	case existing.IsMulti() && update.IsMulti():
		mm.m[k] = NewMulti(existing, update)
	case existing.IsMulti():
		mm.m[k] = NewMulti(existing, update)
	case update.IsMulti():
		mm.m[k] = NewMulti(update, existing)
	case existing.Kind == KindFunction && update.Kind == KindFunction && !existing.Equal(update):
		mm.m[k] = NewMulti(existing, update)
	default:
		mm.m[k] = update
	}
}
