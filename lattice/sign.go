// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lattice implements the sign lattice used to abstract the
// return-value domain of functions, and a confidence-weighted variant
// of the same algebra used to combine uncertain specification
// evidence.
package lattice

// Sign is an element of the sign lattice. The eight proper elements
// form a lattice ordered by Hasse edges
//
//	Bottom <= {Zero, Less, Greater} <= {LessEqual, GreaterEqual, NotZero} <= Top
//
// Invalid is a sentinel outside the lattice meaning "no specification".
type Sign int

const (
	Bottom Sign = iota
	Zero
	Less
	Greater
	LessEqual
	GreaterEqual
	NotZero
	Top
	Invalid
)

func (s Sign) String() string {
	switch s {
	case Bottom:
		return "Bottom"
	case Zero:
		return "Zero"
	case Less:
		return "LessThanZero"
	case Greater:
		return "GreaterThanZero"
	case LessEqual:
		return "LessThanEqualZero"
	case GreaterEqual:
		return "GreaterThanEqualZero"
	case NotZero:
		return "NotZero"
	case Top:
		return "Top"
	case Invalid:
		return "Invalid"
	}
	return "Sign(?)"
}

// rank groups the lattice into its four Hasse levels: Bottom, the
// three atoms, the three two-atom elements, and Top. Elements at the
// same rank are incomparable.
var rank = map[Sign]int{
	Bottom:       0,
	Zero:         1,
	Less:         1,
	Greater:      1,
	LessEqual:    2,
	GreaterEqual: 2,
	NotZero:      2,
	Top:          3,
}

// below[s] is the set of rank-1 atoms that s covers (is >= to).
var below = map[Sign]map[Sign]bool{
	Bottom:       {},
	Zero:         {Zero: true},
	Less:         {Less: true},
	Greater:      {Greater: true},
	LessEqual:    {Zero: true, Less: true},
	GreaterEqual: {Zero: true, Greater: true},
	NotZero:      {Less: true, Greater: true},
	Top:          {Zero: true, Less: true, Greater: true},
}

// complementOf gives the fixed complement pairing from spec.md §4.1;
// LessEqual and Greater are mutual complements (a deliberate
// asymmetry: the pairing is not a clean order-reversal).
var complementOf = map[Sign]Sign{
	Bottom:       Top,
	Top:          Bottom,
	Zero:         NotZero,
	NotZero:      Zero,
	Less:         GreaterEqual,
	GreaterEqual: Less,
	Greater:      LessEqual,
	LessEqual:    Greater,
}

// Meet returns the greatest lower bound of a and b. Applied to
// Invalid, Meet returns Invalid.
func Meet(a, b Sign) Sign {
	if a == Invalid || b == Invalid {
		return Invalid
	}
	if a == b {
		return a
	}
	// Intersection of the atom sets each element covers, mapped
	// back to the smallest element covering exactly that set.
	atoms := intersect(below[a], below[b])
	return fromAtoms(atoms)
}

// Join returns the least upper bound of a and b. Applied to Invalid,
// Join returns Invalid.
func Join(a, b Sign) Sign {
	if a == Invalid || b == Invalid {
		return Invalid
	}
	if a == b {
		return a
	}
	atoms := union(below[a], below[b])
	return fromAtoms(atoms)
}

// Complement returns the lattice complement of a. Applied to Invalid,
// Complement returns Invalid.
func Complement(a Sign) Sign {
	if a == Invalid {
		return Invalid
	}
	return complementOf[a]
}

// IsLessThan reports whether a is strictly below b in the lattice
// order. Applied to Invalid, IsLessThan returns false.
func IsLessThan(a, b Sign) bool {
	if a == Invalid || b == Invalid {
		return false
	}
	if a == b {
		return false
	}
	return isSubset(below[a], below[b])
}

// IsLessEqual reports whether a <= b in the lattice order.
func IsLessEqual(a, b Sign) bool {
	return a == b || IsLessThan(a, b)
}

func intersect(a, b map[Sign]bool) map[Sign]bool {
	out := make(map[Sign]bool, len(a))
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func union(a, b map[Sign]bool) map[Sign]bool {
	out := make(map[Sign]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func isSubset(a, b map[Sign]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// fromAtoms returns the unique lattice element whose atom set
// (below[element]) equals atoms exactly.
func fromAtoms(atoms map[Sign]bool) Sign {
	for s, set := range below {
		if len(set) == len(atoms) && isSubset(set, atoms) {
			return s
		}
	}
	// Unreachable: the eight proper elements' atom sets cover
	// every subset of {Zero, Less, Greater} that can arise from
	// meet/join of two such sets.
	return Bottom
}
