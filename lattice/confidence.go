// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

// Confidence is a real-valued confidence score in [0, 1].
type Confidence = float64

// Element is a confidence-weighted lattice element: one confidence
// per rank-1 atom (Zero, Less, Greater). Derivations must preserve
// 0 <= c <= 1 for each component.
type Element struct {
	Zero, Less, Greater Confidence
}

// MeetIdentity is the identity element for Meet/MeetOnVector.
var MeetIdentity = Element{1, 1, 1}

// JoinIdentity is the identity element for Join/JoinOnVector.
var JoinIdentity = Element{0, 0, 0}

func fmin(a, b Confidence) Confidence {
	if a < b {
		return a
	}
	return b
}

func fmax(a, b Confidence) Confidence {
	if a > b {
		return a
	}
	return b
}

// MeetElement returns the element-wise minimum of a and b.
func MeetElement(a, b Element) Element {
	return Element{
		Zero:    fmin(a.Zero, b.Zero),
		Less:    fmin(a.Less, b.Less),
		Greater: fmin(a.Greater, b.Greater),
	}
}

// JoinElement returns the element-wise maximum of a and b.
func JoinElement(a, b Element) Element {
	return Element{
		Zero:    fmax(a.Zero, b.Zero),
		Less:    fmax(a.Less, b.Less),
		Greater: fmax(a.Greater, b.Greater),
	}
}

// MeetOnVector lifts element-wise min across a sequence of elements.
// An empty sequence returns MeetIdentity.
func MeetOnVector(es []Element) Element {
	acc := MeetIdentity
	for _, e := range es {
		acc = MeetElement(acc, e)
	}
	return acc
}

// JoinOnVector lifts element-wise max across a sequence of elements.
// An empty sequence returns JoinIdentity.
func JoinOnVector(es []Element) Element {
	acc := JoinIdentity
	for _, e := range es {
		acc = JoinElement(acc, e)
	}
	return acc
}

// KeepHighest projects es to the single element with the maximal
// component sum. Panics if es is empty.
func KeepHighest(es []Element) Element {
	if len(es) == 0 {
		panic("lattice: KeepHighest of empty slice")
	}
	best := es[0]
	bestSum := sum(best)
	for _, e := range es[1:] {
		if s := sum(e); s > bestSum {
			best, bestSum = e, s
		}
	}
	return best
}

func sum(e Element) Confidence {
	return e.Zero + e.Less + e.Greater
}

// Project maps e to a Sign by taking the join of every atom whose
// confidence strictly exceeds threshold. threshold is always supplied
// by the caller; there is no hard-coded default.
func (e Element) Project(threshold Confidence) Sign {
	atoms := map[Sign]bool{}
	if e.Zero > threshold {
		atoms[Zero] = true
	}
	if e.Less > threshold {
		atoms[Less] = true
	}
	if e.Greater > threshold {
		atoms[Greater] = true
	}
	return fromAtoms(atoms)
}
