// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nullability

import (
	"github.com/go-interpreter/nullcheck/lattice"

	mapset "github.com/deckarep/golang-set/v2"
)

// Tagged pairs a lattice value with its provenance: the set of
// instruction identities (offsets) that contributed to it (spec.md §3).
// Provenance is metadata, not part of the order: Leq is delegated
// entirely to V; Join and Meet both union the provenance sets regardless
// of which operation is being performed on V, per spec.md §3's "Join
// combines both components... meet combines both components (set union
// and V-meet)".
type Tagged[V lattice.Domain[V]] struct {
	Provenance mapset.Set[int]
	Value      V
}

// NewTagged builds a Tagged value with provenance seeded from a single
// instruction offset.
func NewTagged[V lattice.Domain[V]](offset int, v V) Tagged[V] {
	return Tagged[V]{Provenance: mapset.NewThreadUnsafeSet(offset), Value: v}
}

// Leq delegates to the order on Value alone; provenance never affects it.
func (t Tagged[V]) Leq(other Tagged[V]) bool {
	return t.Value.Leq(other.Value)
}

// Join unions provenance and joins the underlying values.
func (t Tagged[V]) Join(other Tagged[V]) Tagged[V] {
	return Tagged[V]{
		Provenance: unionProvenance(t.Provenance, other.Provenance),
		Value:      t.Value.Join(other.Value),
	}
}

// Meet unions provenance (not intersects: spec.md §3 is explicit that
// meet, like join, unions the provenance component) and meets the
// underlying values.
func (t Tagged[V]) Meet(other Tagged[V]) Tagged[V] {
	return Tagged[V]{
		Provenance: unionProvenance(t.Provenance, other.Provenance),
		Value:      t.Value.Meet(other.Value),
	}
}

// Equal requires both the provenance and the value to be equal.
func (t Tagged[V]) Equal(other Tagged[V]) bool {
	if !t.Value.Equal(other.Value) {
		return false
	}
	return provenanceEqual(t.Provenance, other.Provenance)
}

func unionProvenance(a, b mapset.Set[int]) mapset.Set[int] {
	switch {
	case a == nil && b == nil:
		return mapset.NewThreadUnsafeSet[int]()
	case a == nil:
		return b.Clone()
	case b == nil:
		return a.Clone()
	default:
		return a.Union(b)
	}
}

func provenanceEqual(a, b mapset.Set[int]) bool {
	if a == nil {
		a = mapset.NewThreadUnsafeSet[int]()
	}
	if b == nil {
		b = mapset.NewThreadUnsafeSet[int]()
	}
	return a.Equal(b)
}
