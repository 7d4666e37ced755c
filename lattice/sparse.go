// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"golang.org/x/exp/maps"
)

// Sparse is a sparse pointwise domain keyed by K (a local slot index or a
// global name), holding elements of a domain V. It backs both the locals
// and globals domains (spec.md §3).
type Sparse[K comparable, V Domain[V]] map[K]V

// Clone returns a shallow copy, matching the "incoming env is cloned"
// construction step of the transfer function (spec.md §4.3).
func (s Sparse[K, V]) Clone() Sparse[K, V] {
	out := make(Sparse[K, V], len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the sparse domain's keys in Go's map iteration order, which
// is not stable from one call to the next; the result is not sorted.
// Collected via golang.org/x/exp/maps to avoid hand-rolling key collection.
func (s Sparse[K, V]) Keys() []K {
	return maps.Keys(s)
}

// Leq reports whether s is at most as abstract as other, per spec.md §3:
// a key present only on one side is carried over unchanged and does not
// affect the order (this mirrors the Join/Meet asymmetry documented
// below; see open question ii in spec.md §9).
func (s Sparse[K, V]) Leq(other Sparse[K, V]) bool {
	for k, v := range s {
		if ov, ok := other[k]; ok {
			if !v.Leq(ov) {
				return false
			}
		}
	}
	return true
}

// Join computes the pointwise join. A key present in only one operand is
// carried over unchanged into the result (spec.md §3, §9 open question ii).
func (s Sparse[K, V]) Join(other Sparse[K, V]) Sparse[K, V] {
	out := make(Sparse[K, V], len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		if existing, ok := out[k]; ok {
			out[k] = existing.Join(v)
		} else {
			out[k] = v
		}
	}
	return out
}

// Meet computes the pointwise meet. As with Join, a key present in only
// one operand is carried over unchanged. An "honest" meet would instead
// treat the absent side as bottom and drop or null out the key, but
// spec.md §3 documents the source's asymmetric behavior and §9 open
// question (ii) directs implementers to keep it explicit rather than
// silently correct it.
func (s Sparse[K, V]) Meet(other Sparse[K, V]) Sparse[K, V] {
	out := make(Sparse[K, V], len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		if existing, ok := out[k]; ok {
			out[k] = existing.Meet(v)
		} else {
			out[k] = v
		}
	}
	return out
}

// Equal reports whether the two sparse domains hold equal values at every
// key present in either.
func (s Sparse[K, V]) Equal(other Sparse[K, V]) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
