// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package routine holds the reflection-derived facts about an annotated
// routine that the analysis needs but does not itself compute: its
// parameter names, its declared annotations, and the globals it can see.
// Obtaining these from a live routine object is out of scope (spec.md §1);
// callers construct a Metadata value however their host language demands.
package routine

// ReturnKey is the distinguished annotation key used for a routine's
// return-type annotation, mirroring the original's use of the literal
// string "return" as a dict key alongside parameter names.
const ReturnKey = "return"

// Annotation is a pre-classified type annotation: the host's syntax-level
// classifier (out of scope here, see spec.md §1 and §4.2) has already
// decided whether the annotated type is nullable.
type Annotation struct {
	// Nullable is true iff the annotation is the null type, or an
	// optional/union type whose members include the null type.
	Nullable bool
}

// Metadata describes one annotated routine.
type Metadata struct {
	// ParameterNames lists the routine's parameters in declaration
	// order; a STORE_FAST/LOAD_FAST slot index indexes into this slice.
	ParameterNames []string

	// Annotations maps a parameter name (or ReturnKey) to its annotation.
	// A name absent from this map has no annotation and is treated as
	// NotNull (spec.md §4.2).
	Annotations map[string]Annotation

	// Globals maps a global name to the routine it resolves to, if any.
	// A nil entry (an arbitrary global, not a callable routine) has no
	// return annotation, so the CALL_FUNCTION transfer rule (spec.md
	// §4.3) treats a call through it as NotNull.
	Globals map[string]*Metadata
}

// ReturnAnnotation reports the routine's return annotation, defaulting to
// NotNull (not nullable) when none was declared.
func (m *Metadata) ReturnAnnotation() Annotation {
	if m == nil {
		return Annotation{}
	}
	a, ok := m.Annotations[ReturnKey]
	if !ok {
		return Annotation{}
	}
	return a
}

// ParameterAnnotation reports the annotation declared for a parameter by
// name, defaulting to NotNull when none was declared.
func (m *Metadata) ParameterAnnotation(name string) Annotation {
	if m == nil {
		return Annotation{}
	}
	a, ok := m.Annotations[name]
	if !ok {
		return Annotation{}
	}
	return a
}

// SlotOf returns the local slot index of a parameter by name, and whether
// it was found. Grounded on dataflow.py's varnames.index(key) lookup.
func (m *Metadata) SlotOf(name string) (int, bool) {
	for i, n := range m.ParameterNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
