// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nullability

import "github.com/go-interpreter/nullcheck/routine"

// ClassifyAnnotation maps a routine.Annotation to a Value, per spec.md
// §4.2: the annotation is nullable iff it is the null type, or an
// optional/union type whose members include the null type. A missing
// annotation is NotNull. The classification of annotation *syntax* into
// routine.Annotation.Nullable is itself out of scope (spec.md §1); this
// function is the seam where that already-classified boolean enters the
// lattice.
func ClassifyAnnotation(a routine.Annotation) Value {
	return Of(a.Nullable)
}
