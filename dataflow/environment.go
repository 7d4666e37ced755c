// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataflow implements the transfer function and fixpoint engine
// that drive the nullability abstract interpretation over a cfg.CFG
// (spec.md §4.3, §4.4).
package dataflow

import (
	"github.com/go-interpreter/nullcheck/lattice"
	"github.com/go-interpreter/nullcheck/nullability"
)

// TV is the value kind carried on the stack and in locals/globals: a
// nullability value tagged with its provenance (spec.md §3).
type TV = nullability.Tagged[nullability.Value]

// stackT is the operand-stack domain specialized to TV.
type stackT = lattice.Stack[TV]

// Environment is the tuple (stack, locals, globals, loop-shape) threaded
// through the transfer function (spec.md §3).
type Environment struct {
	Stack   lattice.Stack[TV]
	Locals  lattice.Sparse[int, TV]
	Globals lattice.Sparse[string, TV]

	// LoopShape tracks the logical operand-stack depth per active loop
	// scope; always non-empty. SETUP_LOOP pushes a zero, POP_BLOCK pops
	// the top.
	LoopShape []int
}

// Empty returns the zero environment: empty stack, no locals/globals
// bound, and a single loop scope at depth zero. Entry blocks with no
// predecessor start here (spec.md §3).
func Empty() Environment {
	return Environment{LoopShape: []int{0}}
}

// Clone performs the shallow copy the transfer function's construction
// step requires: each sub-domain is copied, the original is left
// untouched (spec.md §4.3 step 1).
func (e Environment) Clone() Environment {
	shape := make([]int, len(e.LoopShape))
	copy(shape, e.LoopShape)
	return Environment{
		Stack:     e.Stack.Clone(),
		Locals:    e.Locals.Clone(),
		Globals:   e.Globals.Clone(),
		LoopShape: shape,
	}
}

// Join computes the environment join: pointwise on each sub-domain, plus
// the loop-shape merge described in spec.md §3. Returns StackShapeMismatch
// or LoopShapeMismatch on structural disagreement.
func (e Environment) Join(other Environment) (Environment, error) {
	stack, err := e.Stack.Join(other.Stack)
	if err != nil {
		return Environment{}, StackShapeMismatch{Err: err}
	}
	shape, err := mergeLoopShape(e.LoopShape, other.LoopShape)
	if err != nil {
		return Environment{}, err
	}
	return Environment{
		Stack:     stack,
		Locals:    e.Locals.Join(other.Locals),
		Globals:   e.Globals.Join(other.Globals),
		LoopShape: shape,
	}, nil
}

// Meet computes the environment meet, symmetric to Join.
func (e Environment) Meet(other Environment) (Environment, error) {
	stack, err := e.Stack.Meet(other.Stack)
	if err != nil {
		return Environment{}, StackShapeMismatch{Err: err}
	}
	shape, err := mergeLoopShape(e.LoopShape, other.LoopShape)
	if err != nil {
		return Environment{}, err
	}
	return Environment{
		Stack:     stack,
		Locals:    e.Locals.Meet(other.Locals),
		Globals:   e.Globals.Meet(other.Globals),
		LoopShape: shape,
	}, nil
}

// Equal reports whether two environments are identical, including
// loop-shape.
func (e Environment) Equal(other Environment) bool {
	if !e.Stack.Equal(other.Stack) {
		return false
	}
	if !e.Locals.Equal(other.Locals) {
		return false
	}
	if !e.Globals.Equal(other.Globals) {
		return false
	}
	if len(e.LoopShape) != len(other.LoopShape) {
		return false
	}
	for i, v := range e.LoopShape {
		if other.LoopShape[i] != v {
			return false
		}
	}
	return true
}

// mergeLoopShape requires the two loop shapes to agree on their common
// prefix (spec.md §3) and returns that common prefix, matching the
// original's merge_shape (domain.py PythonEnvironment.merge_shape), which
// returns the shorter, agreeing prefix rather than the longer operand's
// full shape.
func mergeLoopShape(a, b []int) ([]int, error) {
	m := len(a)
	if len(b) < m {
		m = len(b)
	}
	for i := 0; i < m; i++ {
		if a[i] != b[i] {
			return nil, LoopShapeMismatch{Left: a, Right: b}
		}
	}
	out := make([]int, m)
	copy(out, a[:m])
	return out, nil
}
