// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataflow

import "fmt"

// StackShapeMismatch is returned when two stacks of different lengths are
// joined or met (spec.md §7).
type StackShapeMismatch struct {
	Err error
}

func (e StackShapeMismatch) Error() string {
	return fmt.Sprintf("dataflow: stack shape mismatch: %v", e.Err)
}

func (e StackShapeMismatch) Unwrap() error { return e.Err }

// LoopShapeMismatch is returned when two environments' loop shapes
// disagree on their common prefix during join or meet (spec.md §7).
type LoopShapeMismatch struct {
	Left, Right []int
}

func (e LoopShapeMismatch) Error() string {
	return fmt.Sprintf("dataflow: loop shape mismatch: %v vs %v", e.Left, e.Right)
}

// BytecodeInvariant is returned when a recognized opcode's post-transfer
// stack length disagrees with its declared static stack effect (spec.md
// §4.3 postcondition, §7).
type BytecodeInvariant struct {
	Offset   int
	Opname   string
	Expected int
	Got      int
}

func (e BytecodeInvariant) Error() string {
	return fmt.Sprintf("dataflow: %s at offset %d: stack changed by %d, expected %d", e.Opname, e.Offset, e.Got, e.Expected)
}

// LocatedError attributes a structural failure to the instruction offset
// and block index where it was encountered (spec.md §7: "reported with
// the offending instruction offset and block index"). Solve wraps every
// fatal error it returns in one of these.
type LocatedError struct {
	Routine string
	Offset  int
	Block   int
	Err     error
}

func (e LocatedError) Error() string {
	return fmt.Sprintf("nullcheck: %s: offset %d (block %d): %v", e.Routine, e.Offset, e.Block, e.Err)
}

func (e LocatedError) Unwrap() error { return e.Err }
