// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfg reconstructs a basic-block control-flow graph from a linear
// instruction stream whose branches are expressed as absolute or relative
// jump offsets (spec.md §4.1).
package cfg

import (
	"github.com/go-interpreter/nullcheck/bytecode"

	mapset "github.com/deckarep/golang-set/v2"
)

// BasicBlock is a non-empty ordered sequence of instructions such that
// only the first is ever a jump target and only the last may transfer
// control (spec.md §3). Identity is Index, its position in the CFG's
// block list.
type BasicBlock struct {
	Index        int
	Instructions []bytecode.Instruction
}

// First returns the block's leading instruction.
func (b *BasicBlock) First() bytecode.Instruction {
	return b.Instructions[0]
}

// Last returns the block's terminating instruction.
func (b *BasicBlock) Last() bytecode.Instruction {
	return b.Instructions[len(b.Instructions)-1]
}

// CFG is the reconstructed control-flow graph of one routine.
type CFG struct {
	Blocks       []*BasicBlock
	Edges        map[int][]int
	ReverseEdges map[int][]int
	DeadNodes    mapset.Set[int]
	Returns      mapset.Set[int] // instruction offsets

	byOffset map[int]bytecode.Instruction
}

// InstructionAt looks up a decoded instruction by its offset identity.
func (c *CFG) InstructionAt(offset int) (bytecode.Instruction, bool) {
	i, ok := c.byOffset[offset]
	return i, ok
}

// IsLive reports whether a block index is reachable from block 0.
func (c *CFG) IsLive(block int) bool {
	return !c.DeadNodes.Contains(block)
}

// BlockOf returns the block containing the instruction at the given
// offset, if the instruction's block is live.
func (c *CFG) BlockOf(offset int) (*BasicBlock, bool) {
	for _, b := range c.Blocks {
		if c.DeadNodes.Contains(b.Index) {
			continue
		}
		for _, instr := range b.Instructions {
			if instr.Offset == offset {
				return b, true
			}
		}
	}
	return nil, false
}
