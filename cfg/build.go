// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"github.com/go-interpreter/nullcheck/bytecode"

	mapset "github.com/deckarep/golang-set/v2"
)

// Build partitions instrs into basic blocks and reconstructs the forward
// edges, reverse edges, and dead (unreachable) blocks (spec.md §4.1). An
// empty instruction stream yields a CFG with no blocks and no returns.
func Build(instrs []bytecode.Instruction, oracle bytecode.Oracle) (*CFG, error) {
	blocks := partition(instrs, oracle)
	logger.Printf("partitioned %d instructions into %d blocks", len(instrs), len(blocks))

	firstOffset := make(map[int]int, len(blocks)) // first-instruction offset -> block index
	byOffset := make(map[int]bytecode.Instruction, len(instrs))
	for i, b := range blocks {
		firstOffset[b[0].Offset] = i
		for _, instr := range b {
			byOffset[instr.Offset] = instr
		}
	}

	out := &CFG{
		Blocks:       make([]*BasicBlock, len(blocks)),
		Edges:        map[int][]int{},
		ReverseEdges: map[int][]int{},
		Returns:      mapset.NewThreadUnsafeSet[int](),
		byOffset:     byOffset,
	}
	for i, b := range blocks {
		out.Blocks[i] = &BasicBlock{Index: i, Instructions: b}
	}

	for i, b := range blocks {
		term := b[len(b)-1]
		class := oracle.Classify(term.Opname)
		if class == bytecode.Return {
			out.Returns.Add(term.Offset)
			continue
		}

		var succ []int
		if class == bytecode.Branch || class == bytecode.Goto {
			target, err := resolveTarget(term, i, len(blocks), firstOffset, oracle)
			if err != nil {
				return nil, err
			}
			succ = append(succ, target)
		}
		if class != bytecode.Goto && i+1 < len(blocks) {
			succ = append(succ, i+1)
		}
		if len(succ) > 0 {
			out.Edges[i] = succ
		}
	}

	for i, succs := range out.Edges {
		for _, j := range succs {
			out.ReverseEdges[j] = append(out.ReverseEdges[j], i)
		}
	}

	out.DeadNodes = deadNodes(len(blocks), out.ReverseEdges)
	pruneDead(out)

	return out, nil
}

// partition implements spec.md §4.1 step 1: start a new block when the
// current block is non-empty and the next instruction is a jump target,
// or when the previous instruction was a terminator (branch or return). A
// trailing empty block is never produced by this construction.
func partition(instrs []bytecode.Instruction, oracle bytecode.Oracle) [][]bytecode.Instruction {
	if len(instrs) == 0 {
		return nil
	}
	var blocks [][]bytecode.Instruction
	var cur []bytecode.Instruction
	terminated := false
	for _, instr := range instrs {
		if len(cur) > 0 && (instr.IsJumpTarget || terminated) {
			blocks = append(blocks, cur)
			cur = nil
		}
		cur = append(cur, instr)
		terminated = oracle.Classify(instr.Opname) != bytecode.Fallthrough
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// resolveTarget maps a terminator's jump immediate to a block index, per
// spec.md §4.1 step 3: a relative target is a block-count offset from the
// branching block's own index; an absolute target is the block whose
// first instruction has that offset.
func resolveTarget(term bytecode.Instruction, blockIdx, numBlocks int, firstOffset map[int]int, oracle bytecode.Oracle) (int, error) {
	n, ok := term.ArgVal.(int)
	if !ok {
		return 0, MalformedError{Offset: term.Offset, Block: blockIdx, Reason: "jump target ArgVal is not an int"}
	}

	switch oracle.JumpKind(term.Opname) {
	case bytecode.RelativeTarget:
		idx := blockIdx + n
		if idx < 0 || idx >= numBlocks {
			return 0, MalformedError{Offset: term.Offset, Block: blockIdx, Reason: "relative jump target out of range"}
		}
		return idx, nil
	case bytecode.AbsoluteTarget:
		idx, ok := firstOffset[n]
		if !ok {
			return 0, MalformedError{Offset: term.Offset, Block: blockIdx, Reason: "absolute jump target does not land on a block boundary"}
		}
		return idx, nil
	default:
		return 0, MalformedError{Offset: term.Offset, Block: blockIdx, Reason: "branching opcode has no recognized jump kind"}
	}
}

// deadNodes implements spec.md §4.1 step 5 and §9 open question (iii):
// block 0 is never dead; every other block is dead iff it is unreachable
// from block 0, computed as a fixpoint over fully-resolved edges (not
// interleaved with edge construction, which the open question flags as
// the source of the original's suspect premature elimination).
func deadNodes(numBlocks int, reverseEdges map[int][]int) mapset.Set[int] {
	dead := mapset.NewThreadUnsafeSet[int]()
	for {
		changed := false
		for i := 0; i < numBlocks; i++ {
			if i == 0 || dead.Contains(i) {
				continue
			}
			preds := reverseEdges[i]
			allDead := true
			for _, p := range preds {
				if !dead.Contains(p) {
					allDead = false
					break
				}
			}
			if allDead {
				dead.Add(i)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return dead
}

// pruneDead removes dead block indices from Edges/ReverseEdges, both as
// keys and as members of the remaining edge sets (spec.md §4.1 step 5).
func pruneDead(c *CFG) {
	for i := range c.Edges {
		if c.DeadNodes.Contains(i) {
			delete(c.Edges, i)
			continue
		}
		c.Edges[i] = without(c.Edges[i], c.DeadNodes)
	}
	for i := range c.ReverseEdges {
		if c.DeadNodes.Contains(i) {
			delete(c.ReverseEdges, i)
			continue
		}
		c.ReverseEdges[i] = without(c.ReverseEdges[i], c.DeadNodes)
	}
}

func without(xs []int, dead mapset.Set[int]) []int {
	out := xs[:0:0]
	for _, x := range xs {
		if !dead.Contains(x) {
			out = append(out, x)
		}
	}
	return out
}
