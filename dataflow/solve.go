// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataflow

import (
	"github.com/go-interpreter/nullcheck/bytecode"
	"github.com/go-interpreter/nullcheck/cfg"
	"github.com/go-interpreter/nullcheck/lattice"
	"github.com/go-interpreter/nullcheck/nullability"
	"github.com/go-interpreter/nullcheck/routine"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// Result is a routine's completed analysis: the per-instruction/per-edge
// environments and the aggregated return-value nullability (spec.md §6).
type Result struct {
	Before  map[int]Environment
	After   map[int]Environment
	Edges   map[edgeKey]Environment
	Summary nullability.Value
}

// Seed builds the entry environment from a routine's declared parameter
// annotations, keyed by parameter slot (spec.md §3: "seeded from the
// signature"; exact rule grounded on dataflow.py Dataflow.solve's
// `varnames.index(key)` seeding; see SPEC_FULL.md item 1). Unannotated
// parameters are simply absent from locals, which LOAD_FAST already
// treats as NotNull.
func Seed(meta *routine.Metadata) Environment {
	env := Empty()
	locals := lattice.Sparse[int, TV]{}
	for name, ann := range meta.Annotations {
		if name == routine.ReturnKey {
			continue
		}
		slot, ok := meta.SlotOf(name)
		if !ok {
			continue
		}
		locals[slot] = nullability.Tagged[nullability.Value]{
			Provenance: mapset.NewThreadUnsafeSet[int](),
			Value:      nullability.ClassifyAnnotation(ann),
		}
	}
	env.Locals = locals
	return env
}

// Solve runs the fixpoint engine described in spec.md §4.4 to completion:
// repeated rounds over every live block, rejoining predecessor edges,
// walking the block through Transfer, and propagating to outgoing edges,
// until a round reports no change.
func Solve(graph *cfg.CFG, oracle bytecode.Oracle, meta *routine.Metadata, routineName string) (Result, error) {
	transferer := Transferer{
		Oracle:        oracle,
		Globals:       meta.Globals,
		InstructionAt: graph.InstructionAt,
	}

	state := newState()
	if len(graph.Blocks) == 0 {
		return Result{Before: state.Before, After: state.After, Edges: state.Edge, Summary: nullability.NotNull}, nil
	}
	seed := Seed(meta)
	state.Before[graph.Blocks[0].First().Offset] = seed

	for {
		changed, err := round(graph, transferer, state, seed)
		if err != nil {
			return Result{}, errors.Wrap(attribute(routineName, graph, err), "nullability analysis aborted")
		}
		if !changed {
			break
		}
	}

	summary, err := summarize(graph, state)
	if err != nil {
		return Result{}, errors.Wrap(attribute(routineName, graph, err), "nullability analysis aborted")
	}

	return Result{Before: state.Before, After: state.After, Edges: state.Edge, Summary: summary}, nil
}

// round performs one pass over every live block in index order (spec.md
// §4.4 step 2), mutating state in place and reporting whether anything
// changed. seed is unioned into the entry block's join on every round,
// since the entry instruction's real predecessor is the routine's own
// signature, not just whatever in-CFG back edges happen to target it
// (e.g. a routine whose body opens on a loop test reached by a back
// edge would otherwise lose its seeded parameter environment the moment
// that back edge starts contributing to the join).
func round(graph *cfg.CFG, transferer Transferer, state *State, seed Environment) (bool, error) {
	changed := false
	for _, block := range graph.Blocks {
		if !graph.IsLive(block.Index) {
			logger.Printf("skipping dead block %d", block.Index)
			continue
		}

		join, err := joinPredecessors(graph, block.Index, state)
		if err != nil {
			return false, err
		}
		if block.Index == 0 {
			join, err = join.Join(seed)
			if err != nil {
				return false, locatedAt{offset: block.First().Offset, block: 0, err: err}
			}
		}

		firstOffset := block.First().Offset
		if old, ok := state.Before[firstOffset]; !ok || !old.Equal(join) {
			changed = true
			state.Before[firstOffset] = join
		}

		env := join
		for _, instr := range block.Instructions {
			state.Before[instr.Offset] = env
			next, err := transferer.Transfer(instr, env)
			if err != nil {
				return false, locatedAt{offset: instr.Offset, block: block.Index, err: err}
			}
			if old, ok := state.After[instr.Offset]; !ok || !old.Equal(next) {
				changed = true
			}
			state.After[instr.Offset] = next
			env = next
		}

		for _, succ := range graph.Edges[block.Index] {
			state.Edge[edgeKey{From: block.Index, To: succ}] = env
		}
	}
	return changed, nil
}

// joinPredecessors computes the before-environment of a block: the join
// of every predecessor's edge value, or (for a block with no live
// predecessors) its previously recorded before-value, or an empty
// environment if that too is absent (spec.md §4.4 step 2a).
func joinPredecessors(graph *cfg.CFG, blockIdx int, state *State) (Environment, error) {
	preds := graph.ReverseEdges[blockIdx]
	if len(preds) == 0 {
		if existing, ok := state.Before[graph.Blocks[blockIdx].First().Offset]; ok {
			return existing, nil
		}
		return Empty(), nil
	}

	var join Environment
	have := false
	for _, p := range preds {
		e, ok := state.Edge[edgeKey{From: p, To: blockIdx}]
		if !ok {
			continue
		}
		if !have {
			join, have = e, true
			continue
		}
		joined, err := join.Join(e)
		if err != nil {
			return Environment{}, locatedAt{offset: graph.Blocks[blockIdx].First().Offset, block: blockIdx, err: err}
		}
		join = joined
	}
	if !have {
		return Empty(), nil
	}
	return join, nil
}

// summarize computes the reported return-value nullability: the join of
// before[r].Stack.Top() over every return instruction r, or NotNull if
// the routine has no return sites (spec.md §4.4 step 4, vacuous join of
// the bottom element).
func summarize(graph *cfg.CFG, state *State) (nullability.Value, error) {
	summary := nullability.NotNull
	for _, offset := range graph.Returns.ToSlice() {
		env, ok := state.Before[offset]
		if !ok {
			continue
		}
		top, ok := env.Stack.Top()
		if !ok {
			blockIdx := 0
			if b, found := graph.BlockOf(offset); found {
				blockIdx = b.Index
			}
			return nullability.Value{}, locatedAt{offset: offset, block: blockIdx, err: errEmptyReturnStack}
		}
		summary = summary.Join(top.Value)
	}
	return summary, nil
}

var errEmptyReturnStack = errors.New("dataflow: empty operand stack at return site")

// locatedAt carries an offset/block pair until attribute() wraps it into
// a LocatedError with the routine name.
type locatedAt struct {
	offset int
	block  int
	err    error
}

func (l locatedAt) Error() string { return l.err.Error() }
func (l locatedAt) Unwrap() error { return l.err }

func attribute(routineName string, graph *cfg.CFG, err error) error {
	if l, ok := err.(locatedAt); ok {
		return LocatedError{Routine: routineName, Offset: l.offset, Block: l.block, Err: l.err}
	}
	return LocatedError{Routine: routineName, Err: err}
}
