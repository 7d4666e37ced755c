// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataflow

import (
	"github.com/go-interpreter/nullcheck/bytecode"
	"github.com/go-interpreter/nullcheck/lattice"
	"github.com/go-interpreter/nullcheck/nullability"
	"github.com/go-interpreter/nullcheck/routine"
)

const (
	opLoadConst  = "LOAD_CONST"
	opStoreFast  = "STORE_FAST"
	opLoadFast   = "LOAD_FAST"
	opCallFunc   = "CALL_FUNCTION"
	opPopBlock   = "POP_BLOCK"
	opSetupLoop  = "SETUP_LOOP"
	opLoadGlobal = "LOAD_GLOBAL"
)

// Transferer implements the per-instruction transfer function (spec.md
// §4.3), holding the collaborators it needs to do so: the decoder's
// stack-effect oracle and the enclosing routine's globals (for the
// CALL_FUNCTION inter-procedural edge), plus a way to look an
// instruction's full record back up from an offset found in a value's
// provenance.
type Transferer struct {
	Oracle        bytecode.Oracle
	Globals       map[string]*routine.Metadata
	InstructionAt func(offset int) (bytecode.Instruction, bool)
}

// Transfer computes the post-instruction environment (spec.md §4.3). The
// incoming env is never mutated; Transfer always works on (and returns) a
// clone.
func (t Transferer) Transfer(instr bytecode.Instruction, env Environment) (Environment, error) {
	env = env.Clone()

	effect := int(t.Oracle.StackEffect(instr.Opcode, instr.Arg))

	switch instr.Opname {
	case opPopBlock:
		popped := env.LoopShape[len(env.LoopShape)-1]
		env.LoopShape = env.LoopShape[:len(env.LoopShape)-1]
		effect = -popped
	default:
		env.LoopShape[len(env.LoopShape)-1] += effect
	}
	if instr.Opname == opSetupLoop {
		env.LoopShape = append(env.LoopShape, 0)
	}

	before := len(env.Stack)
	recognized := true
	switch instr.Opname {
	case opLoadConst:
		env.Stack = env.Stack.Push(nullability.NewTagged(instr.Offset, nullability.Of(instr.ArgVal == nil)))
	case opStoreFast:
		rest, top, ok := env.Stack.Pop()
		if !ok {
			return Environment{}, BytecodeInvariant{Offset: instr.Offset, Opname: instr.Opname, Expected: effect, Got: -before}
		}
		env.Stack = rest
		if env.Locals == nil {
			env.Locals = lattice.Sparse[int, TV]{}
		}
		env.Locals[slotOf(instr)] = top
	case opLoadFast:
		slot := slotOf(instr)
		if v, ok := env.Locals[slot]; ok {
			env.Stack = env.Stack.Push(v)
		} else {
			env.Stack = env.Stack.Push(nullability.NewTagged(instr.Offset, nullability.NotNull))
		}
	case opCallFunc:
		var err error
		env.Stack, err = t.transferCall(instr, env.Stack)
		if err != nil {
			return Environment{}, err
		}
	default:
		recognized = false
	}

	if recognized {
		want := int(t.Oracle.StackEffect(instr.Opcode, instr.Arg))
		if len(env.Stack)-before != want {
			return Environment{}, BytecodeInvariant{Offset: instr.Offset, Opname: instr.Opname, Expected: want, Got: len(env.Stack) - before}
		}
		return env, nil
	}

	// Generic fallback (spec.md §4.3): apply the effect mechanically.
	switch {
	case effect < 0:
		for i := 0; i < -effect; i++ {
			rest, _, ok := env.Stack.Pop()
			if !ok {
				return Environment{}, BytecodeInvariant{Offset: instr.Offset, Opname: instr.Opname, Expected: effect, Got: -i}
			}
			env.Stack = rest
		}
	case effect > 0:
		for i := 0; i < effect; i++ {
			env.Stack = env.Stack.Push(nullability.NewTagged(instr.Offset, nullability.NotNull))
		}
	}
	if len(env.Stack)-before != effect {
		return Environment{}, BytecodeInvariant{Offset: instr.Offset, Opname: instr.Opname, Expected: effect, Got: len(env.Stack) - before}
	}
	return env, nil
}

// slotOf extracts the local slot index STORE_FAST/LOAD_FAST operate on.
// Per the original (nullability.py), this is the raw immediate, not a
// decoded ArgVal.
func slotOf(instr bytecode.Instruction) int {
	if instr.Arg != nil {
		return *instr.Arg
	}
	if slot, ok := instr.ArgVal.(int); ok {
		return slot
	}
	return 0
}

// transferCall implements the CALL_FUNCTION rule (spec.md §4.3): pop n
// arguments, then the callee; the result's nullability is the join of the
// return annotations of every globally-visible routine the callee's
// provenance can be traced to via a LOAD_GLOBAL. This is the sole
// inter-procedural edge in the analysis (spec.md §1) and is a deliberate
// under-approximation: calls through locals or attribute chains are
// invisible to it and conservatively yield NotNull (spec.md §9 open
// question (iv); not patched here).
func (t Transferer) transferCall(instr bytecode.Instruction, stack stackT) (stackT, error) {
	n := 0
	if instr.Arg != nil {
		n = *instr.Arg
	}
	for i := 0; i < n; i++ {
		rest, _, ok := stack.Pop()
		if !ok {
			return nil, BytecodeInvariant{Offset: instr.Offset, Opname: instr.Opname, Expected: -(n + 1), Got: -i}
		}
		stack = rest
	}
	rest, callee, ok := stack.Pop()
	if !ok {
		return nil, BytecodeInvariant{Offset: instr.Offset, Opname: instr.Opname, Expected: -(n + 1), Got: -n}
	}
	stack = rest

	result := nullability.NotNull
	if callee.Provenance != nil {
		for _, offset := range callee.Provenance.ToSlice() {
			candidate, ok := t.InstructionAt(offset)
			if !ok || candidate.Opname != opLoadGlobal {
				continue
			}
			name, ok := candidate.ArgVal.(string)
			if !ok {
				continue
			}
			target, ok := t.Globals[name]
			if !ok {
				continue
			}
			result = result.Join(nullability.ClassifyAnnotation(target.ReturnAnnotation()))
		}
	}

	return stack.Push(nullability.NewTagged(instr.Offset, result)), nil
}
