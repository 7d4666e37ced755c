// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataflow_test

import (
	"testing"

	"github.com/go-interpreter/nullcheck/bytecode"
	"github.com/go-interpreter/nullcheck/dataflow"
	"github.com/go-interpreter/nullcheck/internal/testbc"
	"github.com/go-interpreter/nullcheck/nullability"
	"github.com/go-interpreter/nullcheck/routine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferer(globals map[string]*routine.Metadata) dataflow.Transferer {
	return dataflow.Transferer{
		Oracle:  testbc.Oracle{},
		Globals: globals,
	}
}

func TestTransferLoadConstNull(t *testing.T) {
	instr := testbc.Instr(0, testbc.LoadConst, nil, false)
	got, err := transferer(nil).Transfer(instr, dataflow.Empty())
	require.NoError(t, err)

	top, ok := got.Stack.Top()
	require.True(t, ok)
	assert.Equal(t, nullability.Nullable, top.Value)
}

func TestTransferLoadConstNonNull(t *testing.T) {
	instr := testbc.Instr(0, testbc.LoadConst, 42, false)
	got, err := transferer(nil).Transfer(instr, dataflow.Empty())
	require.NoError(t, err)

	top, ok := got.Stack.Top()
	require.True(t, ok)
	assert.Equal(t, nullability.NotNull, top.Value)
}

func TestTransferStoreThenLoadFastRoundTrips(t *testing.T) {
	env := dataflow.Empty()
	tr := transferer(nil)

	env, err := tr.Transfer(testbc.Instr(0, testbc.LoadConst, nil, false), env)
	require.NoError(t, err)
	env, err = tr.Transfer(testbc.Instr(1, testbc.StoreFast, 0, false), env)
	require.NoError(t, err)
	assert.Empty(t, env.Stack)

	env, err = tr.Transfer(testbc.Instr(2, testbc.LoadFast, 0, false), env)
	require.NoError(t, err)

	top, ok := env.Stack.Top()
	require.True(t, ok)
	assert.Equal(t, nullability.Nullable, top.Value)
}

func TestTransferLoadFastOfUnseenLocalIsNotNull(t *testing.T) {
	instr := testbc.Instr(0, testbc.LoadFast, 3, false)
	got, err := transferer(nil).Transfer(instr, dataflow.Empty())
	require.NoError(t, err)

	top, ok := got.Stack.Top()
	require.True(t, ok)
	assert.Equal(t, nullability.NotNull, top.Value)
}

func TestTransferCallFunctionJoinsCalleeReturnAnnotations(t *testing.T) {
	globals := map[string]*routine.Metadata{
		"g": {Annotations: map[string]routine.Annotation{routine.ReturnKey: {Nullable: true}}},
	}
	tr := transferer(globals)
	tr.InstructionAt = func(offset int) (bytecode.Instruction, bool) { return bytecode.Instruction{}, false }

	env := dataflow.Empty()
	loadGlobal := testbc.Instr(0, testbc.LoadGlobal, "g", false)
	env, err := tr.Transfer(loadGlobal, env)
	require.NoError(t, err)

	tr.InstructionAt = func(offset int) (bytecode.Instruction, bool) {
		if offset == 0 {
			return loadGlobal, true
		}
		return bytecode.Instruction{}, false
	}

	call := testbc.Instr(1, testbc.CallFunction, 0, false)
	env, err = tr.Transfer(call, env)
	require.NoError(t, err)

	top, ok := env.Stack.Top()
	require.True(t, ok)
	assert.Equal(t, nullability.Nullable, top.Value)
}

func TestTransferCallFunctionUnknownCalleeIsNotNull(t *testing.T) {
	tr := transferer(nil)
	tr.InstructionAt = func(offset int) (bytecode.Instruction, bool) { return bytecode.Instruction{}, false }

	env := dataflow.Empty()
	env, err := tr.Transfer(testbc.Instr(0, testbc.LoadGlobal, "mystery", false), env)
	require.NoError(t, err)

	env, err = tr.Transfer(testbc.Instr(1, testbc.CallFunction, 0, false), env)
	require.NoError(t, err)

	top, ok := env.Stack.Top()
	require.True(t, ok)
	assert.Equal(t, nullability.NotNull, top.Value)
}

func TestTransferGenericFallbackAppliesStackEffect(t *testing.T) {
	env := dataflow.Empty()
	tr := transferer(nil)

	env, err := tr.Transfer(testbc.Instr(0, testbc.LoadConst, 1, false), env)
	require.NoError(t, err)
	env, err = tr.Transfer(testbc.Instr(1, testbc.LoadConst, 2, false), env)
	require.NoError(t, err)

	env, err = tr.Transfer(testbc.Instr(2, testbc.BinaryAdd, nil, false), env)
	require.NoError(t, err)

	assert.Len(t, env.Stack, 1)
}

func TestTransferStoreFastOnEmptyStackIsBytecodeInvariant(t *testing.T) {
	instr := testbc.Instr(0, testbc.StoreFast, 0, false)
	_, err := transferer(nil).Transfer(instr, dataflow.Empty())

	require.Error(t, err)
	var invariant dataflow.BytecodeInvariant
	assert.ErrorAs(t, err, &invariant)
}

func TestTransferSetupLoopAndPopBlockTrackLoopShape(t *testing.T) {
	env := dataflow.Empty()
	tr := transferer(nil)

	env, err := tr.Transfer(testbc.Instr(0, testbc.SetupLoop, nil, false), env)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, env.LoopShape)

	env, err = tr.Transfer(testbc.Instr(1, testbc.LoadConst, 1, false), env)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, env.LoopShape)

	env, err = tr.Transfer(testbc.Instr(2, testbc.PopBlock, nil, false), env)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, env.LoopShape)
	assert.Empty(t, env.Stack)
}
