// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nullcheck_test

import (
	"testing"

	nullcheck "github.com/go-interpreter/nullcheck"
	"github.com/go-interpreter/nullcheck/bytecode"
	"github.com/go-interpreter/nullcheck/internal/testbc"
	"github.com/go-interpreter/nullcheck/nullability"
	"github.com/go-interpreter/nullcheck/routine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalyzeWiresCfgAndDataflow exercises the full pipeline Analyze
// wires together: a routine that returns its own nullable parameter
// should produce a CFG with a single live block and a nullable summary.
func TestAnalyzeWiresCfgAndDataflow(t *testing.T) {
	instrs := []bytecode.Instruction{
		testbc.Instr(0, testbc.LoadFast, 0, false),
		testbc.Instr(1, testbc.ReturnValue, nil, false),
	}
	meta := &routine.Metadata{
		ParameterNames: []string{"x"},
		Annotations:    map[string]routine.Annotation{"x": {Nullable: true}},
	}

	analysis, err := nullcheck.Analyze(instrs, testbc.Oracle{}, meta, "identity")
	require.NoError(t, err)

	assert.Len(t, analysis.CFG.Blocks, 1)
	assert.Equal(t, nullability.Nullable, analysis.Result.Summary)
}

// TestAnalyzePropagatesCfgErrors confirms a malformed jump target surfaces
// through Analyze rather than panicking or being swallowed.
func TestAnalyzePropagatesCfgErrors(t *testing.T) {
	instrs := []bytecode.Instruction{
		testbc.Instr(0, testbc.JumpAbsolute, 99, false),
		testbc.Instr(1, testbc.ReturnValue, nil, false),
	}
	meta := &routine.Metadata{}

	_, err := nullcheck.Analyze(instrs, testbc.Oracle{}, meta, "broken")
	require.Error(t, err)
}
