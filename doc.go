// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nullcheck is a whole-function static nullability checker for
// compiled stack-machine bytecode. For an annotated routine, it decides
// at every program point whether each stack and local value is definitely
// non-null, possibly null, or unknown, by running an abstract
// interpretation to a fixpoint over the routine's control-flow graph.
//
// The pipeline is: a host-supplied bytecode.Oracle and []bytecode.Instruction
// feed cfg.Build, whose *cfg.CFG feeds dataflow.Solve, which returns a
// dataflow.Result: before/after/edge environments and one aggregated
// nullability value for the routine's return. Analyze wires these three
// stages together for the common case.
package nullcheck

import (
	"github.com/go-interpreter/nullcheck/bytecode"
	"github.com/go-interpreter/nullcheck/cfg"
	"github.com/go-interpreter/nullcheck/dataflow"
	"github.com/go-interpreter/nullcheck/routine"

	"github.com/pkg/errors"
)

// Analysis is the complete result of checking one routine: its
// reconstructed control-flow graph alongside the dataflow result.
type Analysis struct {
	CFG    *cfg.CFG
	Result dataflow.Result
}

// Analyze builds the control-flow graph for instrs and runs the
// nullability fixpoint over it, seeded from meta's parameter annotations.
// routineName is used only to attribute errors (spec.md §7).
func Analyze(instrs []bytecode.Instruction, oracle bytecode.Oracle, meta *routine.Metadata, routineName string) (*Analysis, error) {
	graph, err := cfg.Build(instrs, oracle)
	if err != nil {
		return nil, errors.Wrapf(err, "nullcheck: %s: building control-flow graph", routineName)
	}

	result, err := dataflow.Solve(graph, oracle, meta, routineName)
	if err != nil {
		return nil, err
	}

	return &Analysis{CFG: graph, Result: result}, nil
}
