// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testbc is a small synthetic decoder used only by this module's
// own tests: a fixed opcode table and an Oracle implementation, playing
// the role spec.md §1 assigns to a host language's decoder. It is not a
// real bytecode format, just enough opcodes to build the scenarios in
// spec.md §8.
package testbc

import "github.com/go-interpreter/nullcheck/bytecode"

// Opnames used by the fixture programs in the test suites.
const (
	LoadConst      = "LOAD_CONST"
	StoreFast      = "STORE_FAST"
	LoadFast       = "LOAD_FAST"
	LoadGlobal     = "LOAD_GLOBAL"
	CallFunction   = "CALL_FUNCTION"
	ReturnValue    = "RETURN_VALUE"
	PopJumpIfFalse = "POP_JUMP_IF_FALSE"
	JumpForward    = "JUMP_FORWARD"
	JumpAbsolute   = "JUMP_ABSOLUTE"
	SetupLoop      = "SETUP_LOOP"
	PopBlock       = "POP_BLOCK"
	BinaryAdd      = "BINARY_ADD"
	Nop            = "NOP"
)

const (
	opLoadConst byte = iota + 1
	opStoreFast
	opLoadFast
	opLoadGlobal
	opCallFunction
	opReturnValue
	opPopJumpIfFalse
	opJumpForward
	opJumpAbsolute
	opSetupLoop
	opPopBlock
	opBinaryAdd
	opNop
)

var codes = map[string]byte{
	LoadConst:      opLoadConst,
	StoreFast:      opStoreFast,
	LoadFast:       opLoadFast,
	LoadGlobal:     opLoadGlobal,
	CallFunction:   opCallFunction,
	ReturnValue:    opReturnValue,
	PopJumpIfFalse: opPopJumpIfFalse,
	JumpForward:    opJumpForward,
	JumpAbsolute:   opJumpAbsolute,
	SetupLoop:      opSetupLoop,
	PopBlock:       opPopBlock,
	BinaryAdd:      opBinaryAdd,
	Nop:            opNop,
}

// Code returns the fixture opcode byte for an opname, panicking on an
// unknown one: a test author error, not a runtime condition.
func Code(opname string) byte {
	c, ok := codes[opname]
	if !ok {
		panic("testbc: unknown opname " + opname)
	}
	return c
}

// Oracle is the fixture bytecode.Oracle.
type Oracle struct{}

// StackEffect implements bytecode.Oracle.
func (Oracle) StackEffect(opcode byte, arg *int) int32 {
	switch opcode {
	case opLoadConst, opLoadFast, opLoadGlobal:
		return 1
	case opStoreFast, opPopJumpIfFalse:
		return -1
	case opCallFunction:
		n := 0
		if arg != nil {
			n = *arg
		}
		return int32(-n)
	case opBinaryAdd:
		return -1
	case opReturnValue:
		return -1
	default:
		return 0
	}
}

// Classify implements bytecode.Oracle.
func (Oracle) Classify(opname string) bytecode.Class {
	switch opname {
	case ReturnValue:
		return bytecode.Return
	case PopJumpIfFalse:
		return bytecode.Branch
	case JumpForward, JumpAbsolute:
		return bytecode.Goto
	default:
		return bytecode.Fallthrough
	}
}

// JumpKind implements bytecode.Oracle.
func (Oracle) JumpKind(opname string) bytecode.JumpKind {
	switch opname {
	case PopJumpIfFalse, JumpAbsolute:
		return bytecode.AbsoluteTarget
	case JumpForward:
		return bytecode.RelativeTarget
	default:
		return bytecode.NotAJump
	}
}

// IntP is a small helper for constructing Instruction.Arg immediates.
func IntP(n int) *int { return &n }

// Instr builds an Instruction for opname at offset, with the given
// ArgVal and jump-target flag. Arg mirrors ArgVal when it is an int,
// matching how STORE_FAST/LOAD_FAST/CALL_FUNCTION read their slot/arity
// straight off the raw immediate (dataflow/transfer.go's slotOf).
func Instr(offset int, opname string, argVal interface{}, isJumpTarget bool) bytecode.Instruction {
	instr := bytecode.Instruction{
		Offset:       offset,
		Opname:       opname,
		Opcode:       Code(opname),
		ArgVal:       argVal,
		IsJumpTarget: isJumpTarget,
	}
	if n, ok := argVal.(int); ok {
		instr.Arg = IntP(n)
	}
	return instr
}
