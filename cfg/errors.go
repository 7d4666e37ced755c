// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import "fmt"

// MalformedError is returned when a branch's jump target cannot be
// resolved to a block: its immediate is not an int, an absolute target
// does not land on a block boundary, a relative target is out of range,
// or the opcode has no recognized jump kind (spec.md §4.1, §7:
// MalformedCfg). Dead-code elimination never returns it.
type MalformedError struct {
	Offset int // the offending instruction's offset
	Block  int // the block index the instruction was found in
	Reason string
}

func (e MalformedError) Error() string {
	return fmt.Sprintf("cfg: malformed control flow at offset %d (block %d): %s", e.Offset, e.Block, e.Reason)
}
