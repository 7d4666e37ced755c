// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"io"
	"log"
	"os"
)

// PrintDebugInfo enables the package's debug logger. Off by default,
// mirroring validate.PrintDebugInfo/wasm.PrintDebugInfo in the teacher.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	logger = log.New(debugWriter{}, "", log.Lshortfile)
}

// debugWriter sends output to os.Stderr while PrintDebugInfo is set and
// discards it otherwise; the switch is read on every write.
type debugWriter struct{}

func (debugWriter) Write(p []byte) (int, error) {
	if PrintDebugInfo {
		return os.Stderr.Write(p)
	}
	return io.Discard.Write(p)
}
