// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"strconv"
	"strings"

	"github.com/emicklei/dot"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DOT renders the CFG as a graphviz "digraph" (spec.md §6): one node per
// block, labeled with its instructions, and one directed arc per forward
// edge. Dead blocks are still rendered (shown in a muted color) so the
// output remains useful as a debugging aid for why a block was pruned.
// Edges are emitted in a stable, sorted order: c.Edges is a map, whose
// iteration order Go leaves undefined, and a diff-friendly rendering
// depends on the same CFG always producing the same text.
func (c *CFG) DOT() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "TB")

	nodes := make([]dot.Node, len(c.Blocks))
	for _, b := range c.Blocks {
		n := g.Node(strconv.Itoa(b.Index)).Label(blockLabel(b))
		if c.DeadNodes.Contains(b.Index) {
			n.Attr("color", "gray").Attr("fontcolor", "gray")
		}
		nodes[b.Index] = n
	}

	srcs := maps.Keys(c.Edges)
	slices.Sort(srcs)
	for _, src := range srcs {
		dsts := slices.Clone(c.Edges[src])
		slices.Sort(dsts)
		for _, dst := range dsts {
			g.Edge(nodes[src], nodes[dst])
		}
	}

	return g.String()
}

func blockLabel(b *BasicBlock) string {
	var lines []string
	lines = append(lines, "block "+strconv.Itoa(b.Index))
	for _, instr := range b.Instructions {
		lines = append(lines, instr.String())
	}
	return strings.Join(lines, "\\l") + "\\l"
}
