package bvh

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"
)

// Tree statistics.
type Stats struct {
	Nodes      int
	Leafs      int
	MaxDepth   int
	Primitives int

	// Leaf size distribution.
	MinLeafSize    int
	MaxLeafSize    int
	MeanLeafSize   float64
	StdDevLeafSize float64

	// SAH cost of the tree relative to the root area.
	SAHCost float64

	// Bytes used by the node array.
	NodeBytes int
}

// Stats walks the tree and collects statistics about its shape.
func (t *Tree) Stats() Stats {
	st := Stats{
		Nodes:      int(t.NodesUsed),
		Primitives: t.primCount,
		NodeBytes:  len(t.Nodes) * int(unsafe.Sizeof(Node{})),
	}
	if t.NodesUsed == 0 {
		return st
	}

	rootArea := float64(t.Root().BBox().Area())
	leafSizes := make([]float64, 0, t.NodesUsed/2+1)

	type entry struct {
		idx   uint32
		depth int
	}
	stack := []entry{{RootNodeIdx, 0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if e.depth > st.MaxDepth {
			st.MaxDepth = e.depth
		}

		node := &t.Nodes[e.idx]
		area := float64(node.BBox().Area())
		if !node.IsLeaf() {
			if rootArea > 0 {
				st.SAHCost += area / rootArea
			}
			left, right := node.ChildNodes()
			stack = append(stack, entry{right, e.depth + 1}, entry{left, e.depth + 1})
			continue
		}

		st.Leafs++
		size := int(node.Count)
		if st.MinLeafSize == 0 || size < st.MinLeafSize {
			st.MinLeafSize = size
		}
		if size > st.MaxLeafSize {
			st.MaxLeafSize = size
		}
		leafSizes = append(leafSizes, float64(size))
		if rootArea > 0 {
			st.SAHCost += float64(size) * area / rootArea
		}
	}

	if len(leafSizes) > 0 {
		st.MeanLeafSize, st.StdDevLeafSize = stat.MeanStdDev(leafSizes, nil)
	}
	return st
}

// Build a tabular representation of the statistics.
func (st Stats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Stat", "Value"})
	table.Append([]string{"Primitives", fmt.Sprintf("%d", st.Primitives)})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", st.Nodes)})
	table.Append([]string{"Leafs", fmt.Sprintf("%d", st.Leafs)})
	table.Append([]string{"Max depth", fmt.Sprintf("%d", st.MaxDepth)})
	table.Append([]string{"Leaf size (min/max)", fmt.Sprintf("%d / %d", st.MinLeafSize, st.MaxLeafSize)})
	table.Append([]string{"Leaf size (mean ± stddev)", fmt.Sprintf("%.2f ± %.2f", st.MeanLeafSize, st.StdDevLeafSize)})
	table.Append([]string{"SAH cost", fmt.Sprintf("%.2f", st.SAHCost)})
	table.SetFooter([]string{"Node memory", fmtSize(st.NodeBytes)})
	table.Render()
	return buf.String()
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	switch {
	case totalBytes < 1e3:
		return fmt.Sprintf("%3d bytes", totalBytes)
	case totalBytes < 1e6:
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%3.1f mb", float32(totalBytes)/1e6)
}
