package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// slowThreshold marks operations highlighted in reports.
const slowThreshold = 100 * time.Millisecond

// formatTimingTree outputs the timing tree in a hierarchical format:
//
//	spend: 12ms
//	├─ storage.load: 4ms
//	├─ ledger.spend: 0ms
//	└─ storage.save: 7ms
func formatTimingTree(w io.Writer, root *timerNode) {
	r := lipgloss.NewRenderer(w)
	name := r.NewStyle().Bold(true)
	dim := r.NewStyle().Faint(true)
	warn := r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)

	_, _ = fmt.Fprintf(w, "%s: %s\n", name.Render(root.name), formatDuration(root.end.Sub(root.start)))

	type frame struct {
		node   *timerNode
		prefix string
		last   bool
	}

	var stack []frame
	pushChildren := func(n *timerNode, prefix string) {
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.children[i], prefix: prefix, last: i == len(n.children)-1})
		}
	}
	pushChildren(root, "")

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		branch, extension := "├─ ", "│  "
		if f.last {
			branch, extension = "└─ ", "   "
		}

		d := f.node.end.Sub(f.node.start)
		timing := dim.Render(formatDuration(d))
		if d >= slowThreshold {
			timing = warn.Render(formatDuration(d))
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", dim.Render(f.prefix+branch), f.node.name, timing)

		pushChildren(f.node, f.prefix+extension)
	}
}

// formatDuration shows milliseconds below one second, seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
