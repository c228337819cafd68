// Package report renders opening trees as console text.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vytor/openingtree/internal/engine"
	"github.com/vytor/openingtree/internal/tree"
)

// WriteBuild prints what a build selected and the shape of the result.
func WriteBuild(w io.Writer, res *tree.Result) {
	f, sum := res.Filter, res.Summary
	st := tree.Stats(res.Root)

	fmt.Fprintf(w, "Player:     %s (%s)\n", orDash(f.PlayerName), f.Side)
	fmt.Fprintf(w, "Dates:      %s .. %s\n", f.StartDate.Format(time.DateOnly), f.EndDate.Format(time.DateOnly))
	if f.Opponent != "" {
		fmt.Fprintf(w, "Opponent:   %s\n", f.Opponent)
	}
	fmt.Fprintf(w, "Games:      %d fetched, %d in tree\n", sum.Fetched, sum.Contributed)
	if skipped := sum.SkippedDate + sum.SkippedOpponent + sum.SkippedSide + sum.SkippedResult; skipped > 0 {
		fmt.Fprintf(w, "Skipped:    %d date, %d opponent, %d side, %d result\n",
			sum.SkippedDate, sum.SkippedOpponent, sum.SkippedSide, sum.SkippedResult)
	}
	if sum.Truncated > 0 {
		fmt.Fprintf(w, "Truncated:  %d games stopped on a bad move\n", sum.Truncated)
	}
	fmt.Fprintf(w, "Variations: %d (max depth %d)\n", st.TotalVariations, st.MaxDepth)
}

// NodeOptions controls WriteNode.
type NodeOptions struct {
	// Top limits the number of continuations shown. Zero shows all.
	Top int
	// Games lists the games passing through the node.
	Games bool
}

// WriteNode prints a node header followed by its continuations, most
// played first.
func WriteNode(w io.Writer, n *tree.Node, opts NodeOptions) error {
	path := n.MovePath()
	if len(path) == 0 {
		fmt.Fprintf(w, "\n%s\n", n)
	} else {
		fmt.Fprintf(w, "\n%s: %s\n", strings.Join(path, " "), n)
	}
	if eco, name, ok := engine.Classify(path); ok {
		fmt.Fprintf(w, "Opening: %s %s\n", eco, name)
	}

	children := n.ChildrenSorted()
	if opts.Top > 0 && len(children) > opts.Top {
		children = children[:opts.Top]
	}
	if len(children) == 0 {
		fmt.Fprintln(w, "No continuations.")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Move", "Games", "Win %", "Draw %", "Loss %")
		for _, c := range children {
			table.Append(
				c.Move(),
				fmt.Sprint(c.GameCount()),
				pct(c.WinPct()),
				pct(c.DrawPct()),
				pct(c.LossPct()),
			)
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if !opts.Games || n.GameCount() == 0 {
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("ID", "White", "Black", "Result", "Date", "Event")
	for _, g := range n.Games() {
		date := "?"
		if d := g.Date(); d != nil {
			date = d.Format(time.DateOnly)
		}
		table.Append(fmt.Sprint(g.GameID()), g.White(), g.Black(), g.Result(), date, g.Event())
	}
	return table.Render()
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
