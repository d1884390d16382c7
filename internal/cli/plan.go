package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/roach88/otioseq/internal/pipeline"
	"github.com/roach88/otioseq/internal/reconcile"
	"github.com/roach88/otioseq/internal/syncerr"
)

// OpView is the JSON form of a plan op.
type OpView struct {
	Index   int      `json:"index"`
	Kind    string   `json:"kind"`
	Target  string   `json:"target"`
	Path    string   `json:"path"`
	Parent  string   `json:"parent,omitempty"`
	Rate    string   `json:"rate"`
	Changes []string `json:"changes,omitempty"`
}

// PlanView is the JSON form of a plan.
type PlanView struct {
	Root     string           `json:"root"`
	Summary  map[string]int   `json:"summary"`
	Ops      []OpView         `json:"ops"`
	Warnings syncerr.Warnings `json:"warnings"`
}

func newPlanView(p *reconcile.Plan) PlanView {
	view := PlanView{
		Root:     p.Root,
		Summary:  make(map[string]int),
		Ops:      make([]OpView, 0, len(p.Ops)),
		Warnings: p.Warnings,
	}
	if view.Warnings == nil {
		view.Warnings = syncerr.Warnings{}
	}
	for kind, n := range p.Summary() {
		view.Summary[strings.ToLower(string(kind))] = n
	}
	for i, op := range p.Ops {
		view.Ops = append(view.Ops, OpView{
			Index:   i,
			Kind:    string(op.Kind),
			Target:  string(op.Target),
			Path:    op.Path,
			Parent:  op.Parent,
			Rate:    op.Rate.String(),
			Changes: op.Changes,
		})
	}
	return view
}

// writePlan renders the plan as a table followed by a one-line summary
// and any warnings.
func writePlan(w io.Writer, p *reconcile.Plan) {
	colorize := shouldColorize(w)
	rows := make([][]string, 0, len(p.Ops))
	for i, op := range p.Ops {
		rows = append(rows, []string{
			strconv.Itoa(i),
			kindCell(op.Kind, colorize),
			string(op.Target),
			op.Path,
			op.Parent,
			strings.Join(op.Changes, ", "),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, renderTable(
			[]string{"#", "Kind", "Target", "Path", "Parent", "Changes"},
			rows,
			[]columnAlignment{alignRight},
		))
	}
	fmt.Fprintf(w, "Plan for %s: %d create, %d update, %d unchanged, %d remove\n",
		p.Root, p.Count(reconcile.Create), p.Count(reconcile.Update),
		p.Count(reconcile.Unchanged), p.Count(reconcile.Remove))
	writeWarnings(w, p.Warnings)
}

func writeWarnings(w io.Writer, ws syncerr.Warnings) {
	for _, warn := range ws {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

// writeReferences lists the sequence paths a plan touches, grouped by
// package directory.
func writeReferences(w io.Writer, common string, groups []pipeline.ReferenceGroup) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(w, "Sequences under %s:\n", common)
	for _, g := range groups {
		fmt.Fprintf(w, "  %s\n", g.Dir)
		for _, p := range g.Paths {
			fmt.Fprintf(w, "    %s\n", p)
		}
	}
}

func kindCell(kind reconcile.Kind, colorize bool) string {
	if !colorize {
		return string(kind)
	}
	switch kind {
	case reconcile.Create:
		return text.Colors{text.FgGreen}.Sprint(kind)
	case reconcile.Update:
		return text.Colors{text.FgYellow}.Sprint(kind)
	case reconcile.Remove:
		return text.Colors{text.FgRed}.Sprint(kind)
	default:
		return text.Colors{text.Faint}.Sprint(kind)
	}
}
