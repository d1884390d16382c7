package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/otioseq/internal/adapter"
	"github.com/roach88/otioseq/internal/apply"
	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/reconcile"
	"github.com/roach88/otioseq/internal/sequence"
	"github.com/roach88/otioseq/internal/syncerr"
	"github.com/roach88/otioseq/internal/timeline"
)

// Approver decides whether a reconciled plan may be applied.
type Approver func(ctx context.Context, plan *reconcile.Plan) (bool, error)

// ImportOptions configures Import.
type ImportOptions struct {
	// Path is the timeline file to read.
	Path string

	// Root is the sequence the root stack maps onto. Empty uses the
	// configured import root; if that is empty too the root stack must
	// resolve its own path.
	Root string

	// Label names the host transaction. Empty uses the configured label.
	Label string

	// DryRun stops after reconciliation.
	DryRun bool

	// Approve is consulted after reconciliation. Nil approves every plan.
	Approve Approver
}

// ImportResult reports what Import did.
type ImportResult struct {
	Timeline *timeline.Timeline

	// Planned is the hierarchy the timeline maps to.
	Planned *sequence.Sequence

	Plan *reconcile.Plan

	// Applied is nil on a dry run.
	Applied *apply.Result
}

// Import runs the import flow for opts.Path.
//
// A rejected plan returns syncerr.ErrCancelled and leaves the host untouched.
func (p *Pipeline) Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	tl, err := p.readTimeline(opts.Path)
	if err != nil {
		return nil, err
	}

	d := hooks.NewDispatcher(p.hooks)
	tl, err = d.InvokeTimeline(hooks.PreImportTimeline, tl, nil)
	if err != nil {
		return nil, err
	}

	root := opts.Root
	if root == "" {
		root = p.cfg.Import.Root
	}
	planned, err := adapter.PlanFromTimeline(tl, root, d)
	if err != nil {
		return nil, err
	}

	plan, err := reconcile.Reconcile(ctx, planned.Root, p.host)
	if err != nil {
		return nil, err
	}
	plan.Warnings = append(planned.Warnings, plan.Warnings...)
	for _, w := range plan.Warnings {
		slog.Warn("unsupported feature", "feature", w.Feature, "item", w.Item, "message", w.Message)
	}

	res := &ImportResult{Timeline: tl, Planned: planned.Root, Plan: plan}
	if opts.DryRun {
		return res, nil
	}

	if opts.Approve != nil && plan.HasChanges() {
		ok, err := opts.Approve(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("approve plan: %w", err)
		}
		if !ok {
			slog.Info("import cancelled", "root", plan.Root)
			return nil, syncerr.ErrCancelled
		}
	}

	label := opts.Label
	if label == "" {
		label = p.cfg.Import.Label
	}
	res.Applied, err = apply.Apply(ctx, p.host, plan, apply.Options{Label: label})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Preview is Import with DryRun set.
func (p *Pipeline) Preview(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	opts.DryRun = true
	return p.Import(ctx, opts)
}

func (p *Pipeline) readTimeline(path string) (*timeline.Timeline, error) {
	c, err := p.importCodec(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open timeline: %w", err)
	}
	defer f.Close()

	tl, err := c.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("timeline decoded", "path", path, "codec", c.Name(), "name", tl.Name)
	return tl, nil
}

// ReferenceGroup is a set of sequence paths sharing one folder.
type ReferenceGroup struct {
	Dir   string   `json:"dir"`
	Paths []string `json:"paths"`
}

// References lists every sequence a plan maps to, grouped by folder in
// first-seen order. It also returns the folder common to all of them.
func References(root *sequence.Sequence) (string, []ReferenceGroup) {
	var all []string
	var groups []ReferenceGroup
	index := map[string]int{}

	_ = sequence.Walk(root, func(s *sequence.Sequence) error {
		path := sequence.NormalizePath(s.Path)
		all = append(all, path)
		dir := sequence.PackageDir(path)
		i, ok := index[dir]
		if !ok {
			i = len(groups)
			index[dir] = i
			groups = append(groups, ReferenceGroup{Dir: dir})
		}
		groups[i].Paths = append(groups[i].Paths, path)
		return nil
	})
	return sequence.CommonDir(all), groups
}
