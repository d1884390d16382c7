package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/otioseq/internal/config"
	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/host"
	"github.com/roach88/otioseq/internal/pipeline"
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/reconcile"
	"github.com/roach88/otioseq/internal/syncerr"
	"github.com/roach88/otioseq/internal/testutil"
)

// outcomeError is the outcome recorded for failures without a syncerr code.
const outcomeError = "ERROR"

// Harness is the scenario execution engine.
type Harness struct {
	dir        string
	host       *host.Host
	pipeline   *pipeline.Pipeline
	root       string
	lastExport string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh host database in a temporary
// directory that is removed afterwards. Transaction ids are sequential.
//
// Execution flow:
// 1. Open a fresh host and register the scenario's hooks
// 2. Create the setup sequences in one transaction
// 3. Run each flow step, recording planned ops and outcomes
// 4. Evaluate assertions against the trace and the host
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "otioseq-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	h, err := host.Open(filepath.Join(dir, "host.db"), host.WithIDGenerator(testutil.NewSequentialIDGenerator("")))
	if err != nil {
		return nil, fmt.Errorf("failed to open host: %w", err)
	}
	defer h.Close()

	cfg := config.Default()
	cfg.Import.Root = scenario.Root
	if scenario.Label != "" {
		cfg.Import.Label = scenario.Label
	}
	cfg.Hooks = scenario.Hooks
	reg := hooks.NewRegistry()
	if err := cfg.RegisterHooks(reg); err != nil {
		return nil, fmt.Errorf("failed to register hooks: %w", err)
	}

	hr := &Harness{
		dir:      dir,
		host:     h,
		pipeline: pipeline.New(h, &cfg, pipeline.WithHooks(reg)),
		root:     scenario.Root,
	}

	ctx := context.Background()

	if err := hr.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		if err := hr.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{Host: h, Ctx: ctx}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup creates every setup sequence and its sections.
func (hr *Harness) executeSetup(ctx context.Context, setup []SequenceStep) error {
	if len(setup) == 0 {
		return nil
	}
	txn, err := hr.host.Begin(ctx, "setup")
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for i, step := range setup {
		rate := rational.Int(24)
		if step.Rate != "" {
			if rate, err = rational.Parse(step.Rate); err != nil {
				return fmt.Errorf("setup[%d]: %w", i, err)
			}
		}
		if err := txn.CreateSequence(ctx, host.SequenceRecord{
			Path:       step.Path,
			Rate:       rate,
			StartFrame: step.Start,
			EndFrame:   step.End,
		}); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		for j, sec := range step.Sections {
			if _, err := txn.AddSection(ctx, step.Path, host.SectionRecord{
				SubSequence: sec.SubSequence,
				Row:         sec.Row,
				Position:    j,
				StartFrame:  sec.Start,
				EndFrame:    sec.End,
				StartOffset: sec.StartOffset,
				Speed:       rational.One,
			}); err != nil {
				return fmt.Errorf("setup[%d].sections[%d]: %w", i, j, err)
			}
		}
	}
	return txn.Commit()
}

// executeStep runs one flow step and checks its expect clause. Step
// failures are outcomes, not errors; only harness problems are returned.
func (hr *Harness) executeStep(ctx context.Context, i int, step FlowStep, result *Result) error {
	var (
		action   string
		plan     *reconcile.Plan
		outcome  string
		warnings syncerr.Warnings
		stepErr  error
	)

	switch {
	case step.Import != nil, step.Reimport:
		action = ActionImport
		path := hr.lastExport
		if step.Reimport {
			action = ActionReimport
		} else {
			var err error
			if path, err = hr.writeTimeline(i, step.Import); err != nil {
				return err
			}
		}
		res, err := hr.pipeline.Import(ctx, pipeline.ImportOptions{Path: path})
		stepErr = err
		if err == nil {
			plan = res.Plan
			warnings = res.Plan.Warnings
			outcome = "unchanged"
			if res.Applied != nil && res.Applied.TxnID != "" {
				outcome = "applied " + res.Applied.TxnID
			}
		}

	case step.Export:
		action = ActionExport
		path := filepath.Join(hr.dir, fmt.Sprintf("export_%d.json", i))
		res, err := hr.pipeline.Export(ctx, pipeline.ExportOptions{Root: hr.root, Path: path})
		stepErr = err
		if err == nil {
			hr.lastExport = res.Path
			warnings = res.Warnings
			outcome = fmt.Sprintf("exported %d tracks", len(res.Timeline.Tracks.Children))
		}

	case step.Undo:
		action = ActionUndo
		info, err := hr.host.Undo(ctx)
		stepErr = err
		if err == nil {
			outcome = "undone " + info.Label
		}
	}

	if stepErr != nil {
		outcome = errorOutcome(stepErr)
	}
	if plan != nil {
		for _, op := range plan.Ops {
			result.Trace = append(result.Trace, TraceEvent{
				Step:    i,
				Action:  action,
				Kind:    string(op.Kind),
				Target:  string(op.Target),
				Path:    op.Path,
				Parent:  op.Parent,
				Changes: op.Changes,
			})
		}
	}
	features := make([]string, 0, len(warnings))
	for _, w := range warnings {
		features = append(features, string(w.Feature))
	}
	result.Trace = append(result.Trace, TraceEvent{Step: i, Action: action, Outcome: outcome, Warnings: features})

	hr.checkExpect(i, step.Expect, stepErr, outcome, plan, features, result)
	return nil
}

func (hr *Harness) checkExpect(i int, expect *ExpectClause, stepErr error, outcome string, plan *reconcile.Plan, features []string, result *Result) {
	if expect == nil {
		expect = &ExpectClause{}
	}

	if expect.Error == "" && stepErr != nil {
		result.AddError(fmt.Sprintf("flow[%d]: unexpected error: %v", i, stepErr))
		return
	}
	if expect.Error != "" {
		if stepErr == nil {
			result.AddError(fmt.Sprintf("flow[%d]: expected error %s, step succeeded (%s)", i, expect.Error, outcome))
		} else if outcome != expect.Error {
			result.AddError(fmt.Sprintf("flow[%d]: expected error %s, got %s: %v", i, expect.Error, outcome, stepErr))
		}
		return
	}

	if len(expect.Summary) > 0 {
		if plan == nil {
			result.AddError(fmt.Sprintf("flow[%d]: summary expected but the step planned nothing", i))
		} else {
			for kind, want := range expect.Summary {
				got := plan.Count(reconcile.Kind(strings.ToUpper(kind)))
				if got != want {
					result.AddError(fmt.Sprintf("flow[%d]: expected %d %s ops, got %d", i, want, kind, got))
				}
			}
		}
	}

	if expect.Warnings != nil && !slices.Equal(expect.Warnings, features) {
		result.AddError(fmt.Sprintf("flow[%d]: expected warnings %v, got %v", i, expect.Warnings, features))
	}
}

// writeTimeline renders an inline timeline document to a file the import
// pipeline can read.
func (hr *Harness) writeTimeline(i int, doc *yaml.Node) (string, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("render timeline: %w", err)
	}
	path := filepath.Join(hr.dir, fmt.Sprintf("timeline_%d.yaml", i))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write timeline: %w", err)
	}
	return path, nil
}

func errorOutcome(err error) string {
	if code := syncerr.CodeOf(err); code != "" {
		return string(code)
	}
	if errors.Is(err, host.ErrNothingToUndo) {
		return "NOTHING_TO_UNDO"
	}
	return outcomeError
}
