// Package apply executes a reconciled plan against the host inside a single
// labelled transaction. Either every op lands or none does.
//
// This is the only place rational times become host frames: each value is
// converted with rational.Time.Frames at the rate recorded on its op, which
// is the same conversion the reconciler compares against.
package apply

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/otioseq/internal/host"
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/reconcile"
	"github.com/roach88/otioseq/internal/syncerr"
)

// DefaultLabel is the transaction label used when Options.Label is empty.
const DefaultLabel = "OTIO Import"

// Options configures Apply.
type Options struct {
	// Label names the host transaction (DefaultLabel if empty).
	Label string
}

// Result reports what Apply wrote.
type Result struct {
	// TxnID is the host transaction id; empty when nothing was written.
	TxnID string `json:"txn_id,omitempty"`

	Label string `json:"label"`

	// Applied counts the ops that changed the host.
	Applied int `json:"applied"`
}

// Apply runs every non-UNCHANGED op of plan, in order, in one transaction.
//
// A host error on op i rolls the whole transaction back and is returned as a
// MutationError carrying i and the op's path. A plan without changes opens no
// transaction at all.
func Apply(ctx context.Context, h *host.Host, plan *reconcile.Plan, opts Options) (*Result, error) {
	label := opts.Label
	if label == "" {
		label = DefaultLabel
	}
	res := &Result{Label: label}
	if !plan.HasChanges() {
		slog.Info("plan has no changes", "root", plan.Root)
		return res, nil
	}

	txn, err := h.Begin(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	defer txn.Rollback()

	for i, op := range plan.Ops {
		if op.Kind == reconcile.Unchanged {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, syncerr.NewMutationError(i, op.Path, err)
		}
		if err := applyOp(ctx, txn, op); err != nil {
			slog.Error("mutation rejected", "op", i, "kind", op.Kind, "target", op.Target, "path", op.Path, "error", err)
			return nil, syncerr.NewMutationError(i, op.Path, err)
		}
		res.Applied++
	}

	if err := txn.Commit(); err != nil {
		return nil, syncerr.NewMutationError(len(plan.Ops), plan.Root, err)
	}
	res.TxnID = txn.ID()

	slog.Info("plan applied", "root", plan.Root, "txn", res.TxnID, "label", label, "ops", res.Applied)
	return res, nil
}

func applyOp(ctx context.Context, txn *host.Txn, op reconcile.Op) error {
	if op.Rate.IsZero() {
		return fmt.Errorf("%s %s %s: no frame rate", op.Kind, op.Target, op.Path)
	}

	switch op.Target {
	case reconcile.TargetSequence:
		return applySequence(ctx, txn, op)
	case reconcile.TargetSection:
		return applySection(ctx, txn, op)
	default:
		return fmt.Errorf("unknown op target %q", op.Target)
	}
}

func applySequence(ctx context.Context, txn *host.Txn, op reconcile.Op) error {
	seq := op.Sequence
	switch op.Kind {
	case reconcile.Create:
		rng := seq.PlaybackRange
		if rng == nil {
			rng = seq.InitialRange
		}
		var start, end int64
		if rng != nil {
			start, end = frames(*rng, op.Rate)
		}
		return txn.CreateSequence(ctx, host.SequenceRecord{
			Path:       seq.Path,
			Rate:       op.Rate,
			StartFrame: start,
			EndFrame:   end,
			Markers:    host.MarkerRecords(seq.Markers, op.Rate),
		})

	case reconcile.Update:
		for _, change := range op.Changes {
			var err error
			switch change {
			case "playback_range":
				start, end := frames(*seq.PlaybackRange, op.Rate)
				err = txn.SetPlaybackRange(ctx, seq.Path, start, end)
			case "markers":
				err = txn.SetMarkers(ctx, seq.Path, host.MarkerRecords(seq.Markers, op.Rate))
			default:
				err = fmt.Errorf("unknown sequence change %q", change)
			}
			if err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unexpected %s op on sequence %s", op.Kind, op.Path)
	}
}

func applySection(ctx context.Context, txn *host.Txn, op reconcile.Op) error {
	switch op.Kind {
	case reconcile.Create:
		_, err := txn.AddSection(ctx, op.Parent, sectionRecord(op))
		return err
	case reconcile.Update:
		return txn.UpdateSection(ctx, op.Parent, op.Existing.ID, sectionRecord(op))
	case reconcile.Remove:
		return txn.RemoveSection(ctx, op.Parent, op.Existing.ID)
	default:
		return fmt.Errorf("unexpected %s op on section %s", op.Kind, op.Path)
	}
}

func sectionRecord(op reconcile.Op) host.SectionRecord {
	sec := op.Section
	start, end := frames(sec.Range, op.Rate)
	return host.SectionRecord{
		SubSequence: sec.SubSequence,
		Row:         sec.Row,
		Position:    op.Index,
		StartFrame:  start,
		EndFrame:    end,
		StartOffset: sec.StartOffset.Frames(op.Rate),
		Speed:       sec.SpeedOrOne(),
		Markers:     host.MarkerRecords(sec.Markers, op.Rate),
	}
}

// frames converts r to a [start, end) frame pair at rate, rounding each end
// to the nearest frame.
func frames(r rational.Range, rate rational.Ratio) (start, end int64) {
	return r.Start.Frames(rate), r.End().Frames(rate)
}
