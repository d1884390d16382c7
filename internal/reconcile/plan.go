package reconcile

import (
	"fmt"
	"strings"

	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/sequence"
	"github.com/roach88/otioseq/internal/syncerr"
)

// Kind classifies an op.
type Kind string

const (
	Create    Kind = "CREATE"
	Update    Kind = "UPDATE"
	Unchanged Kind = "UNCHANGED"
	Remove    Kind = "REMOVE"
)

// Target says what an op acts on.
type Target string

const (
	TargetSequence Target = "sequence"
	TargetSection  Target = "section"
)

// Op is one classified node of the plan.
type Op struct {
	Kind   Kind
	Target Target

	// Path is the sequence asset path (sequence ops) or the referenced
	// sub-sequence path (section ops).
	Path string

	// Parent is the sequence holding the section (section ops), or the first
	// sequence referencing this one (sequence ops; empty for the root).
	Parent string

	// Index is the section's position in the planned shot track; -1 for
	// sequence ops and removals.
	Index int

	// Rate is the frame rate the op's times are written at: the sequence's
	// own rate for sequence ops, the parent's rate for section ops.
	Rate rational.Ratio

	// Sequence is the planned sequence (sequence ops).
	Sequence *sequence.Sequence

	// Section is the planned section (section ops other than Remove).
	Section *sequence.Section

	// Existing is the live section matched by this op (section Update,
	// Unchanged and Remove).
	Existing *sequence.Section

	// Changes names the attributes that differ (Update only).
	Changes []string
}

// String renders an op for logs and text output.
func (o Op) String() string {
	s := fmt.Sprintf("%-9s %-8s %s", o.Kind, o.Target, o.Path)
	if o.Target == TargetSection {
		s += " in " + o.Parent
	}
	if len(o.Changes) > 0 {
		s += " (" + strings.Join(o.Changes, ", ") + ")"
	}
	return s
}

// Plan is an ordered list of ops. Parents precede children, and a child
// sequence's op precedes every section op that references it.
type Plan struct {
	Root     string
	Ops      []Op
	Warnings syncerr.Warnings
}

// Count returns the number of ops of kind.
func (p *Plan) Count(kind Kind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// HasChanges reports whether applying the plan would modify the host.
func (p *Plan) HasChanges() bool {
	for _, op := range p.Ops {
		if op.Kind != Unchanged {
			return true
		}
	}
	return false
}

// Summary counts ops per kind.
func (p *Plan) Summary() map[Kind]int {
	return map[Kind]int{
		Create:    p.Count(Create),
		Update:    p.Count(Update),
		Unchanged: p.Count(Unchanged),
		Remove:    p.Count(Remove),
	}
}

// SequenceOps returns the sequence-level ops in plan order.
func (p *Plan) SequenceOps() []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Target == TargetSequence {
			out = append(out, op)
		}
	}
	return out
}
