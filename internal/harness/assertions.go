package harness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/otioseq/internal/host"
	"github.com/roach88/otioseq/internal/sequence"
)

// AssertionContext carries what state assertions read.
type AssertionContext struct {
	Host *host.Host
	Ctx  context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Planned ops for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nPlanned ops:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d: %s\n", i+1, event.Step, event.OpString())
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure. An empty result means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	step := -1
	if a.Step != nil {
		step = *a.Step
	}
	ops := result.stepOps(step)

	switch a.Type {
	case AssertPlanContains:
		return assertPlanContains(ops, a)
	case AssertPlanOrder:
		return assertPlanOrder(ops, a)
	case AssertPlanCount:
		return assertPlanCount(ops, a)
	case AssertFinalState:
		return assertFinalState(actx, a)
	case AssertAbsent:
		return assertAbsent(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// matchesOp reports whether event is an op of a.Kind on a.Path, and of
// a.Target when one is given.
func matchesOp(event TraceEvent, a Assertion) bool {
	if event.Kind != a.Kind || !sequence.SamePath(event.Path, a.Path) {
		return false
	}
	return a.Target == "" || event.Target == a.Target
}

// assertPlanContains checks that at least one matching op was planned.
func assertPlanContains(ops []TraceEvent, a Assertion) error {
	for _, event := range ops {
		if matchesOp(event, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertPlanContains,
		Expected: fmt.Sprintf("%s %s %s", a.Kind, targetOrAny(a.Target), a.Path),
		Actual:   "not found in plan",
		Trace:    ops,
	}
}

// assertPlanOrder checks that ops appear in the given order. Intervening
// ops are allowed; each expected op matches after the previous one.
func assertPlanOrder(ops []TraceEvent, a Assertion) error {
	pos := 0
	for _, want := range a.Ops {
		found := false
		for pos < len(ops) {
			got := ops[pos].OpString()
			pos++
			if got == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertPlanOrder,
				Expected: fmt.Sprintf("ops in order: %v", a.Ops),
				Actual:   fmt.Sprintf("%q missing or out of order", want),
				Trace:    ops,
			}
		}
	}
	return nil
}

// assertPlanCount checks the exact number of ops of a kind, narrowed to
// a target and path when those are given.
func assertPlanCount(ops []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range ops {
		if event.Kind != a.Kind {
			continue
		}
		if a.Target != "" && event.Target != a.Target {
			continue
		}
		if a.Path != "" && !sequence.SamePath(event.Path, a.Path) {
			continue
		}
		count++
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertPlanCount,
			Expected: fmt.Sprintf("%d %s ops", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d ops", count),
			Trace:    ops,
		}
	}
	return nil
}

// assertFinalState reads a sequence (or one of its sections) from the
// host and checks the expected fields. Subset match: unlisted fields are
// ignored.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	seq, err := actx.Host.Sequence(actx.Ctx, a.Sequence)
	if errors.Is(err, sequence.ErrNotFound) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("sequence %s", a.Sequence),
			Actual:   "sequence not found",
		}
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", a.Sequence, err)
	}

	fields := sequenceFields(seq)
	subject := a.Sequence
	if a.Section != "" {
		sec := findSection(seq, a.Section)
		if sec == nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("section %s in %s", a.Section, a.Sequence),
				Actual:   "section not found",
			}
		}
		fields = sectionFields(sec, seq)
		subject = a.Section + " in " + a.Sequence
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actual, ok := fields[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q on %s", key, subject),
				Actual:   fmt.Sprintf("unknown field; have %s", strings.Join(fieldNames(fields), ", ")),
			}
		}
		expected := fmt.Sprint(a.Expect[key])
		if expected != actual {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %s", subject, key, expected),
				Actual:   fmt.Sprintf("%s.%s = %s", subject, key, actual),
			}
		}
	}
	return nil
}

// assertAbsent checks that no sequence exists at a.Sequence.
func assertAbsent(actx *AssertionContext, a Assertion) error {
	_, err := actx.Host.Sequence(actx.Ctx, a.Sequence)
	if errors.Is(err, sequence.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", a.Sequence, err)
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("no sequence at %s", a.Sequence),
		Actual:   "sequence exists",
	}
}

// sequenceFields renders the comparable fields of a live sequence, in
// whole frames at its own rate.
func sequenceFields(seq *sequence.Sequence) map[string]string {
	fields := map[string]string{
		"rate":     seq.Rate.String(),
		"sections": fmt.Sprint(seq.SectionCount()),
		"markers":  fmt.Sprint(len(seq.Markers)),
	}
	if seq.PlaybackRange != nil {
		fields["start"] = fmt.Sprint(seq.PlaybackRange.Start.Frames(seq.Rate))
		fields["end"] = fmt.Sprint(seq.PlaybackRange.End().Frames(seq.Rate))
	}
	return fields
}

// sectionFields renders the comparable fields of a section, in whole
// frames at the parent's rate.
func sectionFields(sec *sequence.Section, parent *sequence.Sequence) map[string]string {
	return map[string]string{
		"row":          fmt.Sprint(sec.Row),
		"start":        fmt.Sprint(sec.Range.Start.Frames(parent.Rate)),
		"end":          fmt.Sprint(sec.Range.End().Frames(parent.Rate)),
		"start_offset": fmt.Sprint(sec.StartOffset.Frames(parent.Rate)),
		"speed":        sec.SpeedOrOne().String(),
		"markers":      fmt.Sprint(len(sec.Markers)),
	}
}

func findSection(seq *sequence.Sequence, subSequence string) *sequence.Section {
	if seq.Shots == nil {
		return nil
	}
	for _, sec := range seq.Shots.Sections {
		if sequence.SamePath(sec.SubSequence, subSequence) {
			return sec
		}
	}
	return nil
}

func fieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func targetOrAny(target string) string {
	if target == "" {
		return "*"
	}
	return target
}
