package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/otioseq/internal/config"
	"github.com/roach88/otioseq/internal/rational"
	"github.com/roach88/otioseq/internal/reconcile"
	"github.com/roach88/otioseq/internal/sequence"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Root is the sequence imports map onto and exports collect from.
	Root string `yaml:"root"`

	// Label names import transactions (config default if empty).
	Label string `yaml:"label,omitempty"`

	// Hooks are built-in hooks to register, as in the config file.
	Hooks []config.Hook `yaml:"hooks,omitempty"`

	// Setup creates sequences before the flow runs, in one transaction.
	// Children must be listed before the sequences referencing them.
	Setup []SequenceStep `yaml:"setup"`

	// Flow contains the imports, exports and undos to run in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and host state.
	Assertions []Assertion `yaml:"assertions"`
}

// SequenceStep creates one sequence. Frames are at Rate.
type SequenceStep struct {
	Path     string        `yaml:"path"`
	Rate     string        `yaml:"rate,omitempty"`
	Start    int64         `yaml:"start,omitempty"`
	End      int64         `yaml:"end"`
	Sections []SectionStep `yaml:"sections,omitempty"`
}

// SectionStep adds a section to the sequence being created, in its frames.
type SectionStep struct {
	SubSequence string `yaml:"sub_sequence"`
	Row         int    `yaml:"row,omitempty"`
	Start       int64  `yaml:"start"`
	End         int64  `yaml:"end"`
	StartOffset int64  `yaml:"start_offset,omitempty"`
}

// FlowStep is one step of the flow. Exactly one action field is set.
type FlowStep struct {
	// Import is an inline timeline document, in the YAML timeline format.
	Import *yaml.Node `yaml:"import,omitempty"`

	// Export collects Root into a timeline file.
	Export bool `yaml:"export,omitempty"`

	// Reimport imports the file written by the most recent export.
	Reimport bool `yaml:"reimport,omitempty"`

	// Undo reverts the most recent transaction.
	Undo bool `yaml:"undo,omitempty"`

	// Expect checks the step's outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// flowStepFields is FlowStep without its decoding method.
type flowStepFields FlowStep

// UnmarshalYAML keeps the import document as raw YAML, whatever keys the
// timeline format uses, while every other key of the step is still checked
// against the known fields.
func (s *FlowStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: flow step must be a mapping", node.Line)
	}

	var doc *yaml.Node
	rest := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Value == "import" {
			doc = value
			continue
		}
		rest.Content = append(rest.Content, key, value)
	}

	data, err := yaml.Marshal(rest)
	if err != nil {
		return err
	}
	var fields flowStepFields
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fields); err != nil {
		return fmt.Errorf("line %d: flow step: %w", node.Line, err)
	}

	*s = FlowStep(fields)
	s.Import = doc
	return nil
}

// ExpectClause specifies the expected outcome of a flow step.
type ExpectClause struct {
	// Error is the expected error code ("RESOLUTION_FAILED", ...), or
	// "ERROR" for any other failure. Empty expects success.
	Error string `yaml:"error,omitempty"`

	// Summary holds expected op counts per lower-case kind. Subset match.
	Summary map[string]int `yaml:"summary,omitempty"`

	// Warnings lists the expected warning features, in order.
	Warnings []string `yaml:"warnings,omitempty"`
}

// Assertion validates the trace or the final host state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "plan_contains": Check an op was planned
	// - "plan_order": Check ops appear in order
	// - "plan_count": Check exactly N ops of a kind were planned
	// - "final_state": Check a sequence or section has the given values
	// - "absent": Check no sequence exists at a path
	Type string `yaml:"type"`

	// Step restricts plan assertions to one flow step; nil means any.
	Step *int `yaml:"step,omitempty"`

	// Kind, Target and Path identify an op (plan_contains, plan_count).
	Kind   string `yaml:"kind,omitempty"`
	Target string `yaml:"target,omitempty"`
	Path   string `yaml:"path,omitempty"`

	// Ops is the expected op order (plan_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of ops (plan_count).
	Count int `yaml:"count,omitempty"`

	// Sequence is the sequence to inspect (final_state, absent).
	Sequence string `yaml:"sequence,omitempty"`

	// Section selects a section of Sequence by sub-sequence path.
	Section string `yaml:"section,omitempty"`

	// Expect contains expected field values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertPlanContains = "plan_contains"
	AssertPlanOrder    = "plan_order"
	AssertPlanCount    = "plan_count"
	AssertFinalState   = "final_state"
	AssertAbsent       = "absent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if err := sequence.ValidatePath(s.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := sequence.ValidatePath(step.Path); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Rate != "" {
			if r, err := rational.Parse(step.Rate); err != nil || r.Sign() <= 0 {
				return fmt.Errorf("setup[%d]: rate %q must be a positive rate", i, step.Rate)
			}
		}
		if step.End < step.Start {
			return fmt.Errorf("setup[%d]: end %d is before start %d", i, step.End, step.Start)
		}
		for j, sec := range step.Sections {
			if sec.SubSequence == "" {
				return fmt.Errorf("setup[%d].sections[%d]: sub_sequence is required", i, j)
			}
			if sec.End < sec.Start {
				return fmt.Errorf("setup[%d].sections[%d]: end %d is before start %d", i, j, sec.End, sec.Start)
			}
		}
	}

	exported := false
	for i, step := range s.Flow {
		actions := 0
		for _, set := range []bool{step.Import != nil, step.Export, step.Reimport, step.Undo} {
			if set {
				actions++
			}
		}
		if actions != 1 {
			return fmt.Errorf("flow[%d]: exactly one of import, export, reimport or undo is required", i)
		}
		if step.Export {
			exported = true
		}
		if step.Reimport && !exported {
			return fmt.Errorf("flow[%d]: reimport needs an earlier export step", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Flow)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Step != nil && (*a.Step < 0 || *a.Step >= steps) {
		return fmt.Errorf("assertions[%d]: step %d is out of range", index, *a.Step)
	}

	switch a.Type {
	case AssertPlanContains:
		if a.Kind == "" || a.Path == "" {
			return fmt.Errorf("assertions[%d]: kind and path are required for plan_contains", index)
		}
		if err := validateKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertPlanOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for plan_order", index)
		}
	case AssertPlanCount:
		if err := validateKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for plan_count", index)
		}
	case AssertFinalState:
		if a.Sequence == "" {
			return fmt.Errorf("assertions[%d]: sequence is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertAbsent:
		if a.Sequence == "" {
			return fmt.Errorf("assertions[%d]: sequence is required for absent", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validateKind(kind string) error {
	switch reconcile.Kind(kind) {
	case reconcile.Create, reconcile.Update, reconcile.Unchanged, reconcile.Remove:
		return nil
	default:
		return fmt.Errorf("unknown op kind %q", kind)
	}
}
