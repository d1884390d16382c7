package codec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/otioseq/internal/rational"
)

// Number is a rational.Ratio as it appears in a timeline file.
type Number rational.Ratio

// Ratio returns n as a rational.Ratio.
func (n Number) Ratio() rational.Ratio {
	return rational.Ratio(n).Norm()
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	r := n.Ratio()
	if lit, ok := r.Decimal(); ok {
		return []byte(lit), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	r, err := rational.Parse(s)
	if err != nil {
		return err
	}
	*n = Number(r)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n Number) MarshalYAML() (any, error) {
	r := n.Ratio()
	lit, ok := r.Decimal()
	if !ok {
		return r.String(), nil
	}
	tag := "!!float"
	if r.Den == 1 {
		tag = "!!int"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: lit}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number, got %v", node.Line, node.Kind)
	}
	if node.Tag == "!!null" {
		return nil
	}
	r, err := rational.Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*n = Number(r)
	return nil
}
