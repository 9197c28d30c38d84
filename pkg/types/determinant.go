// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// DeterminantKind discriminates the two Determinant variants.
type DeterminantKind string

const (
	DeterminantIntrinsic DeterminantKind = "intrinsic"
	DeterminantExtrinsic DeterminantKind = "extrinsic"
)

// Determinant describes a fork in the answer space. It is a closed sum type:
// the only implementations are IntrinsicDeterminant and ExtrinsicDeterminant.
type Determinant interface {
	Kind() DeterminantKind
	isDeterminant()
}

// IntrinsicDeterminant is a set of mutually exclusive claims. It compiles
// into one conflict edge per unordered pair of its claims.
type IntrinsicDeterminant struct {
	Fork     string   `json:"fork" yaml:"fork"`
	Hinge    string   `json:"hinge" yaml:"hinge"`
	Question string   `json:"question" yaml:"question"`
	Claims   []string `json:"claims" yaml:"claims"`

	// Paths maps claim id to the outcome of taking that branch. When present
	// its keys define the determinant's claim set.
	Paths map[string]string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// ExtrinsicDeterminant is an external condition on which some claims depend.
// It compiles into exactly one ConditionalPruner.
type ExtrinsicDeterminant struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Fork     string   `json:"fork" yaml:"fork"`
	Hinge    string   `json:"hinge" yaml:"hinge"`
	Question string   `json:"question" yaml:"question"`
	Claims   []string `json:"claims" yaml:"claims"`
	YesMeans string   `json:"yes_means,omitempty" yaml:"yes_means,omitempty"`
	NoMeans  string   `json:"no_means,omitempty" yaml:"no_means,omitempty"`
}

func (IntrinsicDeterminant) Kind() DeterminantKind { return DeterminantIntrinsic }
func (ExtrinsicDeterminant) Kind() DeterminantKind { return DeterminantExtrinsic }

func (IntrinsicDeterminant) isDeterminant() {}
func (ExtrinsicDeterminant) isDeterminant() {}

// MarshalJSON adds the "type" discriminator.
func (d IntrinsicDeterminant) MarshalJSON() ([]byte, error) {
	type plain IntrinsicDeterminant
	return json.Marshal(struct {
		Type DeterminantKind `json:"type"`
		plain
	}{DeterminantIntrinsic, plain(d)})
}

// MarshalJSON adds the "type" discriminator.
func (d ExtrinsicDeterminant) MarshalJSON() ([]byte, error) {
	type plain ExtrinsicDeterminant
	return json.Marshal(struct {
		Type DeterminantKind `json:"type"`
		plain
	}{DeterminantExtrinsic, plain(d)})
}

// MarshalYAML adds the "type" discriminator.
func (d IntrinsicDeterminant) MarshalYAML() (any, error) {
	type plain IntrinsicDeterminant
	return struct {
		Type  DeterminantKind `yaml:"type"`
		plain `yaml:",inline"`
	}{DeterminantIntrinsic, plain(d)}, nil
}

// MarshalYAML adds the "type" discriminator.
func (d ExtrinsicDeterminant) MarshalYAML() (any, error) {
	type plain ExtrinsicDeterminant
	return struct {
		Type  DeterminantKind `yaml:"type"`
		plain `yaml:",inline"`
	}{DeterminantExtrinsic, plain(d)}, nil
}

// DeterminantList is a slice of determinants that decodes its variants from
// the "type" discriminator.
type DeterminantList []Determinant

// UnmarshalJSON decodes each element into its concrete variant.
func (l *DeterminantList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(DeterminantList, 0, len(raws))
	for i, raw := range raws {
		var head struct {
			Type DeterminantKind `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("determinant %d: %w", i, err)
		}

		switch head.Type {
		case DeterminantIntrinsic:
			var d IntrinsicDeterminant
			if err := json.Unmarshal(raw, &d); err != nil {
				return fmt.Errorf("determinant %d: %w", i, err)
			}
			out = append(out, d)
		case DeterminantExtrinsic:
			var d ExtrinsicDeterminant
			if err := json.Unmarshal(raw, &d); err != nil {
				return fmt.Errorf("determinant %d: %w", i, err)
			}
			out = append(out, d)
		default:
			return fmt.Errorf("determinant %d: unknown type %q", i, head.Type)
		}
	}

	*l = out
	return nil
}

// UnmarshalYAML decodes each element into its concrete variant.
func (l *DeterminantList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("determinants: expected a sequence, got line %d", value.Line)
	}

	out := make(DeterminantList, 0, len(value.Content))
	for i, node := range value.Content {
		var head struct {
			Type DeterminantKind `yaml:"type"`
		}
		if err := node.Decode(&head); err != nil {
			return fmt.Errorf("determinant %d: %w", i, err)
		}

		switch head.Type {
		case DeterminantIntrinsic:
			var d IntrinsicDeterminant
			if err := node.Decode(&d); err != nil {
				return fmt.Errorf("determinant %d: %w", i, err)
			}
			out = append(out, d)
		case DeterminantExtrinsic:
			var d ExtrinsicDeterminant
			if err := node.Decode(&d); err != nil {
				return fmt.Errorf("determinant %d: %w", i, err)
			}
			out = append(out, d)
		default:
			return fmt.Errorf("determinant %d: unknown type %q", i, head.Type)
		}
	}

	*l = out
	return nil
}
