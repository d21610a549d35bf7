// Package taxonomy manages the user-editable rule tree that drives
// classification: component type → branch → (parameter kinds to extract,
// default storage location).
//
// Declaration order is load-bearing. Classification is first-match-wins over
// the order types and branches appear in the document, so the tree is modeled
// as ordered slices rather than maps.
package taxonomy

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced type or branch does not exist.
var ErrNotFound = errors.New("taxonomy: type or branch not found")

// ParameterKind identifies one of the electrical parameters a branch rule can
// ask the classifier to extract.
type ParameterKind string

const (
	KindResistance   ParameterKind = "Resistance"
	KindCapacitance  ParameterKind = "Capacitance"
	KindInductance   ParameterKind = "Inductance"
	KindVoltage      ParameterKind = "Voltage"
	KindTolerance    ParameterKind = "Tolerance"
	KindCurrentPower ParameterKind = "Current/Power"
)

// Kinds lists every parameter kind in canonical order.
var Kinds = []ParameterKind{
	KindResistance,
	KindCapacitance,
	KindInductance,
	KindVoltage,
	KindTolerance,
	KindCurrentPower,
}

// Valid reports whether k is one of the declared parameter kinds.
func (k ParameterKind) Valid() bool {
	switch k {
	case KindResistance, KindCapacitance, KindInductance,
		KindVoltage, KindTolerance, KindCurrentPower:
		return true
	}
	return false
}

// BranchRule describes one branch of a component type: which parameters to
// extract from a matching description and where parts of this branch live.
type BranchRule struct {
	Name         string          `json:"name"`
	Parameters   []ParameterKind `json:"parameters"`
	StoragePlace string          `json:"storage_place,omitempty"`
}

// Type groups the branches of one component type, in declared order.
type Type struct {
	Name     string       `json:"name"`
	Branches []BranchRule `json:"branches"`
}

// Taxonomy is the full rule tree. The zero value is an empty taxonomy.
type Taxonomy struct {
	Types []Type `json:"types"`
}

// Validate checks structural invariants: non-empty names, known parameter
// kinds, and branch names unique within their type.
func (t Taxonomy) Validate() error {
	for _, ct := range t.Types {
		if ct.Name == "" {
			return fmt.Errorf("taxonomy: type with empty name")
		}
		seen := make(map[string]bool, len(ct.Branches))
		for _, br := range ct.Branches {
			if br.Name == "" {
				return fmt.Errorf("taxonomy: type %q has branch with empty name", ct.Name)
			}
			if seen[br.Name] {
				return fmt.Errorf("taxonomy: type %q declares branch %q twice", ct.Name, br.Name)
			}
			seen[br.Name] = true
			for _, k := range br.Parameters {
				if !k.Valid() {
					return fmt.Errorf("taxonomy: branch %q has unknown parameter kind %q", br.Name, k)
				}
			}
		}
	}
	return nil
}

// Branch returns the rule for the named type/branch pair.
func (t Taxonomy) Branch(typeName, branchName string) (BranchRule, bool) {
	for _, ct := range t.Types {
		if ct.Name != typeName {
			continue
		}
		for _, br := range ct.Branches {
			if br.Name == branchName {
				return br, true
			}
		}
	}
	return BranchRule{}, false
}

// clone returns a deep copy so snapshots never alias store-owned slices.
func (t Taxonomy) clone() Taxonomy {
	out := Taxonomy{Types: make([]Type, len(t.Types))}
	for i, ct := range t.Types {
		branches := make([]BranchRule, len(ct.Branches))
		for j, br := range ct.Branches {
			params := make([]ParameterKind, len(br.Parameters))
			copy(params, br.Parameters)
			branches[j] = BranchRule{
				Name:         br.Name,
				Parameters:   params,
				StoragePlace: br.StoragePlace,
			}
		}
		out.Types[i] = Type{Name: ct.Name, Branches: branches}
	}
	return out
}
