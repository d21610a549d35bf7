package classify

import (
	"testing"

	"partsbin/internal/taxonomy"
)

func testTaxonomy() taxonomy.Taxonomy {
	return taxonomy.Taxonomy{
		Types: []taxonomy.Type{
			{
				Name: "Resistor",
				Branches: []taxonomy.BranchRule{
					{
						Name:         "Chip Resistor",
						Parameters:   []taxonomy.ParameterKind{taxonomy.KindResistance, taxonomy.KindTolerance},
						StoragePlace: "A1",
					},
					{
						Name:       "Potentiometer",
						Parameters: []taxonomy.ParameterKind{taxonomy.KindResistance},
					},
				},
			},
			{
				Name: "Capacitor",
				Branches: []taxonomy.BranchRule{
					{
						Name:       "MLCC",
						Parameters: []taxonomy.ParameterKind{taxonomy.KindCapacitance, taxonomy.KindVoltage},
					},
				},
			},
		},
	}
}

func TestClassify_TypeAndBranch(t *testing.T) {
	res := Classify("Chip Resistor 4.7kΩ ±1% 0402", testTaxonomy())

	if !res.Matched() {
		t.Fatal("expected a match")
	}
	if res.ComponentType != "Resistor" {
		t.Errorf("ComponentType = %q, want %q", res.ComponentType, "Resistor")
	}
	if res.ComponentBranch != "Chip Resistor" {
		t.Errorf("ComponentBranch = %q, want %q", res.ComponentBranch, "Chip Resistor")
	}
	if res.StoragePlace != "A1" {
		t.Errorf("StoragePlace = %q, want %q", res.StoragePlace, "A1")
	}
	if got := res.Parameter(taxonomy.KindResistance); got != "4.7kΩ" {
		t.Errorf("resistance = %q, want %q", got, "4.7kΩ")
	}
	if got := res.Parameter(taxonomy.KindTolerance); got != "±1%" {
		t.Errorf("tolerance = %q, want %q", got, "±1%")
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	res := Classify("MLCC capacitor 100nF 25V X7R", testTaxonomy())

	if res.ComponentBranch != "MLCC" {
		t.Fatalf("ComponentBranch = %q, want %q", res.ComponentBranch, "MLCC")
	}
	if got := res.Parameter(taxonomy.KindCapacitance); got != "100nF" {
		t.Errorf("capacitance = %q, want %q", got, "100nF")
	}
	if got := res.Parameter(taxonomy.KindVoltage); got != "25V" {
		t.Errorf("voltage = %q, want %q", got, "25V")
	}
}

func TestClassify_DeclaredOrderWins(t *testing.T) {
	// Both branches of Resistor appear; the first declared wins.
	res := Classify("Potentiometer style chip resistor 10kΩ", testTaxonomy())
	if res.ComponentBranch != "Chip Resistor" {
		t.Errorf("ComponentBranch = %q, want %q", res.ComponentBranch, "Chip Resistor")
	}
}

func TestClassify_CommittedTypeWithoutBranch(t *testing.T) {
	// "resistor" commits the Resistor type, but no branch name appears.
	// No fallthrough to Capacitor even though "capacitor" also appears.
	res := Classify("Resistor network capacitor MLCC", testTaxonomy())
	if res.Matched() {
		t.Errorf("expected no match, got branch %q", res.ComponentBranch)
	}
}

func TestClassify_NoMatch(t *testing.T) {
	tests := []string{
		"",
		"Microcontroller STM32F103 LQFP48",
		"totally unrelated text",
	}
	for _, desc := range tests {
		res := Classify(desc, testTaxonomy())
		if res.Matched() {
			t.Errorf("Classify(%q) matched branch %q, want no match", desc, res.ComponentBranch)
		}
		if res.ComponentType != "" {
			t.Errorf("Classify(%q) type = %q, want empty", desc, res.ComponentType)
		}
	}
}

func TestClassify_OnlyDeclaredParameters(t *testing.T) {
	// Chip Resistor declares resistance and tolerance only; the voltage in
	// the text must not be extracted.
	res := Classify("Chip Resistor 10kΩ 50V", testTaxonomy())
	if got := res.Parameter(taxonomy.KindVoltage); got != "" {
		t.Errorf("voltage = %q, want empty", got)
	}
	if got := res.Parameter(taxonomy.KindResistance); got != "10kΩ" {
		t.Errorf("resistance = %q, want %q", got, "10kΩ")
	}
}
