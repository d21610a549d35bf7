package inventory

import (
	"strings"
	"testing"
)

func TestBuildSearchSQL_NoFilters(t *testing.T) {
	sql, args := buildSearchSQL(SearchParams{})
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
	if !strings.Contains(sql, "WHERE TRUE") {
		t.Errorf("missing base predicate: %s", sql)
	}
	if !strings.HasSuffix(sql, "ORDER BY id") {
		t.Errorf("missing stable ordering: %s", sql)
	}
}

func TestBuildSearchSQL_TokensAreANDed(t *testing.T) {
	sql, args := buildSearchSQL(SearchParams{Query: "resistor 0402"})

	if got := strings.Count(sql, " AND ("); got != 2 {
		t.Errorf("AND groups = %d, want 2 (one per token)\n%s", got, sql)
	}
	if len(args) != 2 {
		t.Fatalf("args = %d, want 2", len(args))
	}
	if args[0] != "%resistor%" || args[1] != "%0402%" {
		t.Errorf("args = %v", args)
	}
	// Every searchable column appears in each token's OR group.
	if got := strings.Count(sql, "part_number ILIKE"); got < 2 {
		t.Errorf("part_number ILIKE count = %d, want >= 2", got)
	}
}

func TestBuildSearchSQL_OhmTokenVariations(t *testing.T) {
	_, args := buildSearchSQL(SearchParams{Query: "100ohm resistor"})

	// "100ohm" expands to the Ω spelling; the plain token does not.
	want := []any{"%100ohm%", "%100Ω%", "%resistor%"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestBuildSearchSQL_LoneOhmFastPath(t *testing.T) {
	for _, query := range []string{"100 ohm", "100ohm", "100 Ohms", "100Ω"} {
		sql, args := buildSearchSQL(SearchParams{Query: query})
		if !strings.Contains(sql, "resistance ILIKE $1") {
			t.Errorf("query %q: expected resistance prefix match, got %s", query, sql)
			continue
		}
		if len(args) != 4 {
			t.Errorf("query %q: args = %v, want 4 resistance patterns", query, args)
			continue
		}
		if args[0] != "100Ω%" || args[1] != "100ohm%" {
			t.Errorf("query %q: prefix args = %v", query, args[:2])
		}
		// The generic multi-column scan must not kick in.
		if strings.Contains(sql, "description ILIKE") {
			t.Errorf("query %q: fell through to generic token search", query)
		}
	}
}

func TestBuildSearchSQL_LoneOhmNeedsLoneToken(t *testing.T) {
	// With more words around it, "100 ohm" is just two tokens.
	sql, _ := buildSearchSQL(SearchParams{Query: "resistor 100 ohm"})
	if strings.Contains(sql, "resistance ILIKE $1 OR resistance ILIKE $2 OR resistance =") {
		t.Errorf("fast path must not trigger inside a longer query: %s", sql)
	}
}

func TestBuildSearchSQL_StructuredFilters(t *testing.T) {
	sql, args := buildSearchSQL(SearchParams{
		ComponentType:   "Resistor",
		ComponentBranch: "Chip Resistor",
		InStockOnly:     true,
	})

	if !strings.Contains(sql, "component_type = $1") {
		t.Errorf("missing type filter: %s", sql)
	}
	if !strings.Contains(sql, "component_branch = $2") {
		t.Errorf("missing branch filter: %s", sql)
	}
	if !strings.Contains(sql, "order_qty > 0") {
		t.Errorf("missing stock filter: %s", sql)
	}
	if len(args) != 2 || args[0] != "Resistor" || args[1] != "Chip Resistor" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildSearchSQL_CombinedQueryAndFilters(t *testing.T) {
	sql, args := buildSearchSQL(SearchParams{
		Query:         "0603",
		ComponentType: "Capacitor",
		InStockOnly:   true,
	})
	if len(args) != 2 {
		t.Fatalf("args = %v, want 2", args)
	}
	if !strings.Contains(sql, "component_type = $2") {
		t.Errorf("type filter should use the placeholder after the token: %s", sql)
	}
}

func TestOhmVariations(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"100ohm", []string{"100ohm", "100Ω"}},
		{"100ω", []string{"100ω", "100ohm"}},
		{"0402", []string{"0402"}},
	}
	for _, tt := range tests {
		got := ohmVariations(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("ohmVariations(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("ohmVariations(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
