package inventory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"partsbin/internal/database"
	"partsbin/internal/units"
)

// searchColumns are the text columns a free-text token can hit.
var searchColumns = []string{
	"part_number",
	"manufacturer",
	"description",
	"component_type",
	"component_branch",
	"capacitance",
	"resistance",
	"voltage",
	"tolerance",
	"inductance",
	"current_power",
	"package",
	"manufacturer_part_number",
	"storage_place",
}

// loneOhmRe detects a query that is nothing but "<number> ohm(s)" (or Ω),
// which gets a dedicated resistance prefix match instead of the generic
// token search.
var loneOhmRe = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s*(?:ohms?|Ω)$`)

// RangeBound is an optional [min, max] filter in canonical base units.
type RangeBound struct {
	Min *float64
	Max *float64
}

func (b RangeBound) active() bool { return b.Min != nil || b.Max != nil }

// SearchParams describes one search call. Query tokens combine AND-of-OR:
// every whitespace-separated token must hit at least one searchable column.
// Range bounds are applied in-process after the SQL predicate, via the unit
// normalizer, so "4.7kΩ" and "4700 ohm" land in the same bucket.
type SearchParams struct {
	Query           string
	ComponentType   string
	ComponentBranch string
	InStockOnly     bool

	Resistance  RangeBound
	Capacitance RangeBound
	Voltage     RangeBound
	Inductance  RangeBound
}

// Search runs the text predicate in SQL, then the unit-aware range filters in
// process.
func (r *Repository) Search(ctx context.Context, p SearchParams) ([]Component, error) {
	sql, args := buildSearchSQL(p)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search components: %w", err)
	}
	components, err := database.CollectComponents(rows)
	if err != nil {
		return nil, fmt.Errorf("scan search results: %w", err)
	}

	if !p.Resistance.active() && !p.Capacitance.active() &&
		!p.Voltage.active() && !p.Inductance.active() {
		return components, nil
	}

	filtered := components[:0]
	for _, c := range components {
		if p.Resistance.active() && !units.InRange(c.Resistance, p.Resistance.Min, p.Resistance.Max) {
			continue
		}
		if p.Capacitance.active() && !units.InRange(c.Capacitance, p.Capacitance.Min, p.Capacitance.Max) {
			continue
		}
		if p.Voltage.active() && !units.InRange(c.Voltage, p.Voltage.Min, p.Voltage.Max) {
			continue
		}
		if p.Inductance.active() && !units.InRange(c.Inductance, p.Inductance.Min, p.Inductance.Max) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered, nil
}

// buildSearchSQL assembles the text predicate. Kept separate from Search so
// the query shape is testable without a database.
func buildSearchSQL(p SearchParams) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, part_number, manufacturer_part_number, manufacturer,
	description, package, storage_place, order_qty, unit_price,
	component_type, component_branch, resistance, capacitance, voltage,
	tolerance, inductance, current_power FROM components WHERE TRUE`)

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	query := strings.TrimSpace(p.Query)
	if m := loneOhmRe.FindStringSubmatch(query); m != nil {
		value := m[1]
		sb.WriteString(" AND (")
		sb.WriteString("resistance ILIKE " + arg(value+"Ω%"))
		sb.WriteString(" OR resistance ILIKE " + arg(value+"ohm%"))
		sb.WriteString(" OR resistance = " + arg(value+"Ω"))
		sb.WriteString(" OR resistance = " + arg(value+"ohm"))
		sb.WriteString(")")
	} else if query != "" {
		for _, token := range strings.Fields(strings.ToLower(query)) {
			var conds []string
			for _, variation := range ohmVariations(token) {
				ph := arg("%" + variation + "%")
				for _, col := range searchColumns {
					conds = append(conds, col+" ILIKE "+ph)
				}
			}
			sb.WriteString(" AND (" + strings.Join(conds, " OR ") + ")")
		}
	}

	if p.ComponentType != "" {
		sb.WriteString(" AND component_type = " + arg(p.ComponentType))
	}
	if p.ComponentBranch != "" {
		sb.WriteString(" AND component_branch = " + arg(p.ComponentBranch))
	}
	if p.InStockOnly {
		sb.WriteString(" AND order_qty > 0")
	}

	sb.WriteString(" ORDER BY id")
	return sb.String(), args
}

// ohmVariations expands a token so "100ohm" also hits values stored as
// "100Ω" and vice versa.
func ohmVariations(token string) []string {
	switch {
	case strings.Contains(token, "ohm"):
		return []string{token, strings.ReplaceAll(token, "ohm", "Ω")}
	case strings.Contains(token, "ω"):
		return []string{token, strings.ReplaceAll(token, "ω", "ohm")}
	default:
		return []string{token}
	}
}

// uniqueValueColumns are the fields the dropdown endpoint may enumerate.
// A whitelist because the column name lands in the statement text.
var uniqueValueColumns = map[string]bool{
	"resistance":  true,
	"capacitance": true,
	"voltage":     true,
	"inductance":  true,
	"package":     true,
}

// UniqueValues enumerates the distinct non-empty values of one field. Unit
// fields sort by canonical magnitude with unparsable values last; package
// sorts lexically.
func (r *Repository) UniqueValues(ctx context.Context, field string) ([]string, error) {
	if !uniqueValueColumns[field] {
		return nil, fmt.Errorf("%w: no such field %q", ErrNotFound, field)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT `+field+` FROM components WHERE `+field+` <> ''`)
	if err != nil {
		return nil, fmt.Errorf("list %s values: %w", field, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if field == "package" {
		sort.Strings(values)
		return values, nil
	}

	sort.SliceStable(values, func(i, j int) bool {
		vi, oki := units.Normalize(values[i])
		vj, okj := units.Normalize(values[j])
		if oki != okj {
			return oki
		}
		if !oki {
			return values[i] < values[j]
		}
		return vi < vj
	})
	return values, nil
}
