package web

import (
	"net/http"
	"net/url"

	"partsbin/internal/inventory"
	"partsbin/internal/units"
)

// handleSearch lists components matching the query parameters.
//
//	q           free-text terms, space separated, all must match
//	type        exact component type
//	branch      exact component branch
//	in_stock    "true" keeps only order_qty > 0
//	<param>_min / <param>_max   numeric bounds for resistance,
//	                            capacitance, voltage, inductance
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := inventory.SearchParams{
		Query:           q.Get("q"),
		ComponentType:   q.Get("type"),
		ComponentBranch: q.Get("branch"),
		InStockOnly:     q.Get("in_stock") == "true",
	}

	var err error
	if params.Resistance, err = rangeBound(q, "resistance"); err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	if params.Capacitance, err = rangeBound(q, "capacitance"); err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	if params.Voltage, err = rangeBound(q, "voltage"); err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	if params.Inductance, err = rangeBound(q, "inductance"); err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	components, err := s.repo.Search(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(components),
		"components": components,
	})
}

func (s *Server) handleStorageMap(w http.ResponseWriter, r *http.Request) {
	data, err := s.repo.StorageData(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// rangeBound reads <name>_min and <name>_max query parameters. Bounds take
// the same unit-suffixed spellings as stored values, so "4.7k" and "4700"
// are interchangeable.
func rangeBound(q url.Values, name string) (inventory.RangeBound, error) {
	var b inventory.RangeBound
	if raw := q.Get(name + "_min"); raw != "" {
		f, ok := units.Normalize(raw)
		if !ok {
			return b, &boundError{name + "_min", raw}
		}
		b.Min = &f
	}
	if raw := q.Get(name + "_max"); raw != "" {
		f, ok := units.Normalize(raw)
		if !ok {
			return b, &boundError{name + "_max", raw}
		}
		b.Max = &f
	}
	return b, nil
}

type boundError struct {
	param string
	value string
}

func (e *boundError) Error() string {
	return "invalid numeric value for " + e.param + ": " + e.value
}
