package web

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"partsbin/internal/audit"
	"partsbin/internal/cart"
	"partsbin/internal/importer"
	"partsbin/internal/inventory"
	"partsbin/internal/taxonomy"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"component missing", inventory.ErrNotFound, http.StatusNotFound, "not_found"},
		{"log entry missing", audit.ErrNotFound, http.StatusNotFound, "not_found"},
		{"branch missing", taxonomy.ErrNotFound, http.StatusNotFound, "not_found"},
		{"cart item missing", cart.ErrItemNotFound, http.StatusNotFound, "not_found"},
		{"duplicate part", inventory.ErrDuplicateKey, http.StatusConflict, "duplicate_part_number"},
		{"revert conflict", audit.ErrConflict, http.StatusConflict, "state_conflict"},
		{"not revertible", audit.ErrUnsupported, http.StatusUnprocessableEntity, "not_revertible"},
		{"negative quantity", inventory.ErrInvalidQuantity, http.StatusBadRequest, "invalid_request"},
		{"empty cart", cart.ErrEmpty, http.StatusBadRequest, "invalid_request"},
		{"no part column", importer.ErrNoPartColumn, http.StatusBadRequest, "invalid_request"},
		{
			"insufficient stock",
			&cart.InsufficientStockError{PartNumber: "C1", Requested: 10, Available: 3},
			http.StatusConflict, "insufficient_stock",
		},
		{
			"row errors",
			&importer.RowErrors{Errors: []string{"row 2: bad"}},
			http.StatusUnprocessableEntity, "row_errors",
		},
		{
			"wrapped sentinel",
			fmt.Errorf("load component: %w", inventory.ErrNotFound),
			http.StatusNotFound, "not_found",
		},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classifyError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("classifyError(%v) = (%d, %q), want (%d, %q)",
					tt.err, status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestRequestUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	if got := requestUser(r); got != "anonymous" {
		t.Errorf("default user = %q, want anonymous", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/cart?user=kim", nil)
	if got := requestUser(r); got != "kim" {
		t.Errorf("query user = %q, want kim", got)
	}

	r.Header.Set("X-User", "alex")
	if got := requestUser(r); got != "alex" {
		t.Errorf("header user = %q, want alex (header wins)", got)
	}
}

func TestRangeBound(t *testing.T) {
	q := url.Values{}
	q.Set("resistance_min", "1000")
	q.Set("resistance_max", "10000")

	b, err := rangeBound(q, "resistance")
	if err != nil {
		t.Fatalf("rangeBound() error = %v", err)
	}
	if b.Min == nil || *b.Min != 1000 || b.Max == nil || *b.Max != 10000 {
		t.Errorf("bound = {%v %v}", b.Min, b.Max)
	}

	// Absent parameters leave the bound open.
	b, err = rangeBound(q, "voltage")
	if err != nil {
		t.Fatalf("rangeBound() error = %v", err)
	}
	if b.Min != nil || b.Max != nil {
		t.Errorf("expected open bound, got {%v %v}", b.Min, b.Max)
	}

	// Bounds accept the same unit suffixes as stored values.
	q.Set("capacitance_min", "100nF")
	q.Set("capacitance_max", "4.7k")
	b, err = rangeBound(q, "capacitance")
	if err != nil {
		t.Fatalf("rangeBound() error = %v", err)
	}
	if b.Min == nil || math.Abs(*b.Min-100e-9) > 100e-9*1e-12 {
		t.Errorf("min = %v, want 1e-7", *b.Min)
	}
	if b.Max == nil || *b.Max != 4700 {
		t.Errorf("max = %v, want 4700", b.Max)
	}

	q.Set("voltage_min", "junk")
	if _, err := rangeBound(q, "voltage"); err == nil {
		t.Error("rangeBound() expected error for non-numeric bound")
	}
}
