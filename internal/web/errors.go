package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"partsbin/internal/audit"
	"partsbin/internal/cart"
	"partsbin/internal/importer"
	"partsbin/internal/inventory"
	"partsbin/internal/taxonomy"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError logs the technical error with the request id and writes a
// JSON reply whose status reflects the sentinel the error wraps.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

// badRequest reports a malformed request without a sentinel to classify.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	slog.Warn("bad request",
		"path", r.URL.Path,
		"error", msg,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}

// classifyError maps service sentinels to an HTTP status and a stable
// machine-readable code.
func classifyError(err error) (int, string) {
	var stock *cart.InsufficientStockError
	var rowErrs *importer.RowErrors

	switch {
	case errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, audit.ErrNotFound),
		errors.Is(err, taxonomy.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, inventory.ErrDuplicateKey):
		return http.StatusConflict, "duplicate_part_number"

	case errors.Is(err, audit.ErrConflict):
		return http.StatusConflict, "state_conflict"

	case errors.Is(err, audit.ErrUnsupported):
		return http.StatusUnprocessableEntity, "not_revertible"

	case errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrEmpty),
		errors.Is(err, importer.ErrNoPartColumn):
		return http.StatusBadRequest, "invalid_request"

	case errors.As(err, &stock):
		return http.StatusConflict, "insufficient_stock"

	case errors.As(err, &rowErrs):
		// Rows that parsed were committed; the reply still reports failures.
		return http.StatusUnprocessableEntity, "row_errors"

	default:
		return http.StatusInternalServerError, "internal"
	}
}
