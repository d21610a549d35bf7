package web

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"

	"partsbin/internal/importer"
	"partsbin/internal/logging"
)

// uploadFile pulls the "file" part out of a multipart upload, bounded by the
// configured size limit.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	if err := r.ParseMultipartForm(s.maxBytes); err != nil {
		s.badRequest(w, r, "invalid multipart form: "+err.Error())
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, r, "missing file field")
		return nil, false
	}
	return file, true
}

// handleImportCSV merges a supplier order CSV into stock. Row failures do
// not abort the batch; the reply carries them alongside the counts.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	file, ok := s.uploadFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	table, err := importer.DecodeTable(file)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	user := requestUser(r)
	log := logging.WithFields(r.Context(), "user", user)

	report, err := s.importer.ImportComponents(r.Context(), table, user)
	var rowErrs *importer.RowErrors
	if err != nil && !errors.As(err, &rowErrs) {
		s.respondError(w, r, err)
		return
	}

	log.Info("csv import finished",
		"batch_id", report.BatchID,
		"added", report.Added,
		"updated", report.Updated,
		"row_errors", len(report.Errors),
	)
	writeJSON(w, http.StatusOK, report)
}

// handleImportBOM matches a bill of materials against stock and stages the
// found parts into the user's cart.
func (s *Server) handleImportBOM(w http.ResponseWriter, r *http.Request) {
	file, ok := s.uploadFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	table, err := importer.DecodeTable(file)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	report, err := s.importer.StageBOM(r.Context(), table, requestUser(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleExportDatabase streams the whole inventory as CSV.
func (s *Server) handleExportDatabase(w http.ResponseWriter, r *http.Request) {
	components, err := s.repo.ExportAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="components_export.csv"`)

	cw := csv.NewWriter(w)
	cw.Write(importer.ExportHeaders)
	for _, c := range components {
		cw.Write(importer.ComponentToRow(c))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.FromContext(r.Context()).Error("export write failed", "error", err)
	}
}

// handleImportDatabase replaces the whole inventory with an uploaded export.
// Destructive: existing components, carts, and the change log are wiped.
func (s *Server) handleImportDatabase(w http.ResponseWriter, r *http.Request) {
	file, ok := s.uploadFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	table, err := importer.DecodeTable(file)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	records, err := importer.ParseDatabaseExport(table)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	restored, err := s.repo.ReplaceAll(r.Context(), records)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("database import finished", "restored", restored)
	writeJSON(w, http.StatusOK, map[string]any{"restored": restored})
}
