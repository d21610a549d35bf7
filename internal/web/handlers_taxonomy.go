package web

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleGetTaxonomy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.taxonomy.Snapshot())
}

type locationRequest struct {
	ComponentType   string `json:"component_type"`
	ComponentBranch string `json:"component_branch"`
	StoragePlace    string `json:"storage_place"`
}

// handleAssignLocation binds a storage place to a branch and stamps it onto
// every stored component of that branch.
func (s *Server) handleAssignLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: "+err.Error())
		return
	}
	if req.StoragePlace == "" {
		s.badRequest(w, r, "storage_place is required")
		return
	}

	branch, err := s.taxonomy.AssignLocation(req.ComponentType, req.ComponentBranch, req.StoragePlace)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	updated, err := s.repo.AssignLocationByBranch(r.Context(), req.ComponentType, req.ComponentBranch, req.StoragePlace)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"branch":             branch,
		"components_updated": updated,
	})
}

// handleClearLocation removes a branch's storage binding. The supplied place
// must match the current one; components keep their stamped location.
func (s *Server) handleClearLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: "+err.Error())
		return
	}
	if err := s.taxonomy.ClearLocation(req.ComponentType, req.ComponentBranch, req.StoragePlace); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearAllLocations wipes every storage binding from the taxonomy and
// every stamped location from stock.
func (s *Server) handleClearAllLocations(w http.ResponseWriter, r *http.Request) {
	if err := s.taxonomy.ClearAllLocations(); err != nil {
		s.respondError(w, r, err)
		return
	}
	cleared, err := s.repo.ClearAllLocations(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"components_cleared": cleared})
}
