package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"partsbin/internal/classify"
	"partsbin/internal/inventory"
	"partsbin/internal/taxonomy"
)

// applyResult overwrites a submission's taxonomy columns with the
// classifier's verdict.
func applyResult(p inventory.ComponentParams, res classify.Result) inventory.ComponentParams {
	p.ComponentType = res.ComponentType
	p.ComponentBranch = res.ComponentBranch
	if res.StoragePlace != "" {
		p.StoragePlace = res.StoragePlace
	}
	if v := res.Parameter(taxonomy.KindResistance); v != "" {
		p.Resistance = v
	}
	if v := res.Parameter(taxonomy.KindCapacitance); v != "" {
		p.Capacitance = v
	}
	if v := res.Parameter(taxonomy.KindInductance); v != "" {
		p.Inductance = v
	}
	if v := res.Parameter(taxonomy.KindVoltage); v != "" {
		p.Voltage = v
	}
	if v := res.Parameter(taxonomy.KindTolerance); v != "" {
		p.Tolerance = v
	}
	if v := res.Parameter(taxonomy.KindCurrentPower); v != "" {
		p.CurrentPower = v
	}
	return p
}

// componentRequest is the JSON body for creating a component. Absent text
// fields default to empty; a merge into an existing part leaves the old
// value in place for price and storage.
type componentRequest struct {
	PartNumber             string   `json:"part_number"`
	ManufacturerPartNumber string   `json:"manufacturer_part_number"`
	Manufacturer           string   `json:"manufacturer"`
	Description            string   `json:"description"`
	Package                string   `json:"package"`
	StoragePlace           string   `json:"storage_place"`
	OrderQty               int32    `json:"order_qty"`
	UnitPrice              *float64 `json:"unit_price"`
	ComponentType          string   `json:"component_type"`
	ComponentBranch        string   `json:"component_branch"`
	Resistance             string   `json:"resistance"`
	Capacitance            string   `json:"capacitance"`
	Voltage                string   `json:"voltage"`
	Tolerance              string   `json:"tolerance"`
	Inductance             string   `json:"inductance"`
	CurrentPower           string   `json:"current_power"`

	// Merge controls duplicate handling: false rejects an existing part
	// number, true folds the submission into the existing record.
	Merge bool `json:"merge"`

	// AutoClassify runs the description through the classifier before
	// storing, overriding any submitted type, branch, and parameters.
	AutoClassify bool `json:"auto_classify"`
}

func (req componentRequest) params() inventory.ComponentParams {
	return inventory.ComponentParams{
		PartNumber:             req.PartNumber,
		ManufacturerPartNumber: req.ManufacturerPartNumber,
		Manufacturer:           req.Manufacturer,
		Description:            req.Description,
		Package:                req.Package,
		StoragePlace:           req.StoragePlace,
		OrderQty:               req.OrderQty,
		UnitPrice:              req.UnitPrice,
		ComponentType:          req.ComponentType,
		ComponentBranch:        req.ComponentBranch,
		Resistance:             req.Resistance,
		Capacitance:            req.Capacitance,
		Voltage:                req.Voltage,
		Tolerance:              req.Tolerance,
		Inductance:             req.Inductance,
		CurrentPower:           req.CurrentPower,
	}
}

func (s *Server) handleAddComponent(w http.ResponseWriter, r *http.Request) {
	var req componentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: "+err.Error())
		return
	}
	if req.PartNumber == "" {
		s.badRequest(w, r, "part_number is required")
		return
	}
	if req.OrderQty < 0 {
		s.respondError(w, r, inventory.ErrInvalidQuantity)
		return
	}

	params := req.params()
	if req.AutoClassify && req.Description != "" {
		res := classify.Classify(req.Description, s.taxonomy.Snapshot())
		params = applyResult(params, res)
	}

	user := requestUser(r)
	if req.Merge {
		comp, created, err := s.repo.Upsert(r.Context(), params, user)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, comp)
		return
	}

	comp, err := s.repo.Add(r.Context(), params, user)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comp)
}

func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	comp, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

func (s *Server) handleDeltaQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Delta int32 `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: "+err.Error())
		return
	}

	comp, err := s.repo.DeltaQuantity(r.Context(), id, req.Delta, requestUser(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

func (s *Server) handleUpdateStorage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		StoragePlace string `json:"storage_place"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: "+err.Error())
		return
	}

	comp, err := s.repo.UpdateStoragePlace(r.Context(), id, req.StoragePlace)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

func (s *Server) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	comp, err := s.repo.Delete(r.Context(), id, requestUser(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

func (s *Server) handleUniqueValues(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	values, err := s.repo.UniqueValues(r.Context(), field)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"values": values})
}

func (s *Server) handleBranchCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.repo.BranchCounts(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// handleClassify runs a description through the classifier without touching
// stock, so clients can preview the verdict.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: "+err.Error())
		return
	}
	res := classify.Classify(req.Description, s.taxonomy.Snapshot())
	writeJSON(w, http.StatusOK, res)
}

// pathID parses the {id} route parameter, replying 400 on garbage.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.badRequest(w, r, "invalid id")
		return 0, false
	}
	return id, true
}
