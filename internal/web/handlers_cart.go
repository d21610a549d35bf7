package web

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleCartList(w http.ResponseWriter, r *http.Request) {
	lines, err := s.cart.List(r.Context(), requestUser(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(lines),
		"items": lines,
	})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ComponentID int64 `json:"component_id"`
		Quantity    int32 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: "+err.Error())
		return
	}

	item, err := s.cart.Add(r.Context(), requestUser(r), req.ComponentID, req.Quantity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleCartSetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int32 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid JSON body: "+err.Error())
		return
	}

	item, err := s.cart.SetQuantity(r.Context(), id, requestUser(r), req.Quantity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.cart.Remove(r.Context(), id, requestUser(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	if err := s.cart.Clear(r.Context(), requestUser(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCheckout deducts every cart line from stock and empties the cart.
// Any line short on stock aborts the whole checkout.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	lines, err := s.cart.Checkout(r.Context(), requestUser(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"checked_out": len(lines),
		"items":       lines,
	})
}
