package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/autosparefinder/checkout/internal/domain"
	"github.com/autosparefinder/checkout/internal/messaging/kafka"
)

const defaultOrdersLimit = 20

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cartID := mux.Vars(r)["cartID"]
	store := s.carts.Store(r.Context(), cartID)
	s.writeJSON(w, http.StatusOK, toCartView(store.Snapshot()))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	cartID := mux.Vars(r)["cartID"]

	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	store := s.carts.Store(r.Context(), cartID)
	snap, err := store.AddItem(r.Context(), domain.LineItem{
		PartID:          payload.PartID,
		SupplierPartID:  payload.SupplierPartID,
		Name:            payload.Name,
		Manufacturer:    payload.Manufacturer,
		UnitPriceAgorot: payload.UnitPriceAgorot,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.recordCartMutation("add", kafka.EventTypeCartItemAdded, cartID, payload.SupplierPartID)
	s.writeJSON(w, http.StatusOK, toCartView(snap))
}

func (s *Server) handleUpdateQty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var payload qtyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	store := s.carts.Store(r.Context(), vars["cartID"])
	snap := store.UpdateQty(r.Context(), vars["supplierPartID"], payload.Qty)
	s.recordCartMutation("update", kafka.EventTypeCartQtyChanged, vars["cartID"], vars["supplierPartID"])
	s.writeJSON(w, http.StatusOK, toCartView(snap))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	store := s.carts.Store(r.Context(), vars["cartID"])
	snap := store.RemoveItem(r.Context(), vars["supplierPartID"])
	s.recordCartMutation("remove", kafka.EventTypeCartItemRemoved, vars["cartID"], vars["supplierPartID"])
	s.writeJSON(w, http.StatusOK, toCartView(snap))
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	cartID := mux.Vars(r)["cartID"]
	store := s.carts.Store(r.Context(), cartID)
	snap := store.Clear(r.Context())
	s.recordCartMutation("clear", kafka.EventTypeCartCleared, cartID, "")
	s.writeJSON(w, http.StatusOK, toCartView(snap))
}

func (s *Server) handleBeginCheckout(w http.ResponseWriter, r *http.Request) {
	cartID := mux.Vars(r)["cartID"]

	session, err := s.flow.Begin(r.Context(), cartID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toSessionView(session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.flow.Get(mux.Vars(r)["sessionID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionView(session))
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.flow.Abandon(mux.Vars(r)["sessionID"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetAddress(w http.ResponseWriter, r *http.Request) {
	var payload addressPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := s.flow.SetAddress(mux.Vars(r)["sessionID"], domain.ShippingAddress{
		Street:     payload.Street,
		City:       payload.City,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
		Phone:      payload.Phone,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionView(session))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	session, err := s.flow.Advance(mux.Vars(r)["sessionID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionView(session))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	session, err := s.flow.Back(mux.Vars(r)["sessionID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionView(session))
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	session, err := s.flow.PlaceOrder(r.Context(), mux.Vars(r)["sessionID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSessionView(session))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit := defaultOrdersLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	summaries, err := s.gateway.ListOrders(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	views := make([]orderView, 0, len(summaries))
	for _, summary := range summaries {
		views = append(views, toOrderView(summary))
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"orders": views})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	summary, err := s.gateway.GetOrder(r.Context(), mux.Vars(r)["orderID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toOrderView(summary))
}
