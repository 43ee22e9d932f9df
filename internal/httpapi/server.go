package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/cart"
	"github.com/autosparefinder/checkout/internal/checkout"
	"github.com/autosparefinder/checkout/internal/domain"
	"github.com/autosparefinder/checkout/internal/messaging/kafka"
	"github.com/autosparefinder/checkout/internal/metrics"
)

// Server — REST-слой поверх корзины и процесса оформления заказа.
type Server struct {
	carts     *cart.Manager
	flow      *checkout.Flow
	gateway   domain.OrdersGateway
	metrics   *metrics.CheckoutMetrics
	publisher domain.EventPublisher
	logger    *log.Entry
}

// NewServer создаёт REST-сервер. metrics и publisher могут быть nil.
func NewServer(carts *cart.Manager, flow *checkout.Flow, gateway domain.OrdersGateway, m *metrics.CheckoutMetrics, publisher domain.EventPublisher, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}
	return &Server{
		carts:     carts,
		flow:      flow,
		gateway:   gateway,
		metrics:   m,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Server) recordCartMutation(op string, eventType kafka.EventType, cartID, supplierPartID string) {
	if s.metrics != nil {
		s.metrics.RecordCartMutation(op)
	}
	if s.publisher == nil {
		return
	}
	var metadata map[string]interface{}
	if supplierPartID != "" {
		metadata = map[string]interface{}{"supplier_part_id": supplierPartID}
	}
	event := kafka.NewCheckoutEvent(eventType, "", cartID, metadata)
	if err := s.publisher.Publish(kafka.TopicCartEvents, cartID, event); err != nil {
		s.logger.WithError(err).WithField("event_type", string(eventType)).Warn("failed to publish cart event")
	}
}

// Router собирает маршруты API.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/carts/{cartID}", s.handleGetCart).Methods(http.MethodGet)
	api.HandleFunc("/carts/{cartID}", s.handleClearCart).Methods(http.MethodDelete)
	api.HandleFunc("/carts/{cartID}/items", s.handleAddItem).Methods(http.MethodPost)
	api.HandleFunc("/carts/{cartID}/items/{supplierPartID}", s.handleUpdateQty).Methods(http.MethodPut)
	api.HandleFunc("/carts/{cartID}/items/{supplierPartID}", s.handleRemoveItem).Methods(http.MethodDelete)

	api.HandleFunc("/carts/{cartID}/checkout", s.handleBeginCheckout).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{sessionID}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/checkout/{sessionID}", s.handleAbandonSession).Methods(http.MethodDelete)
	api.HandleFunc("/checkout/{sessionID}/address", s.handleSetAddress).Methods(http.MethodPut)
	api.HandleFunc("/checkout/{sessionID}/advance", s.handleAdvance).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{sessionID}/back", s.handleBack).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{sessionID}/place-order", s.handlePlaceOrder).Methods(http.MethodPost)

	api.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{orderID}", s.handleGetOrder).Methods(http.MethodGet)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Warn("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

type errorResponse struct {
	Error string `json:"error"`
}
