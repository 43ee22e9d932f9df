package kafka

import "time"

// EventType определяет тип события checkout.
type EventType string

const (
	// События жизненного цикла checkout-сессии
	EventTypeCheckoutStarted EventType = "checkout.started"
	EventTypeStepChanged     EventType = "checkout.step_changed"
	EventTypeOrderPlaced     EventType = "checkout.order_placed"
	EventTypePlacementFailed EventType = "checkout.placement_failed"

	// События корзины
	EventTypeCartItemAdded   EventType = "cart.item_added"
	EventTypeCartQtyChanged  EventType = "cart.qty_changed"
	EventTypeCartItemRemoved EventType = "cart.item_removed"
	EventTypeCartCleared     EventType = "cart.cleared"
)

// Topics для Kafka
const (
	TopicCheckoutEvents = "checkout.events"
	TopicCartEvents     = "checkout.cart.events"
)

// CheckoutEvent представляет событие процесса оформления заказа.
type CheckoutEvent struct {
	EventType EventType              `json:"event_type"`
	SessionID string                 `json:"session_id,omitempty"`
	CartID    string                 `json:"cart_id"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewCheckoutEvent создаёт событие checkout с текущим временем.
func NewCheckoutEvent(eventType EventType, sessionID, cartID string, metadata map[string]interface{}) *CheckoutEvent {
	return &CheckoutEvent{
		EventType: eventType,
		SessionID: sessionID,
		CartID:    cartID,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
