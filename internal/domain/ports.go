package domain

import (
	"context"
	"time"
)

// CartRepository — явная граница сериализации корзины. Вызывается при каждой
// мутации и при первоначальной загрузке; корзина хранится целиком под
// фиксированным ключом хранилища.
type CartRepository interface {
	// Load возвращает корзину или ErrCartNotFound, если её нет.
	Load(ctx context.Context, cartID string) (Cart, error)
	// Save целиком перезаписывает снимок корзины.
	Save(ctx context.Context, cart Cart) error
	// Delete удаляет корзину; отсутствие корзины не считается ошибкой.
	Delete(ctx context.Context, cartID string) error
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

// SessionRepository хранит эфемерные checkout-сессии.
type SessionRepository interface {
	Create(session CheckoutSession) error
	Get(id string) (CheckoutSession, error)
	Save(session CheckoutSession) error
	Delete(id string) error
	// DeleteExpired удаляет сессии с ExpiresAt <= before, не более limit штук.
	DeleteExpired(before time.Time, limit int) (int, error)
}

// CreateOrderItem — позиция в запросе на создание заказа.
type CreateOrderItem struct {
	PartID         string
	SupplierPartID string
	Qty            int32
}

// CreateOrderRequest — данные для POST /orders внешнего сервиса.
type CreateOrderRequest struct {
	Items           []CreateOrderItem
	ShippingAddress ShippingAddress
	// IdempotencyKey уходит в заголовок Idempotency-Key; повтор с тем же
	// ключом не должен создать второй заказ.
	IdempotencyKey string
}

// CreateOrderResponse — ответ внешнего сервиса на создание заказа.
type CreateOrderResponse struct {
	OrderID     string
	OrderNumber string
	Status      string
	TotalAgorot int64
}

// PaymentIntent — серверный объект незавершённой авторизации платежа.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountAgorot int64
	Currency     string
}

// OrderSummary — краткое представление заказа для истории покупателя.
type OrderSummary struct {
	ID          string
	OrderNumber string
	Status      string
	TotalAgorot int64
	CreatedAt   time.Time
}

// OrdersGateway описывает внешний REST-коллаборатор заказов и платежей.
// Ошибки сервера пробрасываются вызывающему без повторов.
type OrdersGateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error)
	CreatePaymentIntent(ctx context.Context, orderID string) (PaymentIntent, error)
	ConfirmPayment(ctx context.Context, paymentIntentID string) error
	GetOrder(ctx context.Context, orderID string) (OrderSummary, error)
	ListOrders(ctx context.Context, limit int) ([]OrderSummary, error)
}

// EventPublisher публикует события checkout во внешнюю шину; сбои публикации
// не должны прерывать оформление заказа.
type EventPublisher interface {
	Publish(topic, key string, event interface{}) error
}
