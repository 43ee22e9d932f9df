package orders

import (
	"context"
	"sync"

	"github.com/autosparefinder/checkout/internal/domain"
)

// MockGateway — конфигурируемая заглушка OrdersGateway для тестов.
type MockGateway struct {
	mu sync.Mutex

	CreateResp domain.CreateOrderResponse
	CreateErr  error
	IntentResp domain.PaymentIntent
	IntentErr  error
	ConfirmErr error
	Summary    domain.OrderSummary
	SummaryErr error
	Orders     []domain.OrderSummary
	ListErr    error

	CreateCalls  int
	IntentCalls  int
	ConfirmCalls int

	// IdempotencyKeys собирает ключи, пришедшие с запросами на создание заказа.
	IdempotencyKeys []string
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		CreateResp: domain.CreateOrderResponse{
			OrderID:     "order-1",
			OrderNumber: "AUTO-2026-TEST0001",
			Status:      "pending_payment",
		},
		IntentResp: domain.PaymentIntent{
			ID:       "pi_test",
			Currency: "ILS",
		},
	}
}

// CreateOrder возвращает заранее настроенный результат и считает вызовы.
func (m *MockGateway) CreateOrder(_ context.Context, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	m.IdempotencyKeys = append(m.IdempotencyKeys, req.IdempotencyKey)
	return m.CreateResp, m.CreateErr
}

// CreatePaymentIntent возвращает настроенный intent и считает вызовы.
func (m *MockGateway) CreatePaymentIntent(_ context.Context, orderID string) (domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IntentCalls++
	return m.IntentResp, m.IntentErr
}

// ConfirmPayment возвращает настроенную ошибку и считает вызовы.
func (m *MockGateway) ConfirmPayment(_ context.Context, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConfirmCalls++
	return m.ConfirmErr
}

// GetOrder возвращает настроенное краткое состояние заказа.
func (m *MockGateway) GetOrder(_ context.Context, orderID string) (domain.OrderSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Summary, m.SummaryErr
}

// ListOrders возвращает настроенную историю заказов.
func (m *MockGateway) ListOrders(_ context.Context, limit int) ([]domain.OrderSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Orders, m.ListErr
}

var _ domain.OrdersGateway = (*MockGateway)(nil)
