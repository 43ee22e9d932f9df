package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/autosparefinder/checkout/internal/domain"
)

const checkTimeout = 3 * time.Second

// StorageChecker проверяет доступность хранилища корзин.
type StorageChecker struct {
	name string
	repo domain.CartRepository
}

// NewStorageChecker создаёт проверку хранилища корзин.
func NewStorageChecker(name string, repo domain.CartRepository) *StorageChecker {
	return &StorageChecker{name: name, repo: repo}
}

// Check выполняет ping хранилища.
func (c *StorageChecker) Check() Check {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	err := c.repo.Ping(ctx)
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:       c.name,
			Status:     StatusUnhealthy,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}
	return Check{
		Name:       c.name,
		Status:     StatusHealthy,
		DurationMs: duration.Milliseconds(),
	}
}

// OrdersAPIChecker проверяет достижимость внешнего сервиса заказов.
// Сервис считается degraded, а не unhealthy: корзина работает и без него.
type OrdersAPIChecker struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewOrdersAPIChecker создаёт проверку внешнего API заказов.
func NewOrdersAPIChecker(name, baseURL string) *OrdersAPIChecker {
	return &OrdersAPIChecker{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: checkTimeout},
	}
}

// Check выполняет запрос к корню API.
func (c *OrdersAPIChecker) Check() Check {
	start := time.Now()

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/orders?limit=1", nil)
	if err != nil {
		return Check{
			Name:       c.name,
			Status:     StatusDegraded,
			Message:    err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	resp, err := c.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return Check{
			Name:       c.name,
			Status:     StatusDegraded,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Check{
			Name:       c.name,
			Status:     StatusDegraded,
			Message:    fmt.Sprintf("orders api returned %d", resp.StatusCode),
			DurationMs: duration.Milliseconds(),
		}
	}
	return Check{
		Name:       c.name,
		Status:     StatusHealthy,
		DurationMs: duration.Milliseconds(),
	}
}
