package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/domain"
)

const (
	defaultRequestTimeout = 15 * time.Second

	headerIdempotencyKey = "Idempotency-Key"
)

// Client — тонкая REST-обёртка над внешним сервисом заказов и платежей.
// Не хранит состояния, не повторяет запросы; ошибки сервера пробрасываются
// вызывающему как есть.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт клиента для baseURL (включая префикс API, например
// https://api.example.com/api/v1). httpClient может быть nil.
func NewClient(baseURL string, httpClient *http.Client, logger *log.Entry) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if logger == nil {
		logger = log.WithField("component", "orders-client")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

type orderItemPayload struct {
	PartID         string `json:"part_id"`
	SupplierPartID string `json:"supplier_part_id"`
	Quantity       int32  `json:"quantity"`
}

type shippingAddressPayload struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type createOrderPayload struct {
	Items           []orderItemPayload     `json:"items"`
	ShippingAddress shippingAddressPayload `json:"shipping_address"`
}

type createOrderResponse struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Status      string  `json:"status"`
	Total       float64 `json:"total"`
}

type createIntentResponse struct {
	PaymentIntentID string  `json:"payment_intent_id"`
	ClientSecret    string  `json:"client_secret"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

type orderSummaryPayload struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateOrder выполняет POST /orders. Idempotency-Key уходит в заголовке:
// повтор с тем же ключом не создаёт второй заказ.
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error) {
	payload := createOrderPayload{
		Items: make([]orderItemPayload, 0, len(req.Items)),
		ShippingAddress: shippingAddressPayload{
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
			Phone:      req.ShippingAddress.Phone,
		},
	}
	for _, item := range req.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			PartID:         item.PartID,
			SupplierPartID: item.SupplierPartID,
			Quantity:       item.Qty,
		})
	}

	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers[headerIdempotencyKey] = req.IdempotencyKey
	}

	var resp createOrderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/orders", nil, payload, headers, &resp); err != nil {
		return domain.CreateOrderResponse{}, errors.Wrap(err, "create order")
	}

	return domain.CreateOrderResponse{
		OrderID:     resp.OrderID,
		OrderNumber: resp.OrderNumber,
		Status:      resp.Status,
		TotalAgorot: toAgorot(resp.Total),
	}, nil
}

// CreatePaymentIntent выполняет POST /payments/create-intent?order_id=…
func (c *Client) CreatePaymentIntent(ctx context.Context, orderID string) (domain.PaymentIntent, error) {
	query := url.Values{"order_id": []string{orderID}}

	var resp createIntentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/payments/create-intent", query, nil, nil, &resp); err != nil {
		return domain.PaymentIntent{}, errors.Wrap(err, "create payment intent")
	}

	return domain.PaymentIntent{
		ID:           resp.PaymentIntentID,
		ClientSecret: resp.ClientSecret,
		AmountAgorot: toAgorot(resp.Amount),
		Currency:     resp.Currency,
	}, nil
}

// ConfirmPayment выполняет POST /payments/confirm?payment_intent_id=…
// Из ответа потребляется только успех/неуспех.
func (c *Client) ConfirmPayment(ctx context.Context, paymentIntentID string) error {
	query := url.Values{"payment_intent_id": []string{paymentIntentID}}
	if err := c.doJSON(ctx, http.MethodPost, "/payments/confirm", query, nil, nil, nil); err != nil {
		return errors.Wrap(err, "confirm payment")
	}
	return nil
}

// GetOrder возвращает краткое состояние заказа.
func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.OrderSummary, error) {
	var resp orderSummaryPayload
	if err := c.doJSON(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, nil, nil, &resp); err != nil {
		return domain.OrderSummary{}, errors.Wrap(err, "get order")
	}
	return toSummary(resp), nil
}

// ListOrders возвращает историю заказов покупателя.
func (c *Client) ListOrders(ctx context.Context, limit int) ([]domain.OrderSummary, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Orders []orderSummaryPayload `json:"orders"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/orders", query, nil, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	result := make([]domain.OrderSummary, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		result = append(result, toSummary(o))
	}
	return result, nil
}

func (c *Client) doJSON(
	ctx context.Context,
	method, path string,
	query url.Values,
	body interface{},
	headers map[string]string,
	out interface{},
) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"method": method,
			"path":   path,
		}).Warn("orders api request failed")
		return errors.Wrap(domain.ErrOrdersUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

// apiError переводит HTTP-статус в доменную ошибку, сохраняя сообщение сервера.
func (c *Client) apiError(method, path string, resp *http.Response) error {
	message := readServerMessage(resp.Body)

	c.logger.WithFields(log.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
		"detail": message,
	}).Warn("orders api returned error")

	var base error
	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		base = domain.ErrPaymentDeclined
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		base = domain.ErrOrderRejected
	default:
		base = domain.ErrOrdersUnavailable
	}

	if message == "" {
		message = fmt.Sprintf("http %d", resp.StatusCode)
	}
	return errors.Wrap(base, message)
}

// readServerMessage достаёт человекочитаемое сообщение из тела ошибки:
// {"detail": "..."} или {"error": "..."}, иначе сырой текст.
func readServerMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(data))
}

func toSummary(p orderSummaryPayload) domain.OrderSummary {
	return domain.OrderSummary{
		ID:          p.ID,
		OrderNumber: p.OrderNumber,
		Status:      p.Status,
		TotalAgorot: toAgorot(p.Total),
		CreatedAt:   p.CreatedAt,
	}
}

// toAgorot переводит сумму в шекелях (как её отдаёт внешний API) в агорот.
// math.Round округляет от нуля, поэтому работает и для отрицательных сумм
// (возвраты).
func toAgorot(shekels float64) int64 {
	return int64(math.Round(shekels * 100))
}

var _ domain.OrdersGateway = (*Client)(nil)
