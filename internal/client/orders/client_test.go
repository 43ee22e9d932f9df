package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autosparefinder/checkout/internal/domain"
)

func TestClientCreateOrder(t *testing.T) {
	var gotKey string
	var gotBody createOrderPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"order_id":     "ord-42",
			"order_number": "AUTO-2026-AB12CD34",
			"status":       "pending_payment",
			"total":        325.0,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, nil)
	resp, err := client.CreateOrder(context.Background(), domain.CreateOrderRequest{
		Items: []domain.CreateOrderItem{
			{PartID: "p-1", SupplierPartID: "sp-1", Qty: 2},
		},
		ShippingAddress: domain.ShippingAddress{Street: "Herzl 10", City: "Haifa"},
		IdempotencyKey:  "key-123",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if resp.OrderID != "ord-42" || resp.OrderNumber != "AUTO-2026-AB12CD34" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.TotalAgorot != 32500 {
		t.Fatalf("total = %d, want 32500", resp.TotalAgorot)
	}
	if gotKey != "key-123" {
		t.Fatalf("idempotency key = %q, want key-123", gotKey)
	}
	if len(gotBody.Items) != 1 || gotBody.Items[0].SupplierPartID != "sp-1" || gotBody.Items[0].Quantity != 2 {
		t.Fatalf("unexpected payload items: %+v", gotBody.Items)
	}
	if gotBody.ShippingAddress.City != "Haifa" {
		t.Fatalf("unexpected shipping address: %+v", gotBody.ShippingAddress)
	}
}

func TestClientPaymentCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/create-intent":
			if r.URL.Query().Get("order_id") != "ord-42" {
				t.Errorf("order_id = %q", r.URL.Query().Get("order_id"))
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"payment_intent_id": "pi_abc",
				"client_secret":     "pi_abc_secret",
				"amount":            325.0,
				"currency":          "ILS",
			})
		case "/payments/confirm":
			if r.URL.Query().Get("payment_intent_id") != "pi_abc" {
				t.Errorf("payment_intent_id = %q", r.URL.Query().Get("payment_intent_id"))
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "confirmed"})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, nil)
	ctx := context.Background()

	intent, err := client.CreatePaymentIntent(ctx, "ord-42")
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.ID != "pi_abc" || intent.AmountAgorot != 32500 || intent.Currency != "ILS" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	if err := client.ConfirmPayment(ctx, "pi_abc"); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
}

func TestClientErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"payment declined", http.StatusPaymentRequired, `{"detail":"card declined"}`, domain.ErrPaymentDeclined},
		{"validation rejected", http.StatusUnprocessableEntity, `{"detail":"bad items"}`, domain.ErrOrderRejected},
		{"not found", http.StatusNotFound, `{"detail":"order not found"}`, domain.ErrOrderRejected},
		{"server error", http.StatusInternalServerError, `boom`, domain.ErrOrdersUnavailable},
		{"bad gateway", http.StatusBadGateway, ``, domain.ErrOrdersUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, nil, nil)
			_, err := client.CreateOrder(context.Background(), domain.CreateOrderRequest{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestClientNetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // закрываем сразу, чтобы получить сетевую ошибку

	client := NewClient(srv.URL, nil, nil)
	_, err := client.CreateOrder(context.Background(), domain.CreateOrderRequest{})
	if !errors.Is(err, domain.ErrOrdersUnavailable) {
		t.Fatalf("err = %v, want ErrOrdersUnavailable", err)
	}
	if !domain.IsRetryable(err) {
		t.Fatal("network error must be retryable")
	}
}

func TestClientListOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" || r.URL.Query().Get("limit") != "10" {
			t.Errorf("unexpected request: %s %s", r.URL.Path, r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"orders": []map[string]interface{}{
				{"id": "ord-1", "order_number": "AUTO-2026-00000001", "status": "confirmed", "total": 100.5},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, nil)
	got, err := client.ListOrders(context.Background(), 10)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(got) != 1 || got[0].TotalAgorot != 10050 {
		t.Fatalf("unexpected orders: %+v", got)
	}
}

func TestToAgorot(t *testing.T) {
	cases := []struct {
		shekels float64
		want    int64
	}{
		{0, 0},
		{91.0, 9100},
		{100.5, 10050},
		{0.005, 1},
		{325.004, 32500},
		// Отрицательные суммы (возвраты) округляются от нуля.
		{-0.505, -51},
		{-91.0, -9100},
	}

	for _, tc := range cases {
		if got := toAgorot(tc.shekels); got != tc.want {
			t.Errorf("toAgorot(%v) = %d, want %d", tc.shekels, got, tc.want)
		}
	}
}
