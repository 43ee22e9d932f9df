package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/autosparefinder/checkout/internal/cart"
	"github.com/autosparefinder/checkout/internal/domain"
)

type itemPayload struct {
	PartID          string `json:"part_id"`
	SupplierPartID  string `json:"supplier_part_id"`
	Name            string `json:"name"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	UnitPriceAgorot int64  `json:"unit_price_agorot"`
}

type qtyPayload struct {
	Qty int32 `json:"qty"`
}

type addressPayload struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type itemView struct {
	PartID          string    `json:"part_id"`
	SupplierPartID  string    `json:"supplier_part_id"`
	Name            string    `json:"name"`
	Manufacturer    string    `json:"manufacturer,omitempty"`
	UnitPriceAgorot int64     `json:"unit_price_agorot"`
	Qty             int32     `json:"qty"`
	LineTotalAgorot int64     `json:"line_total_agorot"`
	AddedAt         time.Time `json:"added_at"`
}

type totalsView struct {
	SubtotalAgorot int64 `json:"subtotal_agorot"`
	VATAgorot      int64 `json:"vat_agorot"`
	ShippingAgorot int64 `json:"shipping_agorot"`
	TotalAgorot    int64 `json:"total_agorot"`
	Count          int32 `json:"count"`
}

type cartView struct {
	CartID    string     `json:"cart_id"`
	Items     []itemView `json:"items"`
	Totals    totalsView `json:"totals"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type sessionView struct {
	ID              string          `json:"id"`
	CartID          string          `json:"cart_id"`
	Step            string          `json:"step"`
	Address         *addressPayload `json:"address,omitempty"`
	OrderID         string          `json:"order_id,omitempty"`
	OrderNumber     string          `json:"order_number,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	ExpiresAt       time.Time       `json:"expires_at"`
}

type orderView struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	TotalAgorot int64     `json:"total_agorot"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCartView(snap cart.Snapshot) cartView {
	view := cartView{
		CartID:    snap.CartID,
		Items:     make([]itemView, 0, len(snap.Items)),
		UpdatedAt: snap.UpdatedAt,
		Totals: totalsView{
			SubtotalAgorot: snap.Totals.SubtotalAgorot,
			VATAgorot:      snap.Totals.VATAgorot,
			ShippingAgorot: snap.Totals.ShippingAgorot,
			TotalAgorot:    snap.Totals.TotalAgorot,
			Count:          snap.Totals.Count,
		},
	}
	for _, item := range snap.Items {
		view.Items = append(view.Items, itemView{
			PartID:          item.PartID,
			SupplierPartID:  item.SupplierPartID,
			Name:            item.Name,
			Manufacturer:    item.Manufacturer,
			UnitPriceAgorot: item.UnitPriceAgorot,
			Qty:             item.Qty,
			LineTotalAgorot: item.UnitPriceAgorot * int64(item.Qty),
			AddedAt:         item.AddedAt,
		})
	}
	return view
}

func toSessionView(session domain.CheckoutSession) sessionView {
	view := sessionView{
		ID:              session.ID,
		CartID:          session.CartID,
		Step:            string(session.Step),
		OrderID:         session.OrderID,
		OrderNumber:     session.OrderNumber,
		PaymentIntentID: session.PaymentIntentID,
		ExpiresAt:       session.ExpiresAt,
	}
	if session.Address != (domain.ShippingAddress{}) {
		view.Address = &addressPayload{
			Street:     session.Address.Street,
			City:       session.Address.City,
			PostalCode: session.Address.PostalCode,
			Country:    session.Address.Country,
			Phone:      session.Address.Phone,
		}
	}
	return view
}

func toOrderView(summary domain.OrderSummary) orderView {
	return orderView{
		ID:          summary.ID,
		OrderNumber: summary.OrderNumber,
		Status:      summary.Status,
		TotalAgorot: summary.TotalAgorot,
		CreatedAt:   summary.CreatedAt,
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrAddressIncomplete),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSupplierPartIDRequired),
		errors.Is(err, domain.ErrItemQtyInvalid),
		errors.Is(err, domain.ErrItemPriceInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrOrderRejected):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrOrdersUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
