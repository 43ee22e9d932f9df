package httpapi

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/autosparefinder/checkout/internal/domain"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"cart not found", domain.ErrCartNotFound, http.StatusNotFound},
		{"session not found", domain.ErrSessionNotFound, http.StatusNotFound},
		{"session expired", domain.ErrSessionExpired, http.StatusGone},
		{"cart empty", domain.ErrCartEmpty, http.StatusUnprocessableEntity},
		{"address incomplete", domain.ErrAddressIncomplete, http.StatusUnprocessableEntity},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{"payment declined", domain.ErrPaymentDeclined, http.StatusPaymentRequired},
		{"order rejected", domain.ErrOrderRejected, http.StatusBadGateway},
		{"orders unavailable", domain.ErrOrdersUnavailable, http.StatusServiceUnavailable},
		{"wrapped sentinel", errors.Wrap(domain.ErrPaymentDeclined, "confirm payment"), http.StatusPaymentRequired},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusForError(tc.err))
		})
	}
}

func TestToSessionViewOmitsEmptyAddress(t *testing.T) {
	view := toSessionView(domain.CheckoutSession{ID: "s-1", Step: domain.StepCart})
	assert.Nil(t, view.Address)

	withAddr := toSessionView(domain.CheckoutSession{
		ID:      "s-2",
		Step:    domain.StepAddress,
		Address: domain.ShippingAddress{Street: "Herzl 10", City: "Haifa"},
	})
	if assert.NotNil(t, withAddr.Address) {
		assert.Equal(t, "Haifa", withAddr.Address.City)
	}
}
