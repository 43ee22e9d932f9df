package domain_test

import (
	"testing"
	"time"

	"github.com/autosparefinder/checkout/internal/domain"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from, to domain.CheckoutStep
		want     bool
	}{
		{domain.StepCart, domain.StepAddress, true},
		{domain.StepAddress, domain.StepPayment, true},
		{domain.StepPayment, domain.StepDone, true},
		// Назад: только на один шаг.
		{domain.StepAddress, domain.StepCart, true},
		{domain.StepPayment, domain.StepAddress, true},
		// Пропуски и возвраты из done запрещены.
		{domain.StepCart, domain.StepPayment, false},
		{domain.StepCart, domain.StepDone, false},
		{domain.StepAddress, domain.StepDone, false},
		{domain.StepPayment, domain.StepCart, false},
		{domain.StepDone, domain.StepPayment, false},
		{domain.StepDone, domain.StepCart, false},
	}

	for _, tc := range cases {
		if got := domain.ValidTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("ValidTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestShippingAddressComplete(t *testing.T) {
	cases := []struct {
		name string
		addr domain.ShippingAddress
		want bool
	}{
		{"street and city", domain.ShippingAddress{Street: "Herzl 10", City: "Tel Aviv"}, true},
		{"missing street", domain.ShippingAddress{City: "Tel Aviv"}, false},
		{"missing city", domain.ShippingAddress{Street: "Herzl 10"}, false},
		{"whitespace only", domain.ShippingAddress{Street: "  ", City: "\t"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.addr.Complete(); got != tc.want {
				t.Fatalf("Complete() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCheckoutSessionExpired(t *testing.T) {
	now := time.Now().UTC()

	session := domain.CheckoutSession{ExpiresAt: now.Add(time.Minute)}
	if session.Expired(now) {
		t.Fatal("session with future ExpiresAt must not be expired")
	}

	session.ExpiresAt = now.Add(-time.Minute)
	if !session.Expired(now) {
		t.Fatal("session with past ExpiresAt must be expired")
	}

	session.ExpiresAt = time.Time{}
	if session.Expired(now) {
		t.Fatal("session without ExpiresAt must never expire")
	}
}

func TestCheckoutStepValid(t *testing.T) {
	for _, step := range []domain.CheckoutStep{domain.StepCart, domain.StepAddress, domain.StepPayment, domain.StepDone} {
		if !step.Valid() {
			t.Errorf("step %q must be valid", step)
		}
	}
	if domain.CheckoutStep("shipping").Valid() {
		t.Error("unknown step must be invalid")
	}
}
