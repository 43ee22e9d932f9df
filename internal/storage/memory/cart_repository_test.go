package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autosparefinder/checkout/internal/domain"
)

func TestCartRepositoryRoundTrip(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	cart := domain.Cart{
		ID: "cart-1",
		Items: []domain.LineItem{
			{PartID: "p-1", SupplierPartID: "sp-1", Name: "Brake pad", UnitPriceAgorot: 12000, Qty: 2},
		},
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Load(ctx, "cart-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].SupplierPartID != "sp-1" {
		t.Fatalf("unexpected cart: %+v", loaded)
	}

	// Мутация загруженной копии не должна менять хранимую корзину.
	loaded.Items[0].Qty = 99
	again, err := repo.Load(ctx, "cart-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Items[0].Qty != 2 {
		t.Fatalf("stored cart mutated: qty = %d", again.Items[0].Qty)
	}
}

func TestCartRepositoryNotFound(t *testing.T) {
	repo := NewCartRepository()

	_, err := repo.Load(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("err = %v, want ErrCartNotFound", err)
	}
}

func TestCartRepositoryDelete(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, domain.Cart{ID: "cart-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, "cart-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "cart-1"); err != nil {
		t.Fatalf("delete absent cart must not fail: %v", err)
	}
	if _, err := repo.Load(ctx, "cart-1"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("err = %v, want ErrCartNotFound", err)
	}
}

func TestSessionRepositoryLifecycle(t *testing.T) {
	repo := NewSessionRepository()

	session := domain.CheckoutSession{
		ID:        "sess-1",
		CartID:    "cart-1",
		Step:      domain.StepCart,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	if err := repo.Create(session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(session); !errors.Is(err, domain.ErrSessionAlreadyExists) {
		t.Fatalf("err = %v, want ErrSessionAlreadyExists", err)
	}

	session.Step = domain.StepAddress
	if err := repo.Save(session); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get("sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Step != domain.StepAddress {
		t.Fatalf("step = %s, want address", got.Step)
	}

	if err := repo.Delete("sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get("sess-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionRepositorySaveUnknown(t *testing.T) {
	repo := NewSessionRepository()

	err := repo.Save(domain.CheckoutSession{ID: "missing"})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionRepositoryDeleteExpired(t *testing.T) {
	repo := NewSessionRepository()
	now := time.Now().UTC()

	for _, s := range []domain.CheckoutSession{
		{ID: "expired-1", ExpiresAt: now.Add(-time.Minute)},
		{ID: "expired-2", ExpiresAt: now.Add(-time.Hour)},
		{ID: "alive", ExpiresAt: now.Add(time.Hour)},
		{ID: "no-ttl"},
	} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	deleted, err := repo.DeleteExpired(now, 10)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	if _, err := repo.Get("alive"); err != nil {
		t.Fatalf("alive session must survive: %v", err)
	}
	if _, err := repo.Get("no-ttl"); err != nil {
		t.Fatalf("session without ttl must survive: %v", err)
	}
}

func TestSessionRepositoryDeleteExpiredLimit(t *testing.T) {
	repo := NewSessionRepository()
	now := time.Now().UTC()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Create(domain.CheckoutSession{ID: id, ExpiresAt: now.Add(-time.Minute)}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	deleted, err := repo.DeleteExpired(now, 2)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	rest, err := repo.DeleteExpired(now, 2)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if rest != 1 {
		t.Fatalf("deleted = %d, want 1", rest)
	}
}
