package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autosparefinder/checkout/internal/domain"
)

func TestCartRepositoryIntegrationRoundTrip(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCartRepository(store)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	cart := domain.Cart{
		ID: "cart-it-1",
		Items: []domain.LineItem{
			{
				PartID:          "p-1",
				SupplierPartID:  "sp-1",
				Name:            "Brake disc",
				Manufacturer:    "Brembo",
				UnitPriceAgorot: 45000,
				Qty:             2,
				AddedAt:         now,
			},
			{
				PartID:          "p-2",
				SupplierPartID:  "sp-2",
				Name:            "Air filter",
				UnitPriceAgorot: 9000,
				Qty:             1,
				AddedAt:         now.Add(time.Second),
			},
		},
		UpdatedAt: now,
	}

	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Load(ctx, "cart-it-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(loaded.Items))
	}
	if loaded.Items[0].SupplierPartID != "sp-1" || loaded.Items[0].Qty != 2 {
		t.Fatalf("unexpected first item: %+v", loaded.Items[0])
	}
}

func TestCartRepositoryIntegrationSaveReplacesItems(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCartRepository(store)
	ctx := context.Background()

	now := time.Now().UTC()
	cart := domain.Cart{
		ID: "cart-it-2",
		Items: []domain.LineItem{
			{PartID: "p-1", SupplierPartID: "sp-1", Name: "Spark plug", UnitPriceAgorot: 3000, Qty: 4, AddedAt: now},
		},
		UpdatedAt: now,
	}
	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("save: %v", err)
	}

	cart.Items = []domain.LineItem{
		{PartID: "p-2", SupplierPartID: "sp-2", Name: "Wiper blade", UnitPriceAgorot: 5500, Qty: 1, AddedAt: now},
	}
	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("resave: %v", err)
	}

	loaded, err := repo.Load(ctx, "cart-it-2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].SupplierPartID != "sp-2" {
		t.Fatalf("save must replace items, got %+v", loaded.Items)
	}
}

func TestCartRepositoryIntegrationDelete(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCartRepository(store)
	ctx := context.Background()

	cart := domain.Cart{
		ID: "cart-it-3",
		Items: []domain.LineItem{
			{PartID: "p-1", SupplierPartID: "sp-1", Name: "Belt", UnitPriceAgorot: 12000, Qty: 1, AddedAt: time.Now().UTC()},
		},
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := repo.Delete(ctx, "cart-it-3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "cart-it-3"); err != nil {
		t.Fatalf("delete absent cart must not fail: %v", err)
	}

	if _, err := repo.Load(ctx, "cart-it-3"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("err = %v, want ErrCartNotFound", err)
	}

	// Каскад должен удалить и позиции.
	var count int
	if err := store.DB().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cart_items WHERE cart_id = $1
	`, "cart-it-3").Scan(&count); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 0 {
		t.Fatalf("cart_items count = %d, want 0", count)
	}
}

func TestMigrationStatusIntegration(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)

	version, count, err := store.MigrationStatus(context.Background())
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if version < 2 || count < 2 {
		t.Fatalf("version = %d, count = %d, want at least 2/2", version, count)
	}
}
