package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/autosparefinder/checkout/internal/domain"
)

const opTimeout = 5 * time.Second

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) Load(ctx context.Context, cartID string) (domain.Cart, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(opCtx, `
		SELECT id, updated_at
		FROM carts
		WHERE id = $1
	`, cartID).Scan(&cart.ID, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.db.QueryContext(opCtx, `
		SELECT part_id, supplier_part_id, name, manufacturer, unit_price_agorot, qty, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at ASC, supplier_part_id ASC
	`, cartID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = make([]domain.LineItem, 0)
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.PartID, &item.SupplierPartID, &item.Name, &item.Manufacturer,
			&item.UnitPriceAgorot, &item.Qty, &item.AddedAt,
		); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("iterate cart items: %w", err)
	}

	return cart, nil
}

// Save перезаписывает корзину целиком: строки позиций заменяются в одной
// транзакции вместе с обновлением carts.updated_at.
func (r *cartRepository) Save(ctx context.Context, cart domain.Cart) error {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(opCtx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	updatedAt := cart.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(opCtx, `
		INSERT INTO carts (id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`, cart.ID, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err = tx.ExecContext(opCtx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	for _, item := range cart.Items {
		if _, err = tx.ExecContext(opCtx, `
			INSERT INTO cart_items (
				cart_id, supplier_part_id, part_id, name, manufacturer, unit_price_agorot, qty, added_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			cart.ID, item.SupplierPartID, item.PartID, item.Name,
			item.Manufacturer, item.UnitPriceAgorot, item.Qty, item.AddedAt,
		); err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}

	return nil
}

func (r *cartRepository) Delete(ctx context.Context, cartID string) error {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(opCtx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r *cartRepository) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return r.db.PingContext(pingCtx)
}

var _ domain.CartRepository = (*cartRepository)(nil)
