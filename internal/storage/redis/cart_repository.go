package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/domain"
)

const (
	cartKeyPrefix  = "checkout:cart:"
	defaultCartTTL = 7 * 24 * time.Hour
)

// storedItem — формат позиции корзины в Redis.
type storedItem struct {
	PartID          string    `json:"part_id"`
	SupplierPartID  string    `json:"supplier_part_id"`
	Name            string    `json:"name"`
	Manufacturer    string    `json:"manufacturer,omitempty"`
	UnitPriceAgorot int64     `json:"unit_price_agorot"`
	Qty             int32     `json:"qty"`
	AddedAt         time.Time `json:"added_at"`
}

type storedCart struct {
	Items     []storedItem `json:"items"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CartRepository хранит корзины в Redis целиком под фиксированным ключом.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Entry
}

// NewCartRepository создаёт Redis-реализацию CartRepository по адресу addr.
func NewCartRepository(addr string) (*CartRepository, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		// Не URL-формат — используем addr как host:port.
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			PoolSize:     10,
		}
	}

	return &CartRepository{
		client: redis.NewClient(opts),
		ttl:    defaultCartTTL,
		logger: log.WithField("component", "redis-cart-repository"),
	}, nil
}

func (r *CartRepository) key(cartID string) string {
	return cartKeyPrefix + cartID
}

// Load возвращает корзину или ErrCartNotFound, если ключа нет.
func (r *CartRepository) Load(ctx context.Context, cartID string) (domain.Cart, error) {
	val, err := r.client.Get(ctx, r.key(cartID)).Result()
	if err == redis.Nil {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, errors.Wrap(err, "redis get cart")
	}

	var stored storedCart
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		return domain.Cart{}, errors.Wrap(err, "unmarshal cart")
	}

	cart := domain.Cart{
		ID:        cartID,
		Items:     make([]domain.LineItem, 0, len(stored.Items)),
		UpdatedAt: stored.UpdatedAt,
	}
	for _, item := range stored.Items {
		cart.Items = append(cart.Items, domain.LineItem{
			PartID:          item.PartID,
			SupplierPartID:  item.SupplierPartID,
			Name:            item.Name,
			Manufacturer:    item.Manufacturer,
			UnitPriceAgorot: item.UnitPriceAgorot,
			Qty:             item.Qty,
			AddedAt:         item.AddedAt,
		})
	}
	return cart, nil
}

// Save целиком перезаписывает корзину и продлевает её TTL.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	stored := storedCart{
		Items:     make([]storedItem, 0, len(cart.Items)),
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		stored.Items = append(stored.Items, storedItem{
			PartID:          item.PartID,
			SupplierPartID:  item.SupplierPartID,
			Name:            item.Name,
			Manufacturer:    item.Manufacturer,
			UnitPriceAgorot: item.UnitPriceAgorot,
			Qty:             item.Qty,
			AddedAt:         item.AddedAt,
		})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}

	if err := r.client.Set(ctx, r.key(cart.ID), data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set cart")
	}
	return nil
}

// Delete удаляет корзину; отсутствие ключа не считается ошибкой.
func (r *CartRepository) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, r.key(cartID)).Err(); err != nil {
		return errors.Wrap(err, "redis del cart")
	}
	return nil
}

// Ping проверяет доступность Redis.
func (r *CartRepository) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

// Close закрывает соединение с Redis.
func (r *CartRepository) Close() error {
	return r.client.Close()
}

var _ domain.CartRepository = (*CartRepository)(nil)
