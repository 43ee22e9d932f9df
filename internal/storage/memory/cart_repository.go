package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/autosparefinder/checkout/internal/domain"
)

type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartRepository создаёт in-memory реализацию CartRepository.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		carts: make(map[string]domain.Cart),
	}
}

func (r *cartRepositoryInMemory) Load(_ context.Context, cartID string) (domain.Cart, error) {
	cartID = strings.TrimSpace(cartID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cloneCart(cart), nil
}

func (r *cartRepositoryInMemory) Save(_ context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.ID] = cloneCart(cart)
	return nil
}

func (r *cartRepositoryInMemory) Delete(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, cartID)
	return nil
}

func (r *cartRepositoryInMemory) Ping(context.Context) error {
	return nil
}

func cloneCart(src domain.Cart) domain.Cart {
	dst := src
	dst.Items = append([]domain.LineItem(nil), src.Items...)
	return dst
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)

type sessionRepositoryInMemory struct {
	mu       sync.RWMutex
	sessions map[string]domain.CheckoutSession
}

// NewSessionRepository создаёт in-memory реализацию SessionRepository.
func NewSessionRepository() domain.SessionRepository {
	return &sessionRepositoryInMemory{
		sessions: make(map[string]domain.CheckoutSession),
	}
}

func (r *sessionRepositoryInMemory) Create(session domain.CheckoutSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return domain.ErrSessionAlreadyExists
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *sessionRepositoryInMemory) Get(id string) (domain.CheckoutSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.CheckoutSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *sessionRepositoryInMemory) Save(session domain.CheckoutSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *sessionRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *sessionRepositoryInMemory) DeleteExpired(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.ExpiresAt.IsZero() || session.ExpiresAt.After(before) {
			continue
		}

		delete(r.sessions, id)
		removed++
		if limit > 0 && removed >= limit {
			break
		}
	}

	return removed, nil
}

var _ domain.SessionRepository = (*sessionRepositoryInMemory)(nil)
