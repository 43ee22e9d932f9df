package cart

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/domain"
)

// Manager раздаёт контейнеры корзин по идентификатору покупателя и
// гарантирует, что каждая корзина гидратируется из хранилища ровно один раз.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	repo   domain.CartRepository
	policy domain.TotalsPolicy
	logger *log.Entry
}

// NewManager создаёт менеджер корзин поверх общего репозитория.
func NewManager(repo domain.CartRepository, policy domain.TotalsPolicy, logger *log.Entry) *Manager {
	if logger == nil {
		logger = log.WithField("component", "cart-manager")
	}
	return &Manager{
		stores: make(map[string]*Store),
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

// Store возвращает контейнер корзины cartID, создавая и гидратируя его при
// первом обращении. Ошибка гидратации не фатальна: корзина стартует пустой.
func (m *Manager) Store(ctx context.Context, cartID string) *Store {
	m.mu.Lock()
	store, ok := m.stores[cartID]
	if !ok {
		store = NewStore(cartID, m.repo, m.policy, m.logger)
		m.stores[cartID] = store
	}
	m.mu.Unlock()

	if !ok {
		if err := store.Hydrate(ctx); err != nil {
			m.logger.WithError(err).WithField("cart_id", cartID).Warn("cart hydration failed")
		}
	}
	return store
}

// Evict убирает контейнер из кэша менеджера (например, после завершения
// заказа); данные в хранилище не трогаются.
func (m *Manager) Evict(cartID string) {
	m.mu.Lock()
	delete(m.stores, cartID)
	m.mu.Unlock()
}
