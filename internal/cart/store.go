package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/domain"
)

// Snapshot — неизменяемый срез состояния корзины, отдаваемый наружу.
// Totals пересчитываются при каждом снимке и никогда не кэшируются.
type Snapshot struct {
	CartID    string
	Items     []domain.LineItem
	Totals    domain.Totals
	UpdatedAt time.Time
}

// Listener получает снимок после каждой мутации корзины.
type Listener func(Snapshot)

// Store — явный контейнер состояния одной корзины. Все мутации синхронны;
// персистентность — явная граница: каждая мутация сохраняет снимок через
// CartRepository, недоступность хранилища деградирует до in-memory режима.
type Store struct {
	mu        sync.RWMutex
	cart      domain.Cart
	repo      domain.CartRepository
	policy    domain.TotalsPolicy
	logger    *log.Entry
	listeners []Listener
	// degraded взводится после первой ошибки хранилища, чтобы не спамить лог.
	degraded bool
}

// NewStore создаёт контейнер для корзины cartID. repo может быть nil —
// тогда корзина живёт только в памяти.
func NewStore(cartID string, repo domain.CartRepository, policy domain.TotalsPolicy, logger *log.Entry) *Store {
	if logger == nil {
		logger = log.WithField("component", "cart-store")
	}
	return &Store{
		cart:   domain.Cart{ID: cartID},
		repo:   repo,
		policy: policy,
		logger: logger.WithField("cart_id", cartID),
	}
}

// Hydrate загружает корзину из хранилища при старте. Отсутствие записи — не
// ошибка: корзина начинает с пустого состояния.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	loaded, err := s.repo.Load(ctx, s.cart.ID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return nil
		}
		s.logger.WithError(err).Warn("cart hydrate failed, starting empty")
		return err
	}

	s.mu.Lock()
	loaded.ID = s.cart.ID
	s.cart = loaded
	s.mu.Unlock()
	return nil
}

// Subscribe регистрирует слушателя мутаций. Слушатели вызываются синхронно,
// после применения мутации и попытки сохранения.
func (s *Store) Subscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Snapshot возвращает копию текущего состояния с пересчитанными итогами.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Totals пересчитывает суммы по текущим позициям.
func (s *Store) Totals() domain.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CalculateTotals(s.cart.Items, s.policy)
}

// AddItem добавляет предложение поставщика в корзину. Повторное добавление
// того же SupplierPartID увеличивает количество на 1 вместо новой строки.
func (s *Store) AddItem(ctx context.Context, item domain.LineItem) (Snapshot, error) {
	if item.SupplierPartID == "" {
		return s.Snapshot(), domain.ErrSupplierPartIDRequired
	}
	if item.UnitPriceAgorot < 0 {
		return s.Snapshot(), domain.ErrItemPriceInvalid
	}

	s.mu.Lock()
	if idx := s.cart.Find(item.SupplierPartID); idx >= 0 {
		s.cart.Items[idx].Qty++
	} else {
		item.Qty = 1
		item.AddedAt = time.Now().UTC()
		s.cart.Items = append(s.cart.Items, item)
	}
	snap := s.mutatedLocked()
	s.mu.Unlock()

	s.persist(ctx, snap)
	s.notify(snap)
	return snap, nil
}

// RemoveItem удаляет позицию; отсутствие позиции — no-op.
func (s *Store) RemoveItem(ctx context.Context, supplierPartID string) Snapshot {
	s.mu.Lock()
	idx := s.cart.Find(supplierPartID)
	if idx < 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)
	snap := s.mutatedLocked()
	s.mu.Unlock()

	s.persist(ctx, snap)
	s.notify(snap)
	return snap
}

// UpdateQty выставляет количество позиции. qty <= 0 эквивалентно удалению.
// Верхняя граница не проверяется: клиент обязан ограничивать сам.
func (s *Store) UpdateQty(ctx context.Context, supplierPartID string, qty int32) Snapshot {
	if qty <= 0 {
		return s.RemoveItem(ctx, supplierPartID)
	}

	s.mu.Lock()
	idx := s.cart.Find(supplierPartID)
	if idx < 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	s.cart.Items[idx].Qty = qty
	snap := s.mutatedLocked()
	s.mu.Unlock()

	s.persist(ctx, snap)
	s.notify(snap)
	return snap
}

// Clear опустошает корзину; вызывается после успешного размещения заказа.
func (s *Store) Clear(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.cart.Items = nil
	snap := s.mutatedLocked()
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Delete(ctx, snap.CartID); err != nil {
			s.storageFailed(err, "delete")
		}
	}
	s.notify(snap)
	return snap
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]domain.LineItem, len(s.cart.Items))
	copy(items, s.cart.Items)
	return Snapshot{
		CartID:    s.cart.ID,
		Items:     items,
		Totals:    domain.CalculateTotals(s.cart.Items, s.policy),
		UpdatedAt: s.cart.UpdatedAt,
	}
}

func (s *Store) mutatedLocked() Snapshot {
	s.cart.UpdatedAt = time.Now().UTC()
	return s.snapshotLocked()
}

// persist сохраняет снимок; ошибка хранилища не фатальна — корзина продолжает
// работать в памяти.
func (s *Store) persist(ctx context.Context, snap Snapshot) {
	if s.repo == nil {
		return
	}
	cart := domain.Cart{ID: snap.CartID, Items: snap.Items, UpdatedAt: snap.UpdatedAt}
	if err := s.repo.Save(ctx, cart); err != nil {
		s.storageFailed(err, "save")
		return
	}

	s.mu.Lock()
	if s.degraded {
		s.degraded = false
		s.logger.Info("cart storage recovered")
	}
	s.mu.Unlock()
}

func (s *Store) storageFailed(err error, op string) {
	s.mu.Lock()
	first := !s.degraded
	s.degraded = true
	s.mu.Unlock()

	entry := s.logger.WithError(err).WithField("op", op)
	if first {
		entry.Warn("cart storage unavailable, degrading to in-memory")
	} else {
		entry.Debug("cart storage still unavailable")
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(snap)
	}
}
