package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/cart"
	"github.com/autosparefinder/checkout/internal/domain"
	"github.com/autosparefinder/checkout/internal/messaging/kafka"
	"github.com/autosparefinder/checkout/internal/metrics"
)

const defaultSessionTTL = 30 * time.Minute

// Options задаёт параметры Flow.
type Options struct {
	Logger    *log.Entry
	Metrics   *metrics.CheckoutMetrics
	Publisher domain.EventPublisher
	TTL       time.Duration
	Now       func() time.Time
}

// Option настраивает Flow.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики checkout. Nil отключает метрики.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithPublisher задаёт publisher событий checkout.
func WithPublisher(p domain.EventPublisher) Option {
	return func(opts *Options) {
		opts.Publisher = p
	}
}

// WithTTL задаёт срок жизни checkout-сессии.
func WithTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.TTL = ttl
	}
}

// WithClock задаёт источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}

// Flow ведёт покупателя по шагам оформления заказа: cart → address →
// payment → done. Размещение заказа выполняет три последовательных вызова
// внешнего сервиса; при сбое сессия остаётся на шаге payment, а корзина
// не трогается.
type Flow struct {
	sessions  domain.SessionRepository
	carts     *cart.Manager
	gateway   domain.OrdersGateway
	publisher domain.EventPublisher
	metrics   *metrics.CheckoutMetrics
	logger    *log.Entry
	ttl       time.Duration
	now       func() time.Time
}

// NewFlow создаёт сервис оформления заказа.
func NewFlow(sessions domain.SessionRepository, carts *cart.Manager, gateway domain.OrdersGateway, options ...Option) *Flow {
	opts := Options{
		TTL: defaultSessionTTL,
		Now: time.Now,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "checkout-flow")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Flow{
		sessions:  sessions,
		carts:     carts,
		gateway:   gateway,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logger,
		ttl:       opts.TTL,
		now:       opts.Now,
	}
}

// Begin открывает checkout-сессию для корзины cartID. Ключ идемпотентности
// генерируется один раз на сессию и переиспользуется при всех повторных
// попытках размещения.
func (f *Flow) Begin(ctx context.Context, cartID string) (domain.CheckoutSession, error) {
	store := f.carts.Store(ctx, cartID)
	if store.Snapshot().Totals.Count == 0 {
		return domain.CheckoutSession{}, domain.ErrCartEmpty
	}

	now := f.now().UTC()
	session := domain.CheckoutSession{
		ID:             uuid.NewString(),
		CartID:         cartID,
		Step:           domain.StepCart,
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(f.ttl),
	}

	if err := f.sessions.Create(session); err != nil {
		return domain.CheckoutSession{}, errors.Wrap(err, "create checkout session")
	}

	if f.metrics != nil {
		f.metrics.RecordSessionStarted()
	}
	f.publishEvent(kafka.EventTypeCheckoutStarted, session.ID, cartID, nil)

	f.logger.WithFields(log.Fields{
		"session_id": session.ID,
		"cart_id":    cartID,
	}).Info("checkout session started")

	return session, nil
}

// Get возвращает сессию; просроченная сессия удаляется и считается отсутствующей.
func (f *Flow) Get(sessionID string) (domain.CheckoutSession, error) {
	session, err := f.sessions.Get(sessionID)
	if err != nil {
		return domain.CheckoutSession{}, err
	}
	if session.Expired(f.now().UTC()) {
		_ = f.sessions.Delete(session.ID)
		if f.metrics != nil && session.Step != domain.StepDone {
			f.metrics.RecordSessionFinished()
		}
		return domain.CheckoutSession{}, domain.ErrSessionExpired
	}
	return session, nil
}

// SetAddress сохраняет адрес доставки. Адрес без улицы или города отклоняется,
// сессия остаётся на текущем шаге.
func (f *Flow) SetAddress(sessionID string, address domain.ShippingAddress) (domain.CheckoutSession, error) {
	session, err := f.Get(sessionID)
	if err != nil {
		return domain.CheckoutSession{}, err
	}
	if !address.Complete() {
		return session, domain.ErrAddressIncomplete
	}

	session.Address = address
	session.UpdatedAt = f.now().UTC()
	if err := f.sessions.Save(session); err != nil {
		return domain.CheckoutSession{}, errors.Wrap(err, "save checkout session")
	}
	return session, nil
}

// Advance переводит сессию на следующий шаг. Переход address → payment
// требует полного адреса; payment → done доступен только через PlaceOrder.
func (f *Flow) Advance(sessionID string) (domain.CheckoutSession, error) {
	session, err := f.Get(sessionID)
	if err != nil {
		return domain.CheckoutSession{}, err
	}

	var next domain.CheckoutStep
	switch session.Step {
	case domain.StepCart:
		next = domain.StepAddress
	case domain.StepAddress:
		if !session.Address.Complete() {
			return session, domain.ErrAddressIncomplete
		}
		next = domain.StepPayment
	default:
		return session, domain.ErrInvalidTransition
	}

	return f.transition(session, next)
}

// Back возвращает сессию на предыдущий шаг: payment → address или address → cart.
func (f *Flow) Back(sessionID string) (domain.CheckoutSession, error) {
	session, err := f.Get(sessionID)
	if err != nil {
		return domain.CheckoutSession{}, err
	}

	var prev domain.CheckoutStep
	switch session.Step {
	case domain.StepAddress:
		prev = domain.StepCart
	case domain.StepPayment:
		prev = domain.StepAddress
	default:
		return session, domain.ErrInvalidTransition
	}

	return f.transition(session, prev)
}

func (f *Flow) transition(session domain.CheckoutSession, to domain.CheckoutStep) (domain.CheckoutSession, error) {
	if !domain.ValidTransition(session.Step, to) {
		return session, domain.ErrInvalidTransition
	}

	from := session.Step
	session.Step = to
	session.UpdatedAt = f.now().UTC()
	if err := f.sessions.Save(session); err != nil {
		return domain.CheckoutSession{}, errors.Wrap(err, "save checkout session")
	}

	if f.metrics != nil {
		f.metrics.RecordStepTransition(string(to))
	}
	f.publishEvent(kafka.EventTypeStepChanged, session.ID, session.CartID, map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	})

	return session, nil
}

// PlaceOrder выполняет последовательность размещения: создание заказа,
// создание платёжного намерения, подтверждение оплаты. Успех очищает корзину
// и переводит сессию в done. Сбой любого вызова оставляет сессию на шаге
// payment с тем же ключом идемпотентности; корзина не меняется.
func (f *Flow) PlaceOrder(ctx context.Context, sessionID string) (domain.CheckoutSession, error) {
	session, err := f.Get(sessionID)
	if err != nil {
		return domain.CheckoutSession{}, err
	}
	if session.Step != domain.StepPayment {
		return session, domain.ErrInvalidTransition
	}
	if !session.Address.Complete() {
		return session, domain.ErrAddressIncomplete
	}

	store := f.carts.Store(ctx, session.CartID)
	snap := store.Snapshot()

	session.Attempts++
	if f.metrics != nil && session.Attempts > 1 {
		f.metrics.RecordPlacementRetried()
	}

	start := f.now()
	placed, err := f.place(ctx, &session, snap.Items)
	if f.metrics != nil {
		f.metrics.RecordPlacementDuration(f.now().Sub(start))
	}

	if err != nil {
		// Сессия остаётся на payment; частичный прогресс (order_id,
		// payment_intent_id) сохраняем для следующей попытки.
		session.UpdatedAt = f.now().UTC()
		if saveErr := f.sessions.Save(session); saveErr != nil {
			f.logger.WithError(saveErr).WithField("session_id", session.ID).Error("failed to save session after placement failure")
		}

		if f.metrics != nil {
			f.metrics.RecordPlacementFailed()
		}
		f.publishEvent(kafka.EventTypePlacementFailed, session.ID, session.CartID, map[string]interface{}{
			"attempt": session.Attempts,
			"error":   err.Error(),
		})
		f.logger.WithError(err).WithFields(log.Fields{
			"session_id": session.ID,
			"attempt":    session.Attempts,
		}).Warn("order placement failed")

		return session, err
	}

	store.Clear(ctx)

	session.Step = domain.StepDone
	session.UpdatedAt = f.now().UTC()
	if saveErr := f.sessions.Save(session); saveErr != nil {
		f.logger.WithError(saveErr).WithField("session_id", session.ID).Error("failed to save completed session")
	}

	if f.metrics != nil {
		f.metrics.RecordOrderPlaced()
		f.metrics.RecordStepTransition(string(domain.StepDone))
		f.metrics.RecordSessionFinished()
	}
	f.publishEvent(kafka.EventTypeOrderPlaced, session.ID, session.CartID, map[string]interface{}{
		"order_id":     placed.OrderID,
		"order_number": placed.OrderNumber,
		"total_agorot": placed.TotalAgorot,
	})

	f.logger.WithFields(log.Fields{
		"session_id":   session.ID,
		"order_id":     placed.OrderID,
		"order_number": placed.OrderNumber,
	}).Info("order placed")

	return session, nil
}

func (f *Flow) place(ctx context.Context, session *domain.CheckoutSession, items []domain.LineItem) (domain.CreateOrderResponse, error) {
	req := domain.CreateOrderRequest{
		Items:           make([]domain.CreateOrderItem, 0, len(items)),
		ShippingAddress: session.Address,
		IdempotencyKey:  session.IdempotencyKey,
	}
	for _, item := range items {
		req.Items = append(req.Items, domain.CreateOrderItem{
			PartID:         item.PartID,
			SupplierPartID: item.SupplierPartID,
			Qty:            item.Qty,
		})
	}

	resp, err := f.gateway.CreateOrder(ctx, req)
	if err != nil {
		return domain.CreateOrderResponse{}, errors.Wrap(err, "create order")
	}
	session.OrderID = resp.OrderID
	session.OrderNumber = resp.OrderNumber

	intent, err := f.gateway.CreatePaymentIntent(ctx, resp.OrderID)
	if err != nil {
		return domain.CreateOrderResponse{}, errors.Wrap(err, "create payment intent")
	}
	session.PaymentIntentID = intent.ID

	if err := f.gateway.ConfirmPayment(ctx, intent.ID); err != nil {
		return domain.CreateOrderResponse{}, errors.Wrap(err, "confirm payment")
	}

	return resp, nil
}

// Abandon удаляет сессию, не дошедшую до done.
func (f *Flow) Abandon(sessionID string) error {
	session, err := f.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if err := f.sessions.Delete(session.ID); err != nil {
		return errors.Wrap(err, "delete checkout session")
	}
	if f.metrics != nil && session.Step != domain.StepDone {
		f.metrics.RecordSessionFinished()
	}
	return nil
}

func (f *Flow) publishEvent(eventType kafka.EventType, sessionID, cartID string, metadata map[string]interface{}) {
	if f.publisher == nil {
		return
	}
	event := kafka.NewCheckoutEvent(eventType, sessionID, cartID, metadata)
	if err := f.publisher.Publish(kafka.TopicCheckoutEvents, sessionID, event); err != nil {
		f.logger.WithError(err).WithField("event_type", string(eventType)).Warn("failed to publish checkout event")
	}
}
