package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики процесса оформления заказа.
type CheckoutMetrics struct {
	// Счётчики жизненного цикла checkout
	sessionsStarted  prometheus.Counter
	ordersPlaced     prometheus.Counter
	placementFailed  prometheus.Counter
	placementRetried prometheus.Counter

	// Гистограмма длительности размещения (все три вызова)
	placementDuration prometheus.Histogram

	// Переходы между шагами
	stepTransitions *prometheus.CounterVec

	// Мутации корзины
	cartMutations *prometheus.CounterVec

	// Gauge активных checkout-сессий
	activeSessions prometheus.Gauge
}

// NewCheckoutMetrics создаёт метрики checkout на дефолтном registry.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer создаёт метрики на заданном registry
// (в тестах — изолированный prometheus.NewRegistry).
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		sessionsStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_sessions_started_total",
			Help: "Total number of checkout sessions started",
		}),
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		placementFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_placement_failed_total",
			Help: "Total number of failed order placement attempts",
		}),
		placementRetried: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_placement_retried_total",
			Help: "Total number of placement retries reusing an idempotency key",
		}),
		placementDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "checkout_placement_duration_seconds",
			Help:    "Duration of the create-intent-confirm placement sequence in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_step_transitions_total",
			Help: "Total number of checkout step transitions grouped by target step",
		}, []string{"step"}),
		cartMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_cart_mutations_total",
			Help: "Total number of cart mutations grouped by operation",
		}, []string{"op"}),
		activeSessions: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "checkout_active_sessions",
			Help: "Number of currently active checkout sessions",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordSessionStarted увеличивает счётчик начатых сессий и gauge активных.
func (m *CheckoutMetrics) RecordSessionStarted() {
	m.sessionsStarted.Inc()
	m.activeSessions.Inc()
}

// RecordSessionFinished уменьшает gauge активных сессий.
func (m *CheckoutMetrics) RecordSessionFinished() {
	m.activeSessions.Dec()
}

// RecordSessionsReaped уменьшает gauge активных сессий на число сессий,
// удалённых воркером очистки.
func (m *CheckoutMetrics) RecordSessionsReaped(n int) {
	if n > 0 {
		m.activeSessions.Sub(float64(n))
	}
}

// RecordOrderPlaced увеличивает счётчик успешно размещённых заказов.
func (m *CheckoutMetrics) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

// RecordPlacementFailed увеличивает счётчик неудачных попыток размещения.
func (m *CheckoutMetrics) RecordPlacementFailed() {
	m.placementFailed.Inc()
}

// RecordPlacementRetried увеличивает счётчик повторных попыток.
func (m *CheckoutMetrics) RecordPlacementRetried() {
	m.placementRetried.Inc()
}

// RecordPlacementDuration записывает длительность последовательности размещения.
func (m *CheckoutMetrics) RecordPlacementDuration(duration time.Duration) {
	m.placementDuration.Observe(duration.Seconds())
}

// RecordStepTransition считает переход на шаг step.
func (m *CheckoutMetrics) RecordStepTransition(step string) {
	m.stepTransitions.WithLabelValues(step).Inc()
}

// RecordCartMutation считает мутацию корзины (add/remove/update/clear).
func (m *CheckoutMetrics) RecordCartMutation(op string) {
	m.cartMutations.WithLabelValues(op).Inc()
}
