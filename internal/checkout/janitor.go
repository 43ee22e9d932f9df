package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/domain"
	"github.com/autosparefinder/checkout/internal/metrics"
)

const (
	defaultJanitorInterval  = 5 * time.Minute
	defaultJanitorBatchSize = 200
)

var (
	sessionCleanupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_session_cleanup_runs_total",
		Help: "Total number of session cleanup runs grouped by result.",
	}, []string{"result"})
	sessionCleanupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_session_cleanup_deleted_total",
		Help: "Total number of deleted expired checkout sessions.",
	})
	sessionCleanupLastDeleted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_session_cleanup_last_deleted",
		Help: "Number of deleted sessions during the last cleanup run.",
	})
)

// JanitorOptions задаёт параметры воркера очистки просроченных сессий.
type JanitorOptions struct {
	Logger    *log.Entry
	Metrics   *metrics.CheckoutMetrics
	Interval  time.Duration
	BatchSize int
}

// JanitorOption настраивает Janitor.
type JanitorOption func(*JanitorOptions)

// WithJanitorLogger задаёт logger для воркера.
func WithJanitorLogger(logger *log.Entry) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.Logger = logger
	}
}

// WithJanitorMetrics задаёт метрики checkout: удалённые сессии уменьшают
// gauge активных сессий. Nil отключает учёт.
func WithJanitorMetrics(m *metrics.CheckoutMetrics) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.Metrics = m
	}
}

// WithJanitorInterval задаёт интервал между циклами очистки.
func WithJanitorInterval(interval time.Duration) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.Interval = interval
	}
}

// WithJanitorBatchSize задаёт размер batch для одного удаления.
func WithJanitorBatchSize(batchSize int) JanitorOption {
	return func(opts *JanitorOptions) {
		opts.BatchSize = batchSize
	}
}

// Janitor периодически удаляет просроченные checkout-сессии.
type Janitor struct {
	repo      domain.SessionRepository
	logger    *log.Entry
	metrics   *metrics.CheckoutMetrics
	interval  time.Duration
	batchSize int
}

// NewJanitor создаёт воркер очистки сессий.
func NewJanitor(repo domain.SessionRepository, options ...JanitorOption) *Janitor {
	opts := JanitorOptions{
		Interval:  defaultJanitorInterval,
		BatchSize: defaultJanitorBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "session-janitor")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultJanitorInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultJanitorBatchSize
	}

	return &Janitor{
		repo:      repo,
		logger:    logger,
		metrics:   opts.Metrics,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (j *Janitor) Run(ctx context.Context) {
	if j.repo == nil {
		j.logger.Warn("session janitor is disabled: repo is nil")
		return
	}

	j.cleanup(ctx, time.Now().UTC())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.cleanup(ctx, time.Now().UTC())
		}
	}
}

func (j *Janitor) cleanup(ctx context.Context, before time.Time) {
	deleted, err := j.DeleteExpired(ctx, before)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		sessionCleanupRunsTotal.WithLabelValues("error").Inc()
		j.logger.WithError(err).Warn("session cleanup run failed")
		return
	}

	sessionCleanupRunsTotal.WithLabelValues("ok").Inc()
	sessionCleanupLastDeleted.Set(float64(deleted))
	if j.metrics != nil {
		j.metrics.RecordSessionsReaped(deleted)
	}
	if deleted > 0 {
		j.logger.WithField("deleted", deleted).Info("session cleanup completed")
	}
}

// DeleteExpired удаляет все сессии с ExpiresAt <= before порциями batchSize.
func (j *Janitor) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	totalDeleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		deleted, err := j.repo.DeleteExpired(before, j.batchSize)
		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted > 0 {
			sessionCleanupDeletedTotal.Add(float64(deleted))
		}

		if deleted < j.batchSize {
			break
		}
	}

	return totalDeleted, nil
}
