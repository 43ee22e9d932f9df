package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/cart"
	"github.com/autosparefinder/checkout/internal/client/orders"
	"github.com/autosparefinder/checkout/internal/domain"
	"github.com/autosparefinder/checkout/internal/messaging/kafka"
	"github.com/autosparefinder/checkout/internal/storage/memory"
	"github.com/autosparefinder/checkout/internal/storage/postgres"
	"github.com/autosparefinder/checkout/internal/storage/redis"
)

// Dependencies — собранные зависимости сервиса.
type Dependencies struct {
	CartRepo  domain.CartRepository
	Carts     *cart.Manager
	Sessions  domain.SessionRepository
	Gateway   domain.OrdersGateway
	Publisher domain.EventPublisher

	pgStore       *postgres.Store
	redisRepo     *redis.CartRepository
	kafkaProducer *kafka.Producer
}

func buildDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	deps := &Dependencies{}

	cartRepo, err := buildCartRepository(ctx, cfg, logger, deps)
	if err != nil {
		return nil, err
	}
	deps.CartRepo = cartRepo

	policy := domain.TotalsPolicy{
		ShippingFeeAgorot:         cfg.ShippingFeeAgorot,
		ChargeShippingOnEmptyCart: cfg.ChargeShippingOnEmptyCart,
	}
	if policy.ShippingFeeAgorot <= 0 {
		policy.ShippingFeeAgorot = domain.DefaultShippingFeeAgorot
	}
	deps.Carts = cart.NewManager(cartRepo, policy, logger.WithField("layer", "cart"))

	// Сессии эфемерны и живут в памяти процесса.
	deps.Sessions = memory.NewSessionRepository()

	httpClient := &http.Client{Timeout: 15 * time.Second}
	deps.Gateway = orders.NewClient(cfg.OrdersBaseURL, httpClient, logger.WithField("layer", "orders-client"))

	// Kafka опционален: без брокеров события просто не публикуются.
	if brokers := strings.TrimSpace(cfg.KafkaBrokers); brokers != "" {
		producer, err := kafka.NewProducer(strings.Split(brokers, ","))
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.kafkaProducer = producer
			deps.Publisher = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	return deps, nil
}

func buildCartRepository(ctx context.Context, cfg Config, logger *log.Entry, deps *Dependencies) (domain.CartRepository, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage)) {
	case "", "memory":
		logger.Info("cart storage: in-memory")
		return memory.NewCartRepository(), nil

	case "redis":
		repo, err := redis.NewCartRepository(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("init redis cart storage: %w", err)
		}
		if err := repo.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis is not reachable at startup, carts will degrade to in-memory until it recovers")
		}
		deps.redisRepo = repo
		logger.WithField("addr", cfg.RedisAddr).Info("cart storage: redis")
		return repo, nil

	case "postgres":
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		deps.pgStore = store
		logger.Info("cart storage: postgres")
		return postgres.NewCartRepository(store), nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Storage)
	}
}

// Close закрывает внешние соединения.
func (d *Dependencies) Close(logger *log.Entry) {
	if d.kafkaProducer != nil {
		if err := d.kafkaProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}
	if d.redisRepo != nil {
		if err := d.redisRepo.Close(); err != nil {
			logger.WithError(err).Warn("failed to close redis connection")
		}
	}
	if d.pgStore != nil {
		if err := d.pgStore.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres connection")
		}
	}
}
