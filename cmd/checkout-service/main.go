package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/app"
	"github.com/autosparefinder/checkout/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// readConfig формирует конфигурацию приложения, позволяя переопределить
// настройки через переменные окружения.
func readConfig() app.Config {
	cfg := app.DefaultConfig()
	if v := os.Getenv("CHECKOUT_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CHECKOUT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("CHECKOUT_ORDERS_BASE_URL"); v != "" {
		cfg.OrdersBaseURL = v
	}
	if v := os.Getenv("CHECKOUT_STORAGE"); v != "" {
		cfg.Storage = v
	}
	if v := os.Getenv("CHECKOUT_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("CHECKOUT_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("CHECKOUT_SESSION_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil && ttl > 0 {
			cfg.SessionTTL = ttl
		}
	}
	if v := os.Getenv("CHECKOUT_SHIPPING_FEE_AGOROT"); v != "" {
		if fee, err := strconv.ParseInt(v, 10, 64); err == nil && fee >= 0 {
			cfg.ShippingFeeAgorot = fee
		}
	}
	if v := os.Getenv("CHECKOUT_CHARGE_SHIPPING_ON_EMPTY_CART"); v != "" {
		if charge, err := strconv.ParseBool(v); err == nil {
			cfg.ChargeShippingOnEmptyCart = charge
		}
	}
	return cfg
}

func main() {
	setupLogger()
	cfg := readConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":      version.GetVersion(),
		"commit":       version.GetCommit(),
		"build_date":   version.GetDate(),
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.Storage,
		"orders_api":   cfg.OrdersBaseURL,
	}).Info("запускаем checkout-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("checkout-service остановлен")
}
