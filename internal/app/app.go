package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/autosparefinder/checkout/internal/checkout"
	healthcheck "github.com/autosparefinder/checkout/internal/health"
	"github.com/autosparefinder/checkout/internal/httpapi"
	"github.com/autosparefinder/checkout/internal/metrics"
	"github.com/autosparefinder/checkout/internal/version"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	// OrdersBaseURL — адрес внешнего REST-сервиса заказов и платежей.
	OrdersBaseURL string

	// Storage выбирает бэкенд корзин: memory, redis или postgres.
	Storage     string
	RedisAddr   string
	PostgresDSN string

	// KafkaBrokers — список брокеров через запятую; пусто — события отключены.
	KafkaBrokers string

	SessionTTL time.Duration

	ShippingFeeAgorot         int64
	ChargeShippingOnEmptyCart bool
}

// DefaultConfig возвращает базовую конфигурацию с in-memory хранилищем.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                  ":8080",
		MetricsAddr:               ":9090",
		OrdersBaseURL:             "http://localhost:8000",
		Storage:                   "memory",
		SessionTTL:                30 * time.Minute,
		ShippingFeeAgorot:         9100,
		ChargeShippingOnEmptyCart: true,
	}
}

// Run собирает зависимости и обслуживает HTTP API до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	checkoutMetrics := metrics.NewCheckoutMetrics()
	flow := checkout.NewFlow(deps.Sessions, deps.Carts, deps.Gateway,
		checkout.WithLogger(logger.WithField("layer", "checkout")),
		checkout.WithMetrics(checkoutMetrics),
		checkout.WithPublisher(deps.Publisher),
		checkout.WithTTL(cfg.SessionTTL),
	)

	janitor := checkout.NewJanitor(deps.Sessions,
		checkout.WithJanitorLogger(logger.WithField("layer", "janitor")),
		checkout.WithJanitorMetrics(checkoutMetrics))
	go janitor.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("cart-storage", healthcheck.NewStorageChecker("cart-storage", deps.CartRepo))
	healthHandler.RegisterChecker("orders-api", healthcheck.NewOrdersAPIChecker("orders-api", cfg.OrdersBaseURL))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	api := httpapi.NewServer(deps.Carts, flow, deps.Gateway, checkoutMetrics, deps.Publisher, logger.WithField("layer", "http"))
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
