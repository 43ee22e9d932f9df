package postgres

import (
	"context"
	"testing"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()

	if cfg.MaxOpenConns <= 0 || cfg.MaxIdleConns <= 0 {
		t.Fatalf("pool limits must be positive: %+v", cfg)
	}
	if cfg.ConnMaxLifetime <= cfg.ConnMaxIdleTime {
		t.Fatalf("lifetime must exceed idle time: %+v", cfg)
	}
	if cfg.ConnectTimeout <= 0 {
		t.Fatalf("connect timeout must be positive: %+v", cfg)
	}
}

func TestStorePingUninitialized(t *testing.T) {
	var store *Store
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("nil store must fail ping")
	}

	if err := (&Store{}).Ping(context.Background()); err == nil {
		t.Fatal("store without db must fail ping")
	}
}
