package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Fare.BaseFare != 50.00 || cfg.Fare.PerKmRate != 10.00 || cfg.Fare.SurgeMultiplier != 1.0 {
		t.Errorf("unexpected fare defaults: %+v", cfg.Fare)
	}
	if cfg.Fare.DynamicSurge {
		t.Error("expected dynamic surge to be off by default")
	}
	if cfg.Store.RideLockTimeout != 5*time.Second {
		t.Errorf("expected 5s lock timeout, got %v", cfg.Store.RideLockTimeout)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FARE_BASE", "40.5")
	t.Setenv("FARE_SURGE", "1.5")
	t.Setenv("RIDE_LOCK_TIMEOUT", "250ms")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	if cfg.Fare.BaseFare != 40.5 {
		t.Errorf("expected base fare 40.5, got %v", cfg.Fare.BaseFare)
	}
	if cfg.Fare.SurgeMultiplier != 1.5 {
		t.Errorf("expected surge 1.5, got %v", cfg.Fare.SurgeMultiplier)
	}
	if cfg.Store.RideLockTimeout != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Store.RideLockTimeout)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected memory store, got %s", cfg.Store.Driver)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Redis.DB != 0 {
		t.Errorf("expected invalid int to fall back to default, got %d", cfg.Redis.DB)
	}
}

func TestValidate_DefaultJWTSecret(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		secret string
		want   error
	}{
		{"postgres with default secret", "postgres", "", ErrDefaultJWTSecret},
		{"unset driver with default secret", "", "", ErrDefaultJWTSecret},
		{"postgres with explicit secret", "postgres", "s3cret-value", nil},
		{"memory with default secret", "memory", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", tt.driver)
			t.Setenv("JWT_SECRET", tt.secret)

			cfg := Load()
			if tt.secret == "" && !cfg.Auth.UsesDefaultSecret() {
				t.Fatalf("expected default secret, got %q", cfg.Auth.JWTSecret)
			}
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
