package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DB_DRIVER", "STORE_TIMEOUT", "OBSERVER_BUFFER", "OBSERVER_WRITE_TIMEOUT",
		"BROADCAST_SYNC_ADMISSIONS", "REDIS_URL", "REDIS_CHANNEL", "PORT", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.DBDriver != "postgres" {
		t.Errorf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
	if cfg.StoreTimeout != 10*time.Second {
		t.Errorf("StoreTimeout = %v, want 10s", cfg.StoreTimeout)
	}
	if cfg.ObserverBuffer != 64 {
		t.Errorf("ObserverBuffer = %d, want 64", cfg.ObserverBuffer)
	}
	if cfg.BroadcastSyncAdmissions {
		t.Error("BroadcastSyncAdmissions should default to false")
	}
	if cfg.RedisURL != "" || cfg.RedisChannel != "jobtracker:events" {
		t.Errorf("unexpected redis settings %q %q", cfg.RedisURL, cfg.RedisChannel)
	}
	if cfg.Port != "8080" || cfg.RateLimitPerMinute != 120 {
		t.Errorf("unexpected server settings %q %d", cfg.Port, cfg.RateLimitPerMinute)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("OBSERVER_BUFFER", "8")
	t.Setenv("BROADCAST_SYNC_ADMISSIONS", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.StoreTimeout != 250*time.Millisecond {
		t.Errorf("StoreTimeout = %v, want 250ms", cfg.StoreTimeout)
	}
	if cfg.ObserverBuffer != 8 {
		t.Errorf("ObserverBuffer = %d, want 8", cfg.ObserverBuffer)
	}
	if !cfg.BroadcastSyncAdmissions {
		t.Error("BroadcastSyncAdmissions should be true")
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("invalid RATE_LIMIT_PER_MINUTE should fall back to 120, got %d", cfg.RateLimitPerMinute)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "jobs", DBPort: "5433", DBSSLMode: "require"}
	dsn := cfg.DSN()
	for _, want := range []string{"host=db", "user=u", "password=p", "dbname=jobs", "port=5433", "sslmode=require"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}
