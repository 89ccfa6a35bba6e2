package config

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MODELS_DIR", "/srv/models")
	t.Setenv("REDIS_ADDR", " redis:6379 ")
	t.Setenv("DEFAULT_MAX_LIMIT", "200")
	t.Setenv("OPTIONS_CACHE_MAX_BYTES", "1048576")
	t.Setenv("OPTIONS_CACHE_TTL_SEC", "60")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")
	t.Setenv("CORS_MAX_AGE_SEC", "120")

	cfg := LoadConfig()
	if cfg.Port != "9090" || cfg.ModelsDir != "/srv/models" || cfg.RedisAddr != "redis:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.DefaultMaxLimit != 200 {
		t.Fatalf("DefaultMaxLimit = %d", cfg.DefaultMaxLimit)
	}
	if cfg.OptionsCache.MaxBytes != 1<<20 || cfg.OptionsCache.TTL != time.Minute {
		t.Fatalf("options cache = %+v", cfg.OptionsCache)
	}
	if !cfg.CORS.AllowCredentials || cfg.CORS.MaxAge != 2*time.Minute {
		t.Fatalf("cors = %+v", cfg.CORS)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CORS_ALLOW_CREDENTIALS", "sometimes")
	t.Setenv("OPTIONS_CACHE_MAX_BYTES", "lots")
	t.Setenv("OPTIONS_CACHE_TTL_SEC", "")

	cfg := LoadConfig()
	if cfg.CORS.AllowCredentials {
		t.Fatalf("invalid bool should fall back to false")
	}
	if cfg.OptionsCache.MaxBytes != 0 {
		t.Fatalf("invalid int should fall back to 0, got %d", cfg.OptionsCache.MaxBytes)
	}
	if cfg.OptionsCache.TTL != 7*24*time.Hour {
		t.Fatalf("TTL = %v", cfg.OptionsCache.TTL)
	}
}
