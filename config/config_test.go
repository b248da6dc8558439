package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Worker.CoalesceWindow != 50*time.Millisecond {
		t.Errorf("CoalesceWindow = %v, want 50ms", cfg.Worker.CoalesceWindow)
	}
	if cfg.Worker.DebounceWindow != 100*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 100ms", cfg.Worker.DebounceWindow)
	}
	if cfg.Worker.DecisionRetention != 7*24*time.Hour {
		t.Errorf("DecisionRetention = %v, want 168h", cfg.Worker.DecisionRetention)
	}
	if cfg.Worker.SweepCron != "@hourly" {
		t.Errorf("SweepCron = %q, want @hourly", cfg.Worker.SweepCron)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Worker: WorkerConfig{CoalesceWindow: time.Second, SweepCron: "@daily"}}
	cfg.ApplyDefaults()

	if cfg.Worker.CoalesceWindow != time.Second {
		t.Errorf("CoalesceWindow = %v, want 1s", cfg.Worker.CoalesceWindow)
	}
	if cfg.Worker.SweepCron != "@daily" {
		t.Errorf("SweepCron = %q, want @daily", cfg.Worker.SweepCron)
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("JWT_SECRET", "override")

	cfg := Config{DB: DBConfig{Host: "localhost", Port: 5432}}
	overrideFromEnv(&cfg)

	if cfg.DB.Host != "db.internal" {
		t.Errorf("DB.Host = %q, want db.internal", cfg.DB.Host)
	}
	if cfg.DB.Port != 6432 {
		t.Errorf("DB.Port = %d, want 6432", cfg.DB.Port)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.JWT.Secret != "override" {
		t.Errorf("JWT.Secret = %q, want override", cfg.JWT.Secret)
	}
}
