// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

// Package config loads the AMAS decision engine's configuration, layering
// defaults, an optional YAML file, and environment variable overrides via
// koanf.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the search path for the YAML config file.
const ConfigPathEnvVar = "AMAS_CONFIG_PATH"

// DefaultConfigPaths lists search paths in priority order.
var DefaultConfigPaths = []string{
	"amas.yaml",
	"amas.yml",
	"/etc/amas/amas.yaml",
}

// LearnerFlags toggles which ensemble members participate, per spec.md §6.
type LearnerFlags struct {
	EnableEnsemble          bool `koanf:"enable_ensemble"`
	EnableColdStartManager  bool `koanf:"enable_coldstart_manager"`
	EnableThompsonSampling  bool `koanf:"enable_thompson_sampling"`
	EnableACTRMemory        bool `koanf:"enable_actr_memory"`
	EnableHeuristicBaseline bool `koanf:"enable_heuristic_baseline"`
	EnableTrendAnalyzer     bool `koanf:"enable_trend_analyzer"`
	EnableUserParamsManager bool `koanf:"enable_user_params_manager"`
}

// OrchestratorConfig holds the timing and resilience knobs of §4.8/§5.
type OrchestratorConfig struct {
	DecisionTimeout time.Duration `koanf:"decision_timeout"`
	LockTimeout     time.Duration `koanf:"lock_timeout"`

	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
	BreakerMinRequests uint32        `koanf:"breaker_min_requests"`
	BreakerFailRatio   float64       `koanf:"breaker_fail_ratio"`

	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
	RateBurst          int     `koanf:"rate_burst"`
}

// ArenaConfig bounds the per-user in-memory model arena, per §5.
type ArenaConfig struct {
	MaxUsers int           `koanf:"max_users"`
	UserTTL  time.Duration `koanf:"user_ttl"`
	SweepEvery time.Duration `koanf:"sweep_every"`
}

// LinUCBConfig is the bandit's tunable parameters, per §4.3.
type LinUCBConfig struct {
	Lambda float64 `koanf:"lambda"`
}

// StorageConfig points at the BadgerDB data directory backing StateRepo
// and ModelRepo.
type StorageConfig struct {
	BadgerDir string `koanf:"badger_dir"`
}

// Config is the AMAS engine's top-level configuration.
type Config struct {
	Learners     LearnerFlags       `koanf:"learners"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Arena        ArenaConfig        `koanf:"arena"`
	LinUCB       LinUCBConfig       `koanf:"linucb"`
	Storage      StorageConfig      `koanf:"storage"`
	LogLevel     string             `koanf:"log_level"`
	LogFormat    string             `koanf:"log_format"`
}

// DefaultConfig returns sensible defaults, applied before any file/env
// override layer.
func DefaultConfig() *Config {
	return &Config{
		Learners: LearnerFlags{
			EnableEnsemble:          true,
			EnableColdStartManager:  true,
			EnableThompsonSampling:  true,
			EnableACTRMemory:        true,
			EnableHeuristicBaseline: true,
			EnableTrendAnalyzer:     true,
			EnableUserParamsManager: true,
		},
		Orchestrator: OrchestratorConfig{
			DecisionTimeout:    100 * time.Millisecond,
			LockTimeout:        30 * time.Second,
			BreakerMaxRequests: 3,
			BreakerInterval:    time.Minute,
			BreakerTimeout:     2 * time.Minute,
			BreakerMinRequests: 10,
			BreakerFailRatio:   0.6,
			RateLimitPerSecond: 500,
			RateBurst:          100,
		},
		Arena: ArenaConfig{
			MaxUsers:   10000,
			UserTTL:    7 * 24 * time.Hour,
			SweepEvery: 10 * time.Minute,
		},
		LinUCB: LinUCBConfig{Lambda: 1e-3},
		Storage: StorageConfig{BadgerDir: "/data/amas/badger"},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load layers defaults, an optional YAML file, and AMAS_-prefixed
// environment variables, in that order of increasing precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("AMAS_", ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// envTransform converts AMAS_ORCHESTRATOR_LOCK_TIMEOUT into
// orchestrator.lock_timeout.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "AMAS_"))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	return parts[0] + "." + parts[1]
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate enforces the bounds the orchestrator and arena rely on.
func (c *Config) Validate() error {
	if c.Orchestrator.DecisionTimeout <= 0 {
		return fmt.Errorf("orchestrator.decision_timeout must be positive")
	}
	if c.Orchestrator.LockTimeout <= 0 {
		return fmt.Errorf("orchestrator.lock_timeout must be positive")
	}
	if c.Arena.MaxUsers <= 0 {
		return fmt.Errorf("arena.max_users must be positive")
	}
	if c.LinUCB.Lambda <= 0 {
		return fmt.Errorf("linucb.lambda must be positive")
	}
	return nil
}
