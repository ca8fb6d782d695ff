// Package config loads engine settings from a YAML file and flag overrides.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/aretw0/lockstep/pkg/synchronizer"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "lockstep.yaml"

// Config holds every tunable of a run.
type Config struct {
	// MaxSteps caps each token walk. Zero uses |nodes|×L+1.
	MaxSteps int `mapstructure:"max_steps" yaml:"max_steps"`
	// SearchBound caps each pairwise congruence merge.
	SearchBound   int  `mapstructure:"search_bound" yaml:"search_bound"`
	Concurrency   int  `mapstructure:"concurrency" yaml:"concurrency"`
	StrictPeriods bool `mapstructure:"strict_periods" yaml:"strict_periods"`

	Single SingleConfig `mapstructure:"single" yaml:"single"`
	Multi  MultiConfig  `mapstructure:"multi" yaml:"multi"`
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// SingleConfig selects the start and goal of the single-goal mode.
type SingleConfig struct {
	Start string `mapstructure:"start" yaml:"start"`
	Goal  string `mapstructure:"goal" yaml:"goal"`
}

// MultiConfig selects starts and goals of the multi-goal mode by suffix.
type MultiConfig struct {
	StartSuffix string `mapstructure:"start_suffix" yaml:"start_suffix"`
	GoalSuffix  string `mapstructure:"goal_suffix" yaml:"goal_suffix"`
}

// CacheConfig configures the result store.
// RedisAddr wins over Dir. With neither set, results are kept in memory.
type CacheConfig struct {
	Dir           string        `mapstructure:"dir" yaml:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	Prefix        string        `mapstructure:"prefix" yaml:"prefix"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// EncryptionKey is a base64 AES-256 key. When set, cached reports are sealed.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for reading.
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
}

// Keys decodes the configured encryption keys. A nil active key means encryption is off.
func (c CacheConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		if len(c.FallbackKeys) > 0 {
			return nil, nil, errors.New("cache.fallback_keys requires cache.encryption_key")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("cache.encryption_key: %w", err)
	}
	for i, k := range c.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("cache.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		SearchBound: synchronizer.DefaultSearchBound,
		Concurrency: runtime.NumCPU(),
		Single:      SingleConfig{Start: "AAA", Goal: "ZZZ"},
		Multi:       MultiConfig{StartSuffix: "A", GoalSuffix: "Z"},
		Cache:       CacheConfig{Prefix: "lockstep:result:", TTL: 24 * time.Hour},
		LogLevel:    "info",
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Merge(raw); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Merge overlays values (nested maps keyed like the YAML file) onto c.
// Values are weakly typed so "1000" and "30s" decode into numbers and durations.
func (c *Config) Merge(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(values)
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.MaxSteps < 0:
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	case c.SearchBound < 0:
		return fmt.Errorf("search_bound must not be negative, got %d", c.SearchBound)
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	case c.Single.Start == "" || c.Single.Goal == "":
		return errors.New("single.start and single.goal are required")
	case c.Multi.StartSuffix == "" || c.Multi.GoalSuffix == "":
		return errors.New("multi.start_suffix and multi.goal_suffix are required")
	}
	if _, _, err := c.Cache.Keys(); err != nil {
		return err
	}
	return nil
}
