package cache

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy selects the store implementation.
type Strategy string

const (
	// StrategyLRU bounds the store by entry count.
	StrategyLRU Strategy = "lru"

	// StrategyTTL expires entries after a duration.
	StrategyTTL Strategy = "ttl"
)

// ExpirationNever is the configuration spelling of NoExpiration.
const ExpirationNever = "never"

// Config describes a store.
//
//	strategy: lru
//	capacity: 512
//	deepcopy: true
type Config struct {
	// Strategy is lru or ttl.
	Strategy Strategy `yaml:"strategy"`

	// Capacity is the maximum entry count. Required for lru.
	Capacity int `yaml:"capacity"`

	// Expiration is a Go duration string or "never". Empty means never.
	// Only used by ttl.
	Expiration string `yaml:"expiration"`

	// DeepCopy stores and returns independent copies of values.
	DeepCopy bool `yaml:"deepcopy"`
}

// DefaultConfig returns an LRU configuration holding 1024 entries.
func DefaultConfig() Config {
	return Config{
		Strategy: StrategyLRU,
		Capacity: 1024,
	}
}

// ExpirationTTL parses Expiration, mapping empty and "never" to
// NoExpiration.
func (c Config) ExpirationTTL() (time.Duration, error) {
	raw := strings.TrimSpace(c.Expiration)
	if raw == "" || strings.EqualFold(raw, ExpirationNever) {
		return NoExpiration, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: expiration %q: %v", ErrInvalidConfig, c.Expiration, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: expiration must be positive, got %s", ErrInvalidConfig, d)
	}
	return d, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyLRU:
		if c.Capacity <= 0 {
			return fmt.Errorf("%w: %w: got %d", ErrInvalidConfig, ErrInvalidCapacity, c.Capacity)
		}
	case StrategyTTL:
		if _, err := c.ExpirationTTL(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, c.Strategy)
	}
	return nil
}

// ParseConfig decodes a YAML store configuration over DefaultConfig and
// validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML store configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cache: read config: %w", err)
	}
	return ParseConfig(data)
}

// NewStore builds the store described by cfg. opts are applied after the
// options derived from cfg.
func NewStore(cfg Config, opts ...StoreOption) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []StoreOption{WithDeepCopy(cfg.DeepCopy)}

	switch cfg.Strategy {
	case StrategyTTL:
		ttl, err := cfg.ExpirationTTL()
		if err != nil {
			return nil, err
		}
		base = append(base, WithExpiration(ttl))
		return NewTTLStore(append(base, opts...)...), nil
	default:
		return NewLRUStore(cfg.Capacity, append(base, opts...)...)
	}
}
