package paginate

import "fmt"

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	// DefaultSortField is the tiebreaker that keeps cursor windows well defined.
	DefaultSortField = "_id"
)

// Config bounds the page sizes a request can resolve to.
//
// Build it once with [NewConfig] and share the value; nothing in this package mutates it.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

var defaultConfig = Config{
	DefaultPageSize: DefaultPageSize,
	MaxPageSize:     MaxPageSize,
}

// NewConfig layers the non-zero fields of overrides on top of the defaults.
func NewConfig(overrides Config) (Config, error) {
	if overrides.DefaultPageSize < 0 || overrides.MaxPageSize < 0 {
		return Config{}, fmt.Errorf("page sizes must not be negative: default=%d max=%d", overrides.DefaultPageSize, overrides.MaxPageSize)
	}

	cfg := defaultConfig
	if overrides.DefaultPageSize > 0 {
		cfg.DefaultPageSize = overrides.DefaultPageSize
	}
	if overrides.MaxPageSize > 0 {
		cfg.MaxPageSize = overrides.MaxPageSize
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		return Config{}, fmt.Errorf("default page size %d exceeds max page size %d", cfg.DefaultPageSize, cfg.MaxPageSize)
	}

	return cfg, nil
}

// orDefault lets a zero Config behave like the defaults.
func (c Config) orDefault() Config {
	if c == (Config{}) {
		return defaultConfig
	}
	return c
}
