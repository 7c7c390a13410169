// Package sqlite is the SQLite backed item store.
package sqlite

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/pageturn/internal/cursor"
	"github.com/jdholdren/pageturn/internal/pageturn"
)

// Ensure Repo implements the ItemRepository interface
var _ pageturn.ItemRepository = Repo{}

const (
	defaultCountCacheSize = 1024
	defaultCountCacheTTL  = 5 * time.Second
)

// Options tunes the store. Zero values take the defaults.
type Options struct {
	// CountCacheSize is how many distinct searches keep a cached total.
	CountCacheSize int
	// CountCacheTTL is how long a cached total is trusted.
	CountCacheTTL time.Duration
}

type Repo struct {
	db     *sqlx.DB
	codec  cursor.Codec
	counts *expirable.LRU[string, int]
}

func New(db *sqlx.DB, codec cursor.Codec, opts Options) Repo {
	if opts.CountCacheSize <= 0 {
		opts.CountCacheSize = defaultCountCacheSize
	}
	if opts.CountCacheTTL <= 0 {
		opts.CountCacheTTL = defaultCountCacheTTL
	}

	return Repo{
		db:     db,
		codec:  codec,
		counts: expirable.NewLRU[string, int](opts.CountCacheSize, nil, opts.CountCacheTTL),
	}
}
