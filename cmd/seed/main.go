// Pageturn-Seed fills the sqlite collection with sample items.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-envconfig"

	"github.com/jdholdren/pageturn/internal/cursor"
	"github.com/jdholdren/pageturn/internal/migrations"
	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/sqlite"
	"github.com/jdholdren/pageturn/logger"
)

var categories = []string{"books", "games", "music", "tools", "garden"}

type config struct {
	Database string `env:"DATABASE, required"`
	Count    int    `env:"SEED_COUNT, default=100"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LoggerFormat, slog.LevelInfo))

	if err := run(ctx, cfg); err != nil {
		slog.Error("error seeding", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Database))
	if err != nil {
		return fmt.Errorf("error opening database: %s", err)
	}
	defer dbx.Close()

	if err := migrations.Run(dbx); err != nil {
		return fmt.Errorf("error migrating: %s", err)
	}

	// Seeding never hands out cursors, so any key will do
	codec, err := cursor.NewCodec(nil, nil)
	if err != nil {
		return err
	}
	repo := sqlite.New(dbx, codec, sqlite.Options{})

	items := sampleItems(cfg.Count, time.Now().UTC())
	if err := repo.InsertItems(ctx, items); err != nil {
		return err
	}

	slog.Info("seeded", "count", len(items))
	return nil
}

// sampleItems names items item_<n> and spreads them over the categories, a second apart.
func sampleItems(n int, now time.Time) []pageturn.Item {
	items := make([]pageturn.Item, 0, n)
	for i := range n {
		items = append(items, pageturn.Item{
			Name:      fmt.Sprintf("item_%d", i),
			Category:  categories[i%len(categories)],
			CreatedAt: now.Add(time.Duration(i-n) * time.Second),
		})
	}

	return items
}
