// Pageturn-API serves the item collection one page at a time.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/pageturn/internal/api"
	"github.com/jdholdren/pageturn/internal/cursor"
	"github.com/jdholdren/pageturn/internal/migrations"
	"github.com/jdholdren/pageturn/internal/mongo"
	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/paginate"
	"github.com/jdholdren/pageturn/internal/sqlite"
	"github.com/jdholdren/pageturn/logger"
)

type config struct {
	Port    int    `env:"PORT, default=4444"`
	Backend string `env:"BACKEND, default=sqlite"`

	// Sqlite
	Database string `env:"DATABASE"`

	// Mongo
	MongoURI        string `env:"MONGO_URI"`
	MongoDatabase   string `env:"MONGO_DATABASE, default=pageturn"`
	MongoCollection string `env:"MONGO_COLLECTION, default=items"`

	DefaultPageSize int           `env:"DEFAULT_PAGE_SIZE, default=10"`
	MaxPageSize     int           `env:"MAX_PAGE_SIZE, default=50"`
	CountCacheSize  int           `env:"COUNT_CACHE_SIZE, default=1024"`
	CountCacheTTL   time.Duration `env:"COUNT_CACHE_TTL, default=5s"`

	// Left empty, tokens are signed with a per process key
	CursorHashKey  string `env:"CURSOR_HASH_KEY"`
	CursorBlockKey string `env:"CURSOR_BLOCK_KEY"`

	CorsOrigin string `env:"CORS_ORIGIN, default=*"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	Debug        bool   `env:"DEBUG, default=false"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LoggerFormat, level))

	if err := run(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	slog.Info("running", "port", cfg.Port, "backend", cfg.Backend)

	pageCfg, err := paginate.NewConfig(paginate.Config{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	})
	if err != nil {
		return fmt.Errorf("error configuring pagination: %s", err)
	}

	codec, err := cursor.NewCodec([]byte(cfg.CursorHashKey), []byte(cfg.CursorBlockKey))
	if err != nil {
		return err
	}
	if cfg.CursorHashKey == "" {
		slog.Warn("no cursor hash key set, cursors will not survive a restart")
	}

	repo, closeRepo, err := openRepo(ctx, cfg, codec)
	if err != nil {
		return err
	}
	defer closeRepo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := api.NewServer(api.ServerConfig{
		Port:       cfg.Port,
		CorsOrigin: cfg.CorsOrigin,
		Pagination: pageCfg,
	}, repo, reg)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Start the server
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error listening: %s", err)
		}

		return nil
	})
	g.Go(func() error {
		// Block from shutting down until the group is canceled
		<-gCtx.Done()

		downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(downCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("error running: %s", err)
	}

	return nil
}

// openRepo connects to the configured backend. The returned func releases it.
func openRepo(ctx context.Context, cfg config, codec cursor.Codec) (pageturn.ItemRepository, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		if cfg.Database == "" {
			return nil, nil, errors.New("DATABASE is required for the sqlite backend")
		}

		dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Database))
		if err != nil {
			return nil, nil, fmt.Errorf("error opening database: %s", err)
		}

		// Migrate, always
		if err := migrations.Run(dbx); err != nil {
			dbx.Close()
			return nil, nil, fmt.Errorf("error migrating: %s", err)
		}

		repo := sqlite.New(dbx, codec, sqlite.Options{
			CountCacheSize: cfg.CountCacheSize,
			CountCacheTTL:  cfg.CountCacheTTL,
		})
		return repo, func() { dbx.Close() }, nil

	case "mongo":
		if cfg.MongoURI == "" {
			return nil, nil, errors.New("MONGO_URI is required for the mongo backend")
		}

		client, err := mongodrv.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("error creating mongo client: %s", err)
		}

		// Retry until mongo is ready
		if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()

			if err := client.Ping(pingCtx, nil); err != nil {
				slog.Warn("mongo not ready", "error", err)
				return retry.RetryableError(err)
			}
			return nil
		}); err != nil {
			client.Disconnect(context.WithoutCancel(ctx))
			return nil, nil, fmt.Errorf("error reaching mongo: %s", err)
		}

		disconnect := func() {
			downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(downCtx); err != nil {
				slog.Error("error disconnecting from mongo", "error", err)
			}
		}

		repo := mongo.New(client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection), codec)
		if err := repo.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, nil, err
		}

		return repo, disconnect, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
