package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"

	"github.com/jdholdren/pageturn/internal/pageturn"
)

// Batches stay well under sqlite's bound parameter limit.
const insertBatchSize = 200

// Extended result codes for a duplicate id.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

func (r Repo) Item(ctx context.Context, id string) (pageturn.Item, error) {
	const q = `SELECT id, name, category, created_at FROM items WHERE id = ?;`

	var item pageturn.Item
	err := r.db.GetContext(ctx, &item, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return pageturn.Item{}, pageturn.ErrNotFound
	}
	if err != nil {
		return pageturn.Item{}, fmt.Errorf("error fetching item: %s", err)
	}

	return item, nil
}

// InsertItems stores the items in batches. Items without an id get a UUIDv7, so ids sort by
// creation time; items without a creation time are stamped now.
func (r Repo) InsertItems(ctx context.Context, items []pageturn.Item) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("error generating item id: %s", err)
			}
			items[i].ID = id.String()
		}
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
		items[i].CreatedAt = items[i].CreatedAt.UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO items (id, name, category, created_at)
	VALUES (:id, :name, :category, :created_at);`
	for start := 0; start < len(items); start += insertBatchSize {
		batch := items[start:min(start+insertBatchSize, len(items))]

		_, err := tx.NamedExecContext(ctx, q, batch)
		if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) && isDuplicate(sqliteErr.Code()) {
			return fmt.Errorf("item already exists: %w", pageturn.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("error inserting items: %s", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing items: %s", err)
	}

	r.counts.Purge()
	return nil
}

func isDuplicate(code int) bool {
	return code == sqliteConstraintPrimaryKey || code == sqliteConstraintUnique
}
