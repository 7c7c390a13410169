// Package pageturn holds the domain types shared by the item stores and the API.
package pageturn

import (
	"context"
	"errors"
	"time"

	"github.com/jdholdren/pageturn/internal/paginate"
)

var (
	ErrConflict = errors.New("resource already exists")
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCursor is returned when a before or after token cannot be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrUnknownField is returned for sort or search fields a store does not expose.
	ErrUnknownField = errors.New("unknown field")
)

// Search keys understood by every [ItemRepository].
const (
	SearchName     = "name"
	SearchCategory = "category"
)

type (
	Item struct {
		ID        string    `db:"id" bson:"_id" json:"id"`
		Name      string    `db:"name" bson:"name" json:"name"`
		Category  string    `db:"category" bson:"category" json:"category"`
		CreatedAt time.Time `db:"created_at" bson:"created_at" json:"createdAt"`
	}

	ItemRepository interface {
		paginate.Fetcher[Item]

		Item(ctx context.Context, id string) (Item, error)
		// InsertItems stores the items, assigning ids to those without one.
		InsertItems(ctx context.Context, items []Item) error
	}
)
