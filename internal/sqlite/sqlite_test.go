package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/pageturn/internal/cursor"
	"github.com/jdholdren/pageturn/internal/migrations"
	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/paginate"
)

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) Repo {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Run(db))

	codec, err := cursor.NewCodec(nil, nil)
	require.NoError(t, err)

	return New(db, codec, Options{})
}

// seedItems inserts n items with ids id-01..id-nn, alternating between two categories.
func seedItems(t *testing.T, r Repo, n int) []pageturn.Item {
	t.Helper()

	items := make([]pageturn.Item, 0, n)
	for i := 1; i <= n; i++ {
		category := "games"
		if i%2 == 1 {
			category = "books"
		}
		items = append(items, pageturn.Item{
			ID:        fmt.Sprintf("id-%02d", i),
			Name:      fmt.Sprintf("item_%02d", i),
			Category:  category,
			CreatedAt: testEpoch.Add(time.Duration(i) * time.Minute),
		})
	}

	require.NoError(t, r.InsertItems(context.Background(), items))
	return items
}

// page runs a full pagination round trip for link against the repo.
func page(t *testing.T, r Repo, link string, search paginate.Search) paginate.Result[pageturn.Item] {
	t.Helper()

	u, err := url.Parse(link)
	require.NoError(t, err)

	res, err := paginate.Paginate[pageturn.Item](context.Background(), paginate.Config{}, paginate.OriginFromURL(u), search, r)
	require.NoError(t, err)
	return res
}

func ids(items []pageturn.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
