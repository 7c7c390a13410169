package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/paginate"
)

var (
	// Fields that can be sorted on, by their public name.
	sortable = map[string]string{
		paginate.DefaultSortField: "id",
		"name":                    "name",
		"category":                "category",
		"createdAt":               "created_at",
	}

	// Search keys and the column they filter.
	searchable = map[string]string{
		pageturn.SearchName:     "name",
		pageturn.SearchCategory: "category",
	}

	itemColumns = []string{"id", "name", "category", "created_at"}
)

type column struct {
	name string
	dir  paginate.Direction
}

// Fetch serves the window described by req.
func (r Repo) Fetch(ctx context.Context, req paginate.Request) (paginate.FetchResult[pageturn.Item], error) {
	cols, err := sortColumns(req.Sort)
	if err != nil {
		return paginate.FetchResult[pageturn.Item]{}, err
	}
	where, err := searchFilter(req.Search)
	if err != nil {
		return paginate.FetchResult[pageturn.Item]{}, err
	}

	total, err := r.count(ctx, req.Search, where)
	if err != nil {
		return paginate.FetchResult[pageturn.Item]{}, err
	}

	w := req.Plan(total)
	slog.DebugContext(ctx, "fetching window", "strategy", w.Strategy.String(), "page", w.Page, "total", total)

	items, err := r.window(ctx, req, w, cols, where)
	if err != nil {
		return paginate.FetchResult[pageturn.Item]{}, err
	}

	res := paginate.FetchResult[pageturn.Item]{
		CurrentPage: w.Page,
		PageCount:   len(items),
		NumPages:    w.NumPages,
		Total:       total,
		Items:       items,
	}
	if len(items) == 0 {
		return res, nil
	}
	if w.HasBefore() {
		if res.Before, err = r.codec.Encode(items[0].ID); err != nil {
			return paginate.FetchResult[pageturn.Item]{}, err
		}
	}
	if w.HasAfter() {
		if res.After, err = r.codec.Encode(items[len(items)-1].ID); err != nil {
			return paginate.FetchResult[pageturn.Item]{}, err
		}
	}

	return res, nil
}

func (r Repo) window(ctx context.Context, req paginate.Request, w paginate.Window, cols []column, where sq.And) ([]pageturn.Item, error) {
	if w.Strategy != paginate.StrategyAfter && w.Strategy != paginate.StrategyBefore {
		return r.selectItems(ctx, where, cols, w.Offset(req.PageSize), req.PageSize, false)
	}

	forward := w.Strategy == paginate.StrategyAfter
	token := req.After
	if !forward {
		token = req.Before
	}

	id, err := r.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	boundary, err := r.Item(ctx, id)
	if errors.Is(err, pageturn.ErrNotFound) {
		// The cursor item is gone, so locate the page by position instead
		slog.DebugContext(ctx, "cursor item missing, using offset", "id", id)
		return r.selectItems(ctx, where, cols, w.Offset(req.PageSize), req.PageSize, false)
	}
	if err != nil {
		return nil, err
	}

	items, err := r.selectItems(ctx, append(where, keyset(cols, boundary, forward)), cols, 0, req.PageSize, !forward)
	if err != nil {
		return nil, err
	}
	if !forward {
		slices.Reverse(items)
	}

	return items, nil
}

func (r Repo) selectItems(ctx context.Context, where sq.And, cols []column, offset, limit int, reverse bool) ([]pageturn.Item, error) {
	q := sq.Select(itemColumns...).
		From("items").
		Where(where).
		OrderBy(orderBy(cols, reverse)...).
		Limit(uint64(limit))
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	items := []pageturn.Item{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching items: %s", err)
	}

	return items, nil
}

// count returns the number of items matching the search, cached per search for a short while.
func (r Repo) count(ctx context.Context, search paginate.Search, where sq.And) (int, error) {
	byts, err := json.Marshal(search)
	if err != nil {
		return 0, fmt.Errorf("error keying count: %s", err)
	}
	key := string(byts)

	if n, ok := r.counts.Get(key); ok {
		slog.DebugContext(ctx, "count cache hit", "search", key)
		return n, nil
	}

	query, args, err := sq.Select("COUNT(*)").From("items").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %s", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("error counting items: %s", err)
	}
	r.counts.Add(key, n)

	return n, nil
}

// sortColumns maps the sort onto columns, with the id as the final tiebreaker.
func sortColumns(s paginate.Sort) ([]column, error) {
	s = s.WithTiebreaker(paginate.DefaultSortField)

	cols := make([]column, 0, len(s))
	for _, f := range s {
		name, ok := sortable[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: cannot sort by %q", pageturn.ErrUnknownField, f.Name)
		}
		cols = append(cols, column{name: name, dir: f.Direction})
	}

	return cols, nil
}

func searchFilter(s paginate.Search) (sq.And, error) {
	where := sq.And{}
	for _, key := range slices.Sorted(maps.Keys(s)) {
		col, ok := searchable[key]
		if !ok {
			return nil, fmt.Errorf("%w: cannot search by %q", pageturn.ErrUnknownField, key)
		}
		where = append(where, sq.Eq{col: s[key]})
	}

	return where, nil
}

func orderBy(cols []column, reverse bool) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		dir := c.dir
		if reverse {
			dir = dir.Reverse()
		}

		if dir == paginate.Descending {
			out = append(out, c.name+" DESC")
		} else {
			out = append(out, c.name+" ASC")
		}
	}

	return out
}

// keyset matches the items strictly beyond boundary in the sort order, or strictly before it
// when reading backwards. Each term pins the preceding columns to the boundary's values:
//
//	(a > ?) OR (a = ? AND b < ?) OR (a = ? AND b = ? AND id > ?)
func keyset(cols []column, boundary pageturn.Item, forward bool) sq.Or {
	or := make(sq.Or, 0, len(cols))
	for i, c := range cols {
		term := make(sq.And, 0, i+1)
		for _, prev := range cols[:i] {
			term = append(term, sq.Eq{prev.name: valueOf(boundary, prev.name)})
		}

		if (c.dir == paginate.Ascending) == forward {
			term = append(term, sq.Gt{c.name: valueOf(boundary, c.name)})
		} else {
			term = append(term, sq.Lt{c.name: valueOf(boundary, c.name)})
		}
		or = append(or, term)
	}

	return or
}

func valueOf(item pageturn.Item, col string) any {
	switch col {
	case "name":
		return item.Name
	case "category":
		return item.Category
	case "created_at":
		return item.CreatedAt
	default:
		return item.ID
	}
}
