// Package mongo is the MongoDB backed item store. It serves the same windows as the sqlite store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jdholdren/pageturn/internal/cursor"
	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/paginate"
)

// Ensure Repo implements the ItemRepository interface
var _ pageturn.ItemRepository = Repo{}

var (
	sortable = map[string]string{
		paginate.DefaultSortField: "_id",
		"name":                    "name",
		"category":                "category",
		"createdAt":               "created_at",
	}

	searchable = map[string]string{
		pageturn.SearchName:     "name",
		pageturn.SearchCategory: "category",
	}
)

type field struct {
	name string
	dir  paginate.Direction
}

type Repo struct {
	coll  *mongo.Collection
	codec cursor.Codec
}

func New(coll *mongo.Collection, codec cursor.Codec) Repo {
	return Repo{coll: coll, codec: codec}
}

// EnsureIndexes creates the compound indexes the sortable fields page over.
func (r Repo) EnsureIndexes(ctx context.Context) error {
	models := make([]mongo.IndexModel, 0, len(sortable)-1)
	for _, name := range []string{"name", "category", "created_at"} {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: name, Value: 1}, {Key: "_id", Value: 1}},
		})
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}

	return nil
}

func (r Repo) Item(ctx context.Context, id string) (pageturn.Item, error) {
	var item pageturn.Item
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return pageturn.Item{}, pageturn.ErrNotFound
	}
	if err != nil {
		return pageturn.Item{}, fmt.Errorf("error fetching item: %w", err)
	}

	return item, nil
}

func (r Repo) InsertItems(ctx context.Context, items []pageturn.Item) error {
	if len(items) == 0 {
		return nil
	}

	// Mongo keeps milliseconds, so stamp with what will be read back
	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("error generating item id: %w", err)
			}
			items[i].ID = id.String()
		}
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
		docs = append(docs, items[i])
	}

	_, err := r.coll.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("item already exists: %w", pageturn.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("error inserting items: %w", err)
	}

	return nil
}

// Fetch serves the window described by req.
func (r Repo) Fetch(ctx context.Context, req paginate.Request) (paginate.FetchResult[pageturn.Item], error) {
	fields, err := sortFields(req.Sort)
	if err != nil {
		return paginate.FetchResult[pageturn.Item]{}, err
	}
	filter, err := searchFilter(req.Search)
	if err != nil {
		return paginate.FetchResult[pageturn.Item]{}, err
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return paginate.FetchResult[pageturn.Item]{}, fmt.Errorf("error counting items: %w", err)
	}

	w := req.Plan(int(total))
	slog.DebugContext(ctx, "fetching window", "strategy", w.Strategy.String(), "page", w.Page, "total", total)

	items, err := r.window(ctx, req, w, fields, filter)
	if err != nil {
		return paginate.FetchResult[pageturn.Item]{}, err
	}

	res := paginate.FetchResult[pageturn.Item]{
		CurrentPage: w.Page,
		PageCount:   len(items),
		NumPages:    w.NumPages,
		Total:       int(total),
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

func (r Repo) window(ctx context.Context, req paginate.Request, w paginate.Window, fields []field, filter bson.D) ([]pageturn.Item, error) {
	opts := options.Find().SetLimit(int64(req.PageSize))

	if w.Strategy != paginate.StrategyAfter && w.Strategy != paginate.StrategyBefore {
		opts.SetSort(sortDoc(fields, false)).SetSkip(int64(w.Offset(req.PageSize)))
		return r.find(ctx, filter, opts)
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
		slog.DebugContext(ctx, "cursor item missing, using offset", "id", id)
		opts.SetSort(sortDoc(fields, false)).SetSkip(int64(w.Offset(req.PageSize)))
		return r.find(ctx, filter, opts)
	}
	if err != nil {
		return nil, err
	}

	opts.SetSort(sortDoc(fields, !forward))
	items, err := r.find(ctx, and(filter, keyset(fields, boundary, forward)), opts)
	if err != nil {
		return nil, err
	}
	if !forward {
		slices.Reverse(items)
	}

	return items, nil
}

func (r Repo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]pageturn.Item, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching items: %w", err)
	}
	defer cur.Close(ctx)

	items := []pageturn.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("error decoding items: %w", err)
	}

	return items, nil
}

// sortFields maps the sort onto document fields, with _id as the final tiebreaker.
func sortFields(s paginate.Sort) ([]field, error) {
	s = s.WithTiebreaker(paginate.DefaultSortField)

	fields := make([]field, 0, len(s))
	for _, f := range s {
		name, ok := sortable[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: cannot sort by %q", pageturn.ErrUnknownField, f.Name)
		}
		fields = append(fields, field{name: name, dir: f.Direction})
	}

	return fields, nil
}

func searchFilter(s paginate.Search) (bson.D, error) {
	filter := bson.D{}
	for _, key := range slices.Sorted(maps.Keys(s)) {
		name, ok := searchable[key]
		if !ok {
			return nil, fmt.Errorf("%w: cannot search by %q", pageturn.ErrUnknownField, key)
		}
		filter = append(filter, bson.E{Key: name, Value: s[key]})
	}

	return filter, nil
}

func sortDoc(fields []field, reverse bool) bson.D {
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := f.dir
		if reverse {
			dir = dir.Reverse()
		}
		doc = append(doc, bson.E{Key: f.name, Value: int(dir)})
	}

	return doc
}

// keyset matches the documents strictly beyond boundary in the sort order, or strictly before it
// when reading backwards.
func keyset(fields []field, boundary pageturn.Item, forward bool) bson.D {
	or := make(bson.A, 0, len(fields))
	for i, f := range fields {
		term := make(bson.D, 0, i+1)
		for _, prev := range fields[:i] {
			term = append(term, bson.E{Key: prev.name, Value: valueOf(boundary, prev.name)})
		}

		op := "$lt"
		if (f.dir == paginate.Ascending) == forward {
			op = "$gt"
		}
		term = append(term, bson.E{Key: f.name, Value: bson.D{{Key: op, Value: valueOf(boundary, f.name)}}})
		or = append(or, term)
	}

	return bson.D{{Key: "$or", Value: or}}
}

func and(filter, cond bson.D) bson.D {
	if len(filter) == 0 {
		return cond
	}
	return bson.D{{Key: "$and", Value: bson.A{filter, cond}}}
}

func valueOf(item pageturn.Item, name string) any {
	switch name {
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
