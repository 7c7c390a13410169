package paginate

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	seyerrs "github.com/jdholdren/pageturn/internal/errors"
)

// Query parameter names understood by [Resolve].
const (
	ParamPage          = "page"
	ParamCurrentPage   = "currentPage"
	ParamPageSize      = "pageSize"
	ParamBefore        = "before"
	ParamAfter         = "after"
	ParamLast          = "last"
	ParamSortBy        = "sortBy"
	ParamSortDirection = "sortDirection"
)

var (
	// ErrInvalidInput is wrapped by every client input failure.
	ErrInvalidInput = errors.New("invalid pagination parameters")
	// ErrUnprocessable is wrapped by every failure reported by a fetch collaborator.
	ErrUnprocessable = errors.New("unprocessable data")
)

type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	return strconv.Itoa(int(d))
}

// Reverse flips the direction, used when reading a window backwards.
func (d Direction) Reverse() Direction {
	return -d
}

func parseDirection(s string) (Direction, bool) {
	switch strings.TrimSpace(s) {
	case "", "1":
		return Ascending, true
	case "-1":
		return Descending, true
	default:
		return 0, false
	}
}

type (
	SortField struct {
		Name      string
		Direction Direction
	}

	// Sort is an ordered list of fields, highest priority first.
	Sort []SortField

	// Search is an opaque filter handed to the fetch collaborator untouched.
	Search map[string]any
)

// WithTiebreaker returns the sort with field appended ascending, unless it is already present.
func (s Sort) WithTiebreaker(field string) Sort {
	for _, f := range s {
		if f.Name == field {
			return s
		}
	}

	out := make(Sort, 0, len(s)+1)
	out = append(out, s...)
	return append(out, SortField{Name: field, Direction: Ascending})
}

// Request is the canonical form of a page request. Treat it as a value.
type Request struct {
	Page        int
	CurrentPage int
	PageSize    int
	Sort        Sort
	Before      string
	After       string
	Last        bool
	Search      Search
}

// Offset is the number of items preceding the requested page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Resolve turns raw query parameters into a [Request].
//
// Page sizes are clamped to the configured bounds and never rejected. Page numbers below one and
// sort directions outside {1, -1} are rejected with a 400 wrapping [ErrInvalidInput].
func Resolve(q url.Values, cfg Config) (Request, error) {
	cfg = cfg.orDefault()

	var (
		details []seyerrs.Detail
		req     = Request{
			Page:     1,
			PageSize: cfg.DefaultPageSize,
			Search:   Search{},
		}
	)

	if n, ok := intParam(q, ParamPage); ok {
		if n < 1 {
			details = append(details, seyerrs.Detail{Field: ParamPage, Error: "must be at least 1"})
		} else {
			req.Page = n
		}
	}

	req.CurrentPage = req.Page
	if n, ok := intParam(q, ParamCurrentPage); ok {
		if n < 1 {
			details = append(details, seyerrs.Detail{Field: ParamCurrentPage, Error: "must be at least 1"})
		} else {
			req.CurrentPage = n
		}
	}

	if n, ok := intParam(q, ParamPageSize); ok && n >= 1 {
		req.PageSize = min(n, cfg.MaxPageSize)
	}

	sort, sortDetails := parseSort(q.Get(ParamSortBy), q.Get(ParamSortDirection))
	details = append(details, sortDetails...)
	req.Sort = sort

	req.Before = q.Get(ParamBefore)
	req.After = q.Get(ParamAfter)

	if raw := q.Get(ParamLast); raw != "" {
		last, err := strconv.ParseBool(raw)
		if err != nil {
			details = append(details, seyerrs.Detail{Field: ParamLast, Error: "must be true or false"})
		}
		req.Last = last
	}

	if len(details) > 0 {
		return Request{}, seyerrs.E(ErrInvalidInput, http.StatusBadRequest, details)
	}

	return req, nil
}

// intParam reads key as an integer. Absent and non-numeric values report false.
func intParam(q url.Values, key string) (int, bool) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, false
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return n, true
}

// parseSort zips the comma separated field list with the direction list by position.
// Fields without a matching direction sort ascending.
func parseSort(sortBy, sortDirection string) (Sort, []seyerrs.Detail) {
	var (
		details    []seyerrs.Detail
		directions []Direction
	)
	if sortDirection != "" {
		for _, raw := range strings.Split(sortDirection, ",") {
			d, ok := parseDirection(raw)
			if !ok {
				details = append(details, seyerrs.Detail{
					Field: ParamSortDirection,
					Error: "must be a comma separated list of 1 or -1, got " + strconv.Quote(strings.TrimSpace(raw)),
				})
				continue
			}
			directions = append(directions, d)
		}
	}

	var (
		fields = strings.Split(sortBy, ",")
		sort   = make(Sort, 0, len(fields))
		seen   = make(map[string]bool, len(fields))
	)
	for i, raw := range fields {
		// A blank entry still holds its position in the direction list
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if seen[name] {
			details = append(details, seyerrs.Detail{Field: ParamSortBy, Error: strconv.Quote(name) + " is listed more than once"})
			continue
		}
		seen[name] = true

		sort = append(sort, SortField{Name: name, Direction: directionAt(directions, i)})
	}
	if len(sort) == 0 {
		sort = append(sort, SortField{Name: DefaultSortField, Direction: directionAt(directions, 0)})
	}

	return sort, details
}

func directionAt(directions []Direction, i int) Direction {
	if i < len(directions) {
		return directions[i]
	}
	return Ascending
}
