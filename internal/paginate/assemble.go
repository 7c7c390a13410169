package paginate

import (
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
)

type (
	// FetchResult is what a fetch collaborator reports for one window.
	FetchResult[T any] struct {
		CurrentPage int    // The page actually served
		Before      string // Cursor of the first item, empty on the first page
		After       string // Cursor of the last item, empty on the last page
		PageCount   int    // Items in this page
		NumPages    int
		Total       int
		Items       []T
	}

	Links struct {
		First string `json:"first"`
		Prev  string `json:"prev,omitempty"`
		Next  string `json:"next,omitempty"`
		Last  string `json:"last"`
	}

	// Envelope is the response body for a page.
	Envelope[T any] struct {
		Page      int    `json:"page"`
		HasMore   bool   `json:"hasMore"`
		Links     Links  `json:"links"`
		PageCount int    `json:"pageCount"`
		Total     int    `json:"total"`
		Before    string `json:"before,omitempty"`
		After     string `json:"after,omitempty"`
		Data      []T    `json:"data"`
	}

	// State is what a follow up request needs to continue from the served page.
	State struct {
		CurrentPage int
		Before      string
		After       string
	}

	// Origin is the request the links are rebuilt from.
	Origin struct {
		Path  string
		Query url.Values
	}
)

// OriginFromURL captures the path and query of u.
func OriginFromURL(u *url.URL) Origin {
	return Origin{Path: u.Path, Query: u.Query()}
}

// Apply returns a copy of q carrying the state. q itself is left alone.
func (s State) Apply(q url.Values) url.Values {
	out := make(url.Values, len(q)+3)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}

	out.Set(ParamCurrentPage, strconv.Itoa(s.CurrentPage))
	if s.Before != "" {
		out.Set(ParamBefore, s.Before)
	}
	if s.After != "" {
		out.Set(ParamAfter, s.After)
	}

	return out
}

// Assemble builds the envelope for a fetched window and the state to continue from it.
//
// It depends on nothing but its arguments: the same inputs always give the same envelope.
func Assemble[T any](req Request, res FetchResult[T], origin Origin) (Envelope[T], State) {
	state := State{
		CurrentPage: res.CurrentPage,
		Before:      req.Before,
		After:       req.After,
	}
	if res.Before != "" {
		state.Before = res.Before
	}
	if res.After != "" {
		state.After = res.After
	}

	var (
		hasMore  = res.CurrentPage < res.NumPages
		lastPage = max(res.NumPages, 1)
		links    = Links{
			First: origin.link(linkParams{Page: 1, CurrentPage: 1, PageSize: req.PageSize}),
			Last:  origin.link(linkParams{Page: lastPage, CurrentPage: lastPage, PageSize: req.PageSize, Last: true}),
		}
	)
	if hasMore {
		links.Next = origin.link(linkParams{
			Page:        res.CurrentPage + 1,
			CurrentPage: res.CurrentPage,
			PageSize:    req.PageSize,
			After:       state.After,
		})
	}
	if res.CurrentPage > 1 {
		links.Prev = origin.link(linkParams{
			Page:        res.CurrentPage - 1,
			CurrentPage: res.CurrentPage,
			PageSize:    req.PageSize,
			Before:      state.Before,
		})
	}

	data := res.Items
	if data == nil {
		data = make([]T, 0)
	}

	return Envelope[T]{
		Page:      res.CurrentPage,
		HasMore:   hasMore,
		Links:     links,
		PageCount: res.PageCount,
		Total:     res.Total,
		Before:    res.Before,
		After:     res.After,
		Data:      data,
	}, state
}

// linkParams are the pagination parameters of a navigation link, in the order they are written.
type linkParams struct {
	Page        int    `url:"page"`
	CurrentPage int    `url:"currentPage"`
	PageSize    int    `url:"pageSize"`
	Before      string `url:"before,omitempty"`
	After       string `url:"after,omitempty"`
	Last        bool   `url:"last,omitempty"`
}

var linkParamOrder = []string{ParamPage, ParamCurrentPage, ParamPageSize, ParamBefore, ParamAfter, ParamLast}

// link writes the pagination parameters first, then whatever else the origin query carried.
func (o Origin) link(p linkParams) string {
	// Only fails for non-struct input.
	vals, _ := query.Values(p)

	var b strings.Builder
	b.WriteString(o.Path)
	b.WriteByte('?')

	sep := ""
	for _, key := range linkParamOrder {
		for _, v := range vals[key] {
			b.WriteString(sep)
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
			sep = "&"
		}
	}

	rest := maps.Clone(o.Query)
	for _, key := range linkParamOrder {
		delete(rest, key)
	}
	if enc := rest.Encode(); enc != "" {
		b.WriteString(sep)
		b.WriteString(enc)
	}

	return b.String()
}
