package paginate_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/pageturn/internal/paginate"
)

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestAssemble_FirstPage(t *testing.T) {
	var (
		req = paginate.Request{Page: 1, CurrentPage: 1, PageSize: 10}
		res = paginate.FetchResult[int]{
			CurrentPage: 1,
			After:       "tok10",
			PageCount:   10,
			NumPages:    2,
			Total:       14,
			Items:       seq(1, 10),
		}
		origin = paginate.Origin{Path: "/courses", Query: url.Values{}}
	)

	env, state := paginate.Assemble(req, res, origin)

	assert.Equal(t, paginate.Envelope[int]{
		Page:    1,
		HasMore: true,
		Links: paginate.Links{
			First: "/courses?page=1&currentPage=1&pageSize=10",
			Next:  "/courses?page=2&currentPage=1&pageSize=10&after=tok10",
			Last:  "/courses?page=2&currentPage=2&pageSize=10&last=true",
		},
		PageCount: 10,
		Total:     14,
		After:     "tok10",
		Data:      seq(1, 10),
	}, env)
	assert.Equal(t, paginate.State{CurrentPage: 1, After: "tok10"}, state)
}

func TestAssemble_SecondPage(t *testing.T) {
	var (
		req = paginate.Request{Page: 2, CurrentPage: 1, PageSize: 10, After: "tok10"}
		res = paginate.FetchResult[int]{
			CurrentPage: 2,
			Before:      "tok11",
			PageCount:   4,
			NumPages:    2,
			Total:       14,
			Items:       seq(11, 14),
		}
		origin = paginate.Origin{Path: "/courses", Query: url.Values{"page": {"2"}, "currentPage": {"1"}, "after": {"tok10"}}}
	)

	env, state := paginate.Assemble(req, res, origin)

	assert.Equal(t, 2, env.Page)
	assert.False(t, env.HasMore)
	assert.Equal(t, paginate.Links{
		First: "/courses?page=1&currentPage=1&pageSize=10",
		Prev:  "/courses?page=1&currentPage=2&pageSize=10&before=tok11",
		Last:  "/courses?page=2&currentPage=2&pageSize=10&last=true",
	}, env.Links)
	assert.Equal(t, 4, env.PageCount)
	assert.Equal(t, 14, env.Total)
	assert.Equal(t, "tok11", env.Before)
	assert.Empty(t, env.After)
	assert.Len(t, env.Data, 4)

	// The incoming after cursor carries forward since the fetch reported none
	assert.Equal(t, paginate.State{CurrentPage: 2, Before: "tok11", After: "tok10"}, state)
}

func TestAssemble_PreservesOtherParams(t *testing.T) {
	var (
		req    = paginate.Request{Page: 1, CurrentPage: 1, PageSize: 5}
		res    = paginate.FetchResult[int]{CurrentPage: 1, After: "a+b=", NumPages: 3}
		origin = paginate.Origin{Path: "/api/items", Query: url.Values{
			"sortBy":   {"name"},
			"category": {"books & more"},
			"page":     {"1"},
			"last":     {"false"},
		}}
	)

	env, _ := paginate.Assemble(req, res, origin)

	assert.Equal(t, "/api/items?page=1&currentPage=1&pageSize=5&category=books+%26+more&sortBy=name", env.Links.First)
	assert.Equal(t, "/api/items?page=2&currentPage=1&pageSize=5&after=a%2Bb%3D&category=books+%26+more&sortBy=name", env.Links.Next)
	assert.Equal(t, "/api/items?page=3&currentPage=3&pageSize=5&last=true&category=books+%26+more&sortBy=name", env.Links.Last)

	next, err := url.Parse(env.Links.Next)
	require.NoError(t, err)
	assert.Equal(t, "a+b=", next.Query().Get("after"), "tokens survive the round trip")
}

func TestAssemble_EmptyCollection(t *testing.T) {
	env, state := paginate.Assemble(
		paginate.Request{Page: 1, CurrentPage: 1, PageSize: 10},
		paginate.FetchResult[string]{CurrentPage: 1},
		paginate.Origin{Path: "/items"},
	)

	assert.False(t, env.HasMore)
	assert.Empty(t, env.Links.Prev)
	assert.Empty(t, env.Links.Next)
	assert.Equal(t, "/items?page=1&currentPage=1&pageSize=10&last=true", env.Links.Last)
	assert.NotNil(t, env.Data)
	assert.Equal(t, paginate.State{CurrentPage: 1}, state)

	byts, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"page": 1,
		"hasMore": false,
		"links": {"first": "/items?page=1&currentPage=1&pageSize=10", "last": "/items?page=1&currentPage=1&pageSize=10&last=true"},
		"pageCount": 0,
		"total": 0,
		"data": []
	}`, string(byts))
}

func TestAssemble_LinkInvariants(t *testing.T) {
	req := paginate.Request{Page: 1, CurrentPage: 1, PageSize: 10}

	for numPages := 0; numPages <= 5; numPages++ {
		for page := 1; page <= 6; page++ {
			res := paginate.FetchResult[int]{
				CurrentPage: page,
				Before:      "b",
				After:       "a",
				NumPages:    numPages,
			}

			env, _ := paginate.Assemble(req, res, paginate.Origin{Path: "/x"})

			assert.Equal(t, page < numPages, env.HasMore, "numPages=%d page=%d", numPages, page)
			assert.Equal(t, env.HasMore, env.Links.Next != "", "next follows hasMore: numPages=%d page=%d", numPages, page)
			assert.Equal(t, page > 1, env.Links.Prev != "", "numPages=%d page=%d", numPages, page)
			assert.NotEmpty(t, env.Links.First)
			assert.NotEmpty(t, env.Links.Last)
		}
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	var (
		query  = url.Values{"page": {"2"}, "name": {"x"}}
		origin = paginate.Origin{Path: "/items", Query: query}
		req    = paginate.Request{Page: 2, CurrentPage: 2, PageSize: 3}
		res    = paginate.FetchResult[int]{CurrentPage: 2, Before: "b", After: "a", PageCount: 3, NumPages: 4, Total: 11, Items: seq(4, 6)}
	)

	env1, state1 := paginate.Assemble(req, res, origin)
	env2, state2 := paginate.Assemble(req, res, origin)

	assert.Equal(t, env1, env2)
	assert.Equal(t, state1, state2)
	assert.Equal(t, url.Values{"page": {"2"}, "name": {"x"}}, query, "origin query is not mutated")
}

func TestState_Apply(t *testing.T) {
	q := url.Values{"page": {"3"}, "name": {"x"}}
	state := paginate.State{CurrentPage: 3, Before: "b", After: "a"}

	got := state.Apply(q)

	assert.Equal(t, url.Values{
		"page":        {"3"},
		"name":        {"x"},
		"currentPage": {"3"},
		"before":      {"b"},
		"after":       {"a"},
	}, got)
	assert.Equal(t, url.Values{"page": {"3"}, "name": {"x"}}, q)

	// Empty cursors leave existing values alone
	got = paginate.State{CurrentPage: 1}.Apply(url.Values{"after": {"old"}})
	assert.Equal(t, url.Values{"after": {"old"}, "currentPage": {"1"}}, got)
}
