package api

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/paginate"
)

// listQuery is the accepted shape of a listing's query string. Values stay raw so
// [paginate.Resolve] does the interpreting; this only rejects what is malformed.
type listQuery struct {
	Page          string `query:"page" validate:"omitempty,number"`
	CurrentPage   string `query:"currentPage" validate:"omitempty,number"`
	PageSize      string `query:"pageSize" validate:"omitempty,number"`
	SortBy        string `query:"sortBy"`
	SortDirection string `query:"sortDirection" validate:"omitempty,sortdirections"`
	Before        string `query:"before"`
	After         string `query:"after" validate:"excluded_with=Before"`
	Last          string `query:"last" validate:"omitempty,boolean"`

	Name     string `query:"name" validate:"omitempty,max=200"`
	Category string `query:"category" validate:"omitempty,max=200"`
}

func newListQuery(q url.Values) listQuery {
	return listQuery{
		Page:          q.Get(paginate.ParamPage),
		CurrentPage:   q.Get(paginate.ParamCurrentPage),
		PageSize:      q.Get(paginate.ParamPageSize),
		SortBy:        q.Get(paginate.ParamSortBy),
		SortDirection: q.Get(paginate.ParamSortDirection),
		Before:        q.Get(paginate.ParamBefore),
		After:         q.Get(paginate.ParamAfter),
		Last:          q.Get(paginate.ParamLast),
		Name:          q.Get(pageturn.SearchName),
		Category:      q.Get(pageturn.SearchCategory),
	}
}

// search holds the filters that were actually sent.
func (q listQuery) search() paginate.Search {
	s := paginate.Search{}
	if q.Name != "" {
		s[pageturn.SearchName] = q.Name
	}
	if q.Category != "" {
		s[pageturn.SearchCategory] = q.Category
	}

	return s
}

func registerValidations(v *validator.Validate) error {
	return v.RegisterValidation("sortdirections", func(fl validator.FieldLevel) bool {
		for _, d := range strings.Split(fl.Field().String(), ",") {
			switch strings.TrimSpace(d) {
			case "", "1", "-1":
			default:
				return false
			}
		}
		return true
	})
}
