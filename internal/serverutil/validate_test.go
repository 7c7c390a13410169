package serverutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seyerrs "github.com/jdholdren/pageturn/internal/errors"
)

type testQuery struct {
	Page   string `query:"page" validate:"omitempty,number"`
	Last   string `query:"last" validate:"omitempty,boolean"`
	Before string `query:"before"`
	After  string `query:"after" validate:"excluded_with=Before"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	require.NoError(t, Validate(v, testQuery{Page: "2", Last: "true", After: "a"}))

	err := Validate(v, testQuery{Page: "two", Last: "maybe", Before: "b", After: "a"})
	require.Error(t, err)

	var seyerr *seyerrs.Error
	require.ErrorAs(t, err, &seyerr)
	assert.Equal(t, http.StatusBadRequest, seyerr.Status)
	assert.Equal(t, []seyerrs.Detail{
		{Field: "page", Error: "must be a number"},
		{Field: "last", Error: "must be true or false"},
		{Field: "after", Error: "cannot be combined with before"},
	}, seyerr.Details)
}
