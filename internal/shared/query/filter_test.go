package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leadsync/internal/shared/constants"
)

func TestPageFilter_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageFilter
		want PageFilter
	}{
		{"defaults", PageFilter{}, PageFilter{Page: constants.DefaultPage, PerPage: constants.DefaultPageSize}},
		{"capped", PageFilter{Page: 3, PerPage: 1000}, PageFilter{Page: 3, PerPage: constants.MaxPageSize}},
		{"kept", PageFilter{Page: 2, PerPage: 25}, PageFilter{Page: 2, PerPage: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestPageFilter_HasMore(t *testing.T) {
	f := PageFilter{Page: 1, PerPage: 10}
	assert.True(t, f.HasMore(2))
	assert.False(t, f.Next().HasMore(2))
	assert.False(t, f.HasMore(0))
}

func TestNewBaseFilter(t *testing.T) {
	f := NewBaseFilter(WithPage(0, 0), WithSort("last_interaction_date", "DESC"))
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, constants.DefaultPageSize, f.PerPage)
	assert.Equal(t, "desc", f.Direction())

	f = NewBaseFilter(WithSort("id", "asc"))
	assert.Equal(t, "asc", f.Direction())
}
