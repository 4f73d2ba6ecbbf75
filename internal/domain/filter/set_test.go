package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrune(t *testing.T) {
	set := Set{
		"a": nil,
		"b": "",
		"c": []string{},
		"d": Range{},
		"e": map[string]any{},
		"f": false,
		"g": []string{"x"},
		"h": Range{To: "1"},
	}
	assert.Equal(t, Set{"f": false, "g": []string{"x"}, "h": Range{To: "1"}}, Prune(set))
}

func TestHasActiveFilters(t *testing.T) {
	assert.False(t, HasActiveFilters(Set{}))
	assert.False(t, HasActiveFilters(Set{FieldView: "list", FieldType: "light", FieldGroupTitle: "MD"}))
	assert.False(t, HasActiveFilters(Set{FieldWorkflow: []string{}, FieldSearch: ""}))
	assert.True(t, HasActiveFilters(Set{FieldGroupTitle: "MD", FieldTags: []string{"vip"}}))
	assert.True(t, HasActiveFilters(Set{FieldActionNeeded: false}))
}

func TestSet_Accessors(t *testing.T) {
	s := Set{"l": []string{"a"}, "s": "x", "b": true, "r": Range{From: "1"}, "e": Range{}}

	assert.Equal(t, []string{"a"}, s.Strings("l"))
	assert.Equal(t, []string{"x"}, s.Strings("s"))
	assert.Nil(t, s.Strings("missing"))
	assert.Equal(t, "x", s.Scalar("s"))

	v, ok := s.Bool("b")
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = s.Range("e")
	assert.False(t, ok)
	r, ok := s.Range("r")
	assert.True(t, ok)
	assert.Equal(t, "1", r.From)

	c := s.Without("s")
	c.Strings("l")[0] = "z"
	assert.Equal(t, "a", s.Strings("l")[0])
	assert.NotContains(t, c, "s")
}
