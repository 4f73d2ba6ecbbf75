package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_FieldShapes(t *testing.T) {
	values, err := url.ParseQuery(
		"workflow=A&workflow=B&technician_id=05&technician_id=abc&technician_id=7.50" +
			"&action_needed=yes&unseen=true&search=ion" +
			"&creation_date_from=2024-01-01&creation_date_to=31.01.2024" +
			"&unseen_count_to=3&unseen_count_from=x" +
			"&tags=&unknown=1&group_title=MD",
	)
	require.NoError(t, err)

	set := Decode(values, DefaultSchema())

	assert.Equal(t, []string{"A", "B"}, set[FieldWorkflow])
	assert.Equal(t, []string{"5", "7.5"}, set[FieldTechnicianID])
	assert.NotContains(t, set, FieldActionNeeded, "non-literal boolean dropped")
	assert.Equal(t, "true", set[FieldUnseen])
	assert.Equal(t, "ion", set[FieldSearch])
	assert.Equal(t, Range{From: "2024-01-01"}, set[FieldCreationDate])
	assert.Equal(t, Range{To: "3"}, set[FieldUnseenCount])
	assert.NotContains(t, set, FieldTags, "list never decodes empty")
	assert.NotContains(t, set, "unknown")
	assert.Equal(t, "MD", set[FieldGroupTitle])
}

func TestDecode_Booleans(t *testing.T) {
	set := DecodeQuery("action_needed=false", DefaultSchema())
	assert.Equal(t, false, set[FieldActionNeeded])

	set = DecodeQuery("action_needed=true", DefaultSchema())
	assert.Equal(t, true, set[FieldActionNeeded])
}

func TestDecode_RangeBothInvalid(t *testing.T) {
	set := DecodeQuery("last_interaction_date_from=bad&last_interaction_date_to=2024-02-30", DefaultSchema())
	assert.NotContains(t, set, FieldLastInteractionDate)
}

func TestDecodeQuery_Malformed(t *testing.T) {
	set := DecodeQuery("workflow=A&%zz=1&priority=high", DefaultSchema())
	assert.Equal(t, []string{"A"}, set[FieldWorkflow])
	assert.Equal(t, []string{"high"}, set[FieldPriority])
}

func TestEncode(t *testing.T) {
	set := Set{
		FieldWorkflow:     []string{"A", "B"},
		FieldActionNeeded: false,
		FieldCreationDate: Range{From: "2024-01-01", To: "2024-01-31"},
		FieldUnseenCount:  Range{From: "1"},
		FieldSearch:       "",
		FieldPriority:     nil,
		FieldTags:         []string{},
	}

	values := Encode(set, DefaultSchema())

	assert.Equal(t, []string{"A", "B"}, values[FieldWorkflow])
	assert.Equal(t, "false", values.Get(FieldActionNeeded))
	assert.Equal(t, "2024-01-01", values.Get("creation_date_from"))
	assert.Equal(t, "2024-01-31", values.Get("creation_date_to"))
	assert.Equal(t, "1", values.Get("unseen_count_from"))
	assert.NotContains(t, values, "unseen_count_to")
	assert.NotContains(t, values, FieldSearch)
	assert.NotContains(t, values, FieldPriority)
	assert.NotContains(t, values, FieldTags)
}

func TestRoundTrip(t *testing.T) {
	schema := DefaultSchema()
	sets := []Set{
		{},
		{FieldWorkflow: []string{"Interesat"}, FieldSearch: ""},
		{
			FieldTechnicianID:        []string{"5", "12"},
			FieldTags:                []string{"vip", "b2b"},
			FieldLastMessageAuthor:   []string{"0"},
			FieldUnseen:              "false",
			FieldActionNeeded:        true,
			FieldLastInteractionDate: Range{To: "2024-05-01"},
			FieldUnseenCount:         Range{From: "2", To: "10"},
			FieldGroupTitle:          "MD",
			FieldView:                "kanban",
			FieldPlatform:            []string{},
			FieldPriority:            nil,
			FieldCreationDate:        Range{},
		},
	}

	for _, f := range sets {
		pruned := Prune(f)
		assert.Equal(t, pruned, Decode(Encode(pruned, schema), schema))
	}
}

func TestCanonical_OrderInsensitive(t *testing.T) {
	schema := DefaultSchema()
	a := Canonical(Set{FieldWorkflow: []string{"B", "A"}, FieldSearch: "x"}, schema)
	b := Canonical(Set{FieldSearch: "x", FieldWorkflow: []string{"A", "B"}}, schema)
	assert.Equal(t, a, b)
	assert.Equal(t, "search=x&workflow=A&workflow=B", a)
}

func TestEndToEnd_URLScenario(t *testing.T) {
	schema := DefaultSchema()
	set := DecodeQuery("workflow=A&workflow=B&technician_id=5&unseen=true", schema)

	assert.Equal(t, Set{
		FieldWorkflow:     []string{"A", "B"},
		FieldTechnicianID: []string{"5"},
		FieldUnseen:       "true",
	}, set)

	reencoded := Encode(set, schema)
	original, _ := url.ParseQuery("workflow=B&workflow=A&technician_id=5&unseen=true")
	assert.Equal(t, Canonical(Decode(original, schema), schema), Canonical(Decode(reencoded, schema), schema))
}
