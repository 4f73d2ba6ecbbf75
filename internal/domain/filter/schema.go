// Package filter maps ticket filter sets to and from URL query strings and
// evaluates them against tickets.
package filter

// Kind is the shape of one filter field.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindList
	KindNumericList
	KindDateRange
	KindNumberRange
)

// Field keys of the ticket filter.
const (
	FieldWorkflow            = "workflow"
	FieldPriority            = "priority"
	FieldTechnicianID        = "technician_id"
	FieldTags                = "tags"
	FieldPlatform            = "platform"
	FieldLastMessageAuthor   = "last_message_author"
	FieldSearch              = "search"
	FieldUnseen              = "unseen"
	FieldActionNeeded        = "action_needed"
	FieldCreationDate        = "creation_date"
	FieldLastInteractionDate = "last_interaction_date"
	FieldUnseenCount         = "unseen_count"
	FieldGroupTitle          = "group_title"
	FieldView                = "view"
	FieldType                = "type"
)

// nonFilterKeys shape the view but never count as active filters.
var nonFilterKeys = map[string]bool{
	FieldView:       true,
	FieldType:       true,
	FieldGroupTitle: true,
}

type Field struct {
	Key  string
	Kind Kind
}

// Schema is the ordered field list a codec works with.
type Schema []Field

// DefaultSchema declares the ticket filter fields.
func DefaultSchema() Schema {
	return Schema{
		{FieldWorkflow, KindList},
		{FieldPriority, KindList},
		{FieldTechnicianID, KindNumericList},
		{FieldTags, KindList},
		{FieldPlatform, KindList},
		{FieldLastMessageAuthor, KindNumericList},
		{FieldSearch, KindString},
		{FieldUnseen, KindString},
		{FieldActionNeeded, KindBool},
		{FieldCreationDate, KindDateRange},
		{FieldLastInteractionDate, KindDateRange},
		{FieldUnseenCount, KindNumberRange},
		{FieldGroupTitle, KindString},
		{FieldView, KindString},
		{FieldType, KindString},
	}
}

// Lookup returns the field declared for key.
func (s Schema) Lookup(key string) (Field, bool) {
	for _, f := range s {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
