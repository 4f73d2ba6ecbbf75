package constants

const (
	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Light lists load this many tickets per page while auto-paginating
	DefaultLightLimit = 50

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Content Types
	ContentTypeJSON = "application/json"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"

	// System sender id used by server-generated messages
	SystemSenderID int64 = 1

	// Preference keys
	PreferenceGroupTitle = "group_title"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
	ErrMsgValidationFailed    = "Validation failed"
)

// Ticket list views driven by URL state.
const (
	ViewKanban = "kanban"
	ViewTable  = "table"
	ViewChat   = "chat"
)

// Views lists every URL-driven view in load order.
var Views = []string{ViewKanban, ViewTable, ViewChat}
