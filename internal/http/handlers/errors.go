package handlers

// Stable machine-readable error codes returned in ErrorResponse.Code.
// Clients branch on these; changing a value is a breaking API change.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeTooManyRequests  = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	ErrCodeEmptyMessage     = "empty_message"
	ErrCodeMessageTooLong   = "message_too_long"
	ErrCodeChatFailed       = "chat_failed"
	ErrCodeOrderNotFound    = "order_not_found"
	ErrCodeProductNotFound  = "product_not_found"
	ErrCodeOutOfStock       = "insufficient_stock"
	ErrCodeStatusNotAllowed = "status_not_allowed"
	ErrCodeOrderFailed      = "order_failed"
)
