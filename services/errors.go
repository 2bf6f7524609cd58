package services

// Stable error codes surfaced alongside the HTTP status so callers can
// react programmatically (kind + offending field in the message).
const (
	CodeInvalidQuantity       = "INVALID_QUANTITY"
	CodeMissingCoordinates    = "MISSING_COORDINATES"
	CodeMinimumPurchaseNotMet = "MINIMUM_PURCHASE_NOT_MET"
	CodeVoucherNotFound       = "VOUCHER_NOT_FOUND"
	CodeVoucherInactive       = "VOUCHER_INACTIVE"
	CodeVoucherExpired        = "VOUCHER_EXPIRED"
	CodeVoucherLimitReached   = "VOUCHER_USAGE_LIMIT_REACHED"
	CodeVoucherAlreadyUsed    = "VOUCHER_ALREADY_USED_BY_ACCOUNT"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
)

// ServiceError represents a typed error with an HTTP status code. Code is
// empty for plain internal failures.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func internalError(message string) *ServiceError {
	return &ServiceError{StatusCode: 500, Message: message}
}
