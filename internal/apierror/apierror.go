package apierror

import "net/http"

// Error is the domain error carried from services up to the HTTP layer.
// Handlers render it as {"error": {"code", "message", "details"?}} with Status.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// Common constructors for codes used across services.

func AuthRequired() *Error {
	return New("AUTH_REQUIRED", "Authentication required", http.StatusUnauthorized)
}

func Forbidden(message string) *Error {
	return New("FORBIDDEN", message, http.StatusForbidden)
}

func NotFound(message string) *Error {
	return New("NOT_FOUND", message, http.StatusNotFound)
}

func Validation(message string) *Error {
	return New("VALIDATION_ERROR", message, http.StatusBadRequest)
}

func Internal(message string) *Error {
	return New("INTERNAL_ERROR", message, http.StatusInternalServerError)
}

func DB(message string) *Error {
	return New("DB_ERROR", message, http.StatusInternalServerError)
}
