package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Registration errors
	CodeValidation            Code = "VALIDATION"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeTicketNumberExhausted Code = "TICKET_NUMBER_EXHAUSTED"

	// Storage errors
	CodeNotFound    Code = "NOT_FOUND"
	CodePersistence Code = "PERSISTENCE"
)

// HTTPStatus maps a domain code to an HTTP status for API responses.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTicketNumberExhausted:
		return http.StatusConflict
	case CodePersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
