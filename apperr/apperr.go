// Package apperr classifies the failures controllers convert into responses.
package apperr

import "net/http"

// Kind partitions failures by how the pipeline should answer them.
type Kind int

const (
	// Validation covers malformed or missing input and length bounds.
	Validation Kind = iota
	// NotFound covers absent emails, slugs, and usernames.
	NotFound
	// Auth covers bad credentials and missing, invalid, or expired tokens.
	Auth
	// Forbidden covers failed role or ownership checks.
	Forbidden
	// Conflict covers duplicate email or slug at the store level.
	Conflict
	// Upload covers oversize or unreadable files.
	Upload
	// Internal covers everything the client should not learn about.
	Internal
)

// Error pairs a kind with the message clients are allowed to see.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Status maps a kind to its HTTP status. Ownership and role denials answer
// 400 like every other client fault, keeping the error surface uniform.
func Status(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case Auth:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
