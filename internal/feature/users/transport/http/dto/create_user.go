// Package dto defines data transfer objects for the users feature's transport layer.
package dto

// Request is a transport-neutral create-user request.
// A nil Body means the caller sent no body at all, which differs from an empty string.
type Request struct {
	Method string
	Body   *string
}

// Response is a transport-neutral reply. Body is always a JSON document.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// UserResponse is the body of a successful creation.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
