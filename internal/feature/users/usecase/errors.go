// Package usecase implements the business logic for the users feature.
package usecase

import "errors"

var (
	// ErrEmailRequired is returned when the email is missing or blank after trimming.
	ErrEmailRequired = errors.New("email is required")

	// ErrInvalidEmail is returned when the email does not match the accepted address pattern.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmailAlreadyExists is returned when a user with the same email is already stored.
	// Stores also return it from Put when their own uniqueness guard rejects a record.
	ErrEmailAlreadyExists = errors.New("user with this email already exists")

	// ErrStore marks an infrastructure failure reported by a UserStore.
	ErrStore = errors.New("user store error")

	// ErrUnsupportedAttribute is returned by stores asked to look up an attribute they cannot serve.
	ErrUnsupportedAttribute = errors.New("unsupported lookup attribute")
)
