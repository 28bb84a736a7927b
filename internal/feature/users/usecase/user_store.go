package usecase

import (
	"context"

	"users_backend/internal/feature/users/domain/entity"
)

// AttrEmail is the attribute name used for email lookups.
const AttrEmail = "email"

// UserStore abstracts the persistence layer for users.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
//
// Lookups return an empty slice and a nil error when nothing matches.
// A non-nil error always means the lookup itself could not be performed.
type UserStore interface {
	// Put persists a new user keyed by its ID.
	// It returns ErrEmailAlreadyExists if the store's uniqueness guard rejects the email.
	Put(ctx context.Context, user *entity.User) error

	// QueryByIndex looks up users through the secondary index on attribute.
	QueryByIndex(ctx context.Context, attribute, value string) ([]entity.User, error)

	// ScanWithFilter walks every stored user and keeps those whose attribute equals value.
	// It is the fallback path when the index is unavailable.
	ScanWithFilter(ctx context.Context, attribute, value string) ([]entity.User, error)
}
