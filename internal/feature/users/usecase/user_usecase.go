package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"users_backend/internal/feature/users/domain/entity"
)

// defaultStoreTimeout bounds every individual store call.
const defaultStoreTimeout = 5 * time.Second

// IDGenerator returns a new unique user identifier.
type IDGenerator func() (string, error)

// NewRandomID returns a random (version 4) UUID in canonical string form.
func NewRandomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Option configures a userUsecase.
type Option func(*userUsecase)

// WithIDGenerator replaces the identifier source.
func WithIDGenerator(gen IDGenerator) Option {
	return func(u *userUsecase) {
		if gen != nil {
			u.newID = gen
		}
	}
}

// WithStoreTimeout sets the per-call store deadline. Zero or negative disables it.
func WithStoreTimeout(d time.Duration) Option {
	return func(u *userUsecase) {
		u.storeTimeout = d
	}
}

// userUsecase implements user creation.
// It holds no mutable state and is safe for concurrent use.
type userUsecase struct {
	store        UserStore
	newID        IDGenerator
	storeTimeout time.Duration
}

// NewUserUsecase creates a new instance of userUsecase.
func NewUserUsecase(store UserStore, opts ...Option) *userUsecase {
	u := &userUsecase{
		store:        store,
		newID:        NewRandomID,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CreateUser registers a user with the given email.
//
// The email is normalized and validated, then checked for uniqueness, and finally persisted
// under a fresh ID. Validation failures return ErrEmailRequired or ErrInvalidEmail, a
// duplicate returns ErrEmailAlreadyExists, and a persistence failure returns an error
// wrapping ErrStore. Any other error is unanticipated.
func (u *userUsecase) CreateUser(ctx context.Context, email string) (*entity.User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if u.ExistsByEmail(ctx, email) {
		return nil, ErrEmailAlreadyExists
	}

	id, err := u.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user id: %w", err)
	}
	user := &entity.User{ID: id, Email: email}

	callCtx, cancel := u.withTimeout(ctx)
	defer cancel()
	if err := u.store.Put(callCtx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("%w: put user: %w", ErrStore, err)
	}
	return user, nil
}

// ExistsByEmail reports whether a user with email is already stored.
//
// The secondary index is tried first. If the index lookup fails, a filtered full scan is
// tried instead. If both fail, the user is assumed not to exist so that creation can go
// ahead; the store's own uniqueness guard on Put remains the authoritative check.
func (u *userUsecase) ExistsByEmail(ctx context.Context, email string) bool {
	found, err := u.lookup(ctx, u.store.QueryByIndex, email)
	if err == nil {
		return found
	}
	log.Warn().Err(err).Str("email", email).Msg("email index lookup failed, falling back to scan")

	found, err = u.lookup(ctx, u.store.ScanWithFilter, email)
	if err == nil {
		return found
	}
	log.Error().Err(err).Str("email", email).Msg("email scan failed, assuming user does not exist")
	return false
}

func (u *userUsecase) lookup(ctx context.Context, find func(context.Context, string, string) ([]entity.User, error), email string) (bool, error) {
	callCtx, cancel := u.withTimeout(ctx)
	defer cancel()
	users, err := find(callCtx, AttrEmail, email)
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

func (u *userUsecase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.storeTimeout)
}
