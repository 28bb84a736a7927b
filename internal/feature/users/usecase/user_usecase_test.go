package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"users_backend/internal/feature/users/domain/entity"
)

// mockUserStore is a mock implementation of the UserStore interface.
type mockUserStore struct {
	PutFunc            func(ctx context.Context, user *entity.User) error
	QueryByIndexFunc   func(ctx context.Context, attribute, value string) ([]entity.User, error)
	ScanWithFilterFunc func(ctx context.Context, attribute, value string) ([]entity.User, error)

	putCalls   int
	queryCalls int
	scanCalls  int
}

func (m *mockUserStore) Put(ctx context.Context, user *entity.User) error {
	m.putCalls++
	if m.PutFunc != nil {
		return m.PutFunc(ctx, user)
	}
	return nil
}

func (m *mockUserStore) QueryByIndex(ctx context.Context, attribute, value string) ([]entity.User, error) {
	m.queryCalls++
	if m.QueryByIndexFunc != nil {
		return m.QueryByIndexFunc(ctx, attribute, value)
	}
	return nil, nil
}

func (m *mockUserStore) ScanWithFilter(ctx context.Context, attribute, value string) ([]entity.User, error) {
	m.scanCalls++
	if m.ScanWithFilterFunc != nil {
		return m.ScanWithFilterFunc(ctx, attribute, value)
	}
	return nil, nil
}

var errUnavailable = errors.New("service unavailable")

func TestUserUsecase_ExistsByEmail(t *testing.T) {
	existing := []entity.User{{ID: "u-1", Email: "taken@example.com"}}

	tests := []struct {
		name      string
		query     func(ctx context.Context, attribute, value string) ([]entity.User, error)
		scan      func(ctx context.Context, attribute, value string) ([]entity.User, error)
		want      bool
		wantScans int
	}{
		{
			name:      "index hit",
			query:     func(ctx context.Context, attribute, value string) ([]entity.User, error) { return existing, nil },
			want:      true,
			wantScans: 0,
		},
		{
			name:      "index miss does not scan",
			query:     func(ctx context.Context, attribute, value string) ([]entity.User, error) { return nil, nil },
			scan:      func(ctx context.Context, attribute, value string) ([]entity.User, error) { return existing, nil },
			want:      false,
			wantScans: 0,
		},
		{
			name:      "index failure falls back to scan hit",
			query:     func(ctx context.Context, attribute, value string) ([]entity.User, error) { return nil, errUnavailable },
			scan:      func(ctx context.Context, attribute, value string) ([]entity.User, error) { return existing, nil },
			want:      true,
			wantScans: 1,
		},
		{
			name:      "index failure falls back to scan miss",
			query:     func(ctx context.Context, attribute, value string) ([]entity.User, error) { return nil, errUnavailable },
			scan:      func(ctx context.Context, attribute, value string) ([]entity.User, error) { return []entity.User{}, nil },
			want:      false,
			wantScans: 1,
		},
		{
			name:      "both lookups fail assumes absent",
			query:     func(ctx context.Context, attribute, value string) ([]entity.User, error) { return nil, errUnavailable },
			scan:      func(ctx context.Context, attribute, value string) ([]entity.User, error) { return nil, errUnavailable },
			want:      false,
			wantScans: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockUserStore{QueryByIndexFunc: tt.query, ScanWithFilterFunc: tt.scan}
			uc := NewUserUsecase(store)

			got := uc.ExistsByEmail(context.Background(), "taken@example.com")

			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, store.queryCalls)
			assert.Equal(t, tt.wantScans, store.scanCalls)
		})
	}
}

func TestUserUsecase_ExistsByEmail_PassesEmailAttribute(t *testing.T) {
	var gotAttr, gotValue string
	store := &mockUserStore{
		QueryByIndexFunc: func(ctx context.Context, attribute, value string) ([]entity.User, error) {
			gotAttr, gotValue = attribute, value
			return nil, nil
		},
	}

	NewUserUsecase(store).ExistsByEmail(context.Background(), "a@b.com")

	assert.Equal(t, AttrEmail, gotAttr)
	assert.Equal(t, "a@b.com", gotValue)
}

func TestUserUsecase_CreateUser(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		var stored *entity.User
		store := &mockUserStore{
			PutFunc: func(ctx context.Context, user *entity.User) error {
				stored = user
				return nil
			},
		}
		uc := NewUserUsecase(store)

		user, err := uc.CreateUser(context.Background(), "  test@example.com  ")

		require.NoError(t, err)
		assert.Equal(t, "test@example.com", user.Email)
		assert.Len(t, user.ID, 36)
		require.NotNil(t, stored)
		assert.Equal(t, user, stored)
	})

	t.Run("validation errors never touch the store", func(t *testing.T) {
		cases := map[string]error{
			"":              ErrEmailRequired,
			"   ":           ErrEmailRequired,
			"invalid-email": ErrInvalidEmail,
			"a@b.c":         ErrInvalidEmail,
		}
		for email, wantErr := range cases {
			store := &mockUserStore{}
			uc := NewUserUsecase(store)

			_, err := uc.CreateUser(context.Background(), email)

			assert.ErrorIs(t, err, wantErr, "email %q", email)
			assert.Zero(t, store.queryCalls, "email %q", email)
			assert.Zero(t, store.putCalls, "email %q", email)
		}
	})

	t.Run("duplicate email is rejected before put", func(t *testing.T) {
		store := &mockUserStore{
			QueryByIndexFunc: func(ctx context.Context, attribute, value string) ([]entity.User, error) {
				return []entity.User{{ID: "u-1", Email: value}}, nil
			},
		}
		uc := NewUserUsecase(store)

		_, err := uc.CreateUser(context.Background(), "taken@example.com")

		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
		assert.Zero(t, store.putCalls)
	})

	t.Run("store uniqueness guard maps to duplicate", func(t *testing.T) {
		store := &mockUserStore{
			PutFunc: func(ctx context.Context, user *entity.User) error {
				return ErrEmailAlreadyExists
			},
		}
		uc := NewUserUsecase(store)

		_, err := uc.CreateUser(context.Background(), "race@example.com")

		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
		assert.NotErrorIs(t, err, ErrStore)
	})

	t.Run("put failure wraps store error", func(t *testing.T) {
		store := &mockUserStore{
			PutFunc: func(ctx context.Context, user *entity.User) error {
				return errUnavailable
			},
		}
		uc := NewUserUsecase(store)

		_, err := uc.CreateUser(context.Background(), "test@example.com")

		assert.ErrorIs(t, err, ErrStore)
		assert.ErrorIs(t, err, errUnavailable)
	})

	t.Run("lookup outage still creates", func(t *testing.T) {
		store := &mockUserStore{
			QueryByIndexFunc: func(ctx context.Context, attribute, value string) ([]entity.User, error) {
				return nil, errUnavailable
			},
			ScanWithFilterFunc: func(ctx context.Context, attribute, value string) ([]entity.User, error) {
				return nil, errUnavailable
			},
		}
		uc := NewUserUsecase(store)

		user, err := uc.CreateUser(context.Background(), "test@example.com")

		require.NoError(t, err)
		assert.Equal(t, "test@example.com", user.Email)
		assert.Equal(t, 1, store.putCalls)
	})

	t.Run("id generator failure is not a store error", func(t *testing.T) {
		genErr := errors.New("entropy exhausted")
		store := &mockUserStore{}
		uc := NewUserUsecase(store, WithIDGenerator(func() (string, error) { return "", genErr }))

		_, err := uc.CreateUser(context.Background(), "test@example.com")

		assert.ErrorIs(t, err, genErr)
		assert.NotErrorIs(t, err, ErrStore)
		assert.Zero(t, store.putCalls)
	})

	t.Run("sequential creations get distinct ids", func(t *testing.T) {
		uc := NewUserUsecase(&mockUserStore{})

		first, err := uc.CreateUser(context.Background(), "one@example.com")
		require.NoError(t, err)
		second, err := uc.CreateUser(context.Background(), "two@example.com")
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestUserUsecase_StoreTimeout(t *testing.T) {
	var deadlineSet bool
	store := &mockUserStore{
		PutFunc: func(ctx context.Context, user *entity.User) error {
			_, deadlineSet = ctx.Deadline()
			return nil
		},
	}

	_, err := NewUserUsecase(store, WithStoreTimeout(time.Second)).CreateUser(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, deadlineSet, "put should run under a deadline")

	_, err = NewUserUsecase(store, WithStoreTimeout(0)).CreateUser(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, deadlineSet, "zero timeout should not set a deadline")
}
