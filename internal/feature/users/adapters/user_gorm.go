// Package adapters はusersフィーチャーのUserStore実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"users_backend/internal/feature/users/domain/entity"
	"users_backend/internal/feature/users/usecase"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// defaultScanBatchSize is the page size used by ScanWithFilter.
const defaultScanBatchSize = 500

// userGorm はUserStoreインターフェースのGORM実装です。
// The users table carries a unique index on email, so Put is the authoritative duplicate guard.
type userGorm struct {
	db        *gorm.DB
	batchSize int
}

// userGormがUserStoreを実装していることをコンパイル時に検証します。
var _ usecase.UserStore = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db, batchSize: defaultScanBatchSize}
}

// Migrate creates the users table and its email index if they are missing.
func (r *userGorm) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&entity.User{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// Put はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Put(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// QueryByIndex はユニークインデックスを使ってメールアドレスで検索します。
func (r *userGorm) QueryByIndex(ctx context.Context, attribute, value string) ([]entity.User, error) {
	column, err := columnFor(attribute)
	if err != nil {
		return nil, err
	}
	var users []entity.User
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("query users by %s: %w", attribute, err)
	}
	return users, nil
}

// ScanWithFilter は全件をバッチで走査し、アプリケーション側で絞り込みます。
// Rows are read in primary-key order; the email index is never consulted.
func (r *userGorm) ScanWithFilter(ctx context.Context, attribute, value string) ([]entity.User, error) {
	if _, err := columnFor(attribute); err != nil {
		return nil, err
	}
	var (
		batch   []entity.User
		matches []entity.User
	)
	res := r.db.WithContext(ctx).FindInBatches(&batch, r.batchSize, func(tx *gorm.DB, _ int) error {
		for _, u := range batch {
			if u.Email == value {
				matches = append(matches, u)
			}
		}
		return nil
	})
	if res.Error != nil {
		return nil, fmt.Errorf("scan users: %w", res.Error)
	}
	return matches, nil
}

// Ping checks the database connection.
func (r *userGorm) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func columnFor(attribute string) (string, error) {
	if attribute != usecase.AttrEmail {
		return "", fmt.Errorf("%w: %q", usecase.ErrUnsupportedAttribute, attribute)
	}
	return "email", nil
}

// isDuplicateKey reports a unique constraint violation from any supported dialect.
// gorm.ErrDuplicatedKey requires the connection to be opened with TranslateError.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
