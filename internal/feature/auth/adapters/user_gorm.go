// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"chatapp/internal/feature/auth/domain/entity"
	"chatapp/internal/feature/auth/usecase"
)

// pgUniqueViolation はPostgreSQLのunique_violationエラーコードです。
const pgUniqueViolation = "23505"

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQL（本番）とSQLite（テスト・ローカル）の両方で動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーを検証してからデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	model := UserModelFromEntity(u)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// Update はユーザーの可変フィールドを上書きし、UpdatedAtを更新します。
func (r *userGorm) Update(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"email":        u.Email,
			"full_name":    u.FullName,
			"password":     u.Password,
			"profile_pic":  u.ProfilePic,
			"phone_number": u.PhoneNumber,
			"updated_at":   now,
		})

	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return usecase.ErrEmailAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}

	u.UpdatedAt = now
	return nil
}

func (r *userGorm) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// isDuplicateKey はユニーク制約違反かどうかを判定します。
// TranslateErrorの有無やドライバーの違いを吸収します。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// SQLite: "UNIQUE constraint failed: users.email"
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// MigrateUsers creates or updates the users table and its unique email index.
func MigrateUsers(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserModel{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}
