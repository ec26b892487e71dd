// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatapp/internal/feature/auth/domain"
	"chatapp/internal/feature/auth/domain/entity"

	"golang.org/x/crypto/bcrypt"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create persists a new user and assigns its ID and timestamps.
	// It returns ErrEmailAlreadyExists if the email is taken.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail retrieves the user with the given email.
	// It returns ErrUserNotFound if no such user exists.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID retrieves the user with the given ID.
	// It returns ErrUserNotFound if no such user exists.
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// Update overwrites the mutable fields of an existing user and refreshes UpdatedAt.
	Update(ctx context.Context, user *entity.User) error
}

// JWTGenerator はJWTトークン生成のインターフェースを定義します。
type JWTGenerator interface {
	// GenerateToken は指定されたユーザーの署名済みJWTトークンを生成します。
	GenerateToken(userID, email string) (string, error)
}

// SignupInput carries the fields of a signup request.
type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// UpdateProfileInput carries a partial profile update. Nil fields are left unchanged.
type UpdateProfileInput struct {
	FullName    *string
	ProfilePic  *string
	PhoneNumber *string
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users        UserRepository
	jwtGenerator JWTGenerator
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, jwtGenerator JWTGenerator) *authUsecase {
	return &authUsecase{
		users:        users,
		jwtGenerator: jwtGenerator,
	}
}

// validatePassword はパスワードがスキーマの最低文字数を満たしているかチェックします。
// ハッシュ化後は常に長さを満たすため、平文の段階で検証します。
func validatePassword(password string) error {
	if len([]rune(password)) < entity.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidUser, entity.MinPasswordLength)
	}
	return nil
}

// Signup registers a new user with a hashed password and returns it with a session token.
func (u *authUsecase) Signup(ctx context.Context, in SignupInput) (*entity.User, string, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Email == "" || in.FullName == "" || in.Password == "" {
		return nil, "", fmt.Errorf("%w: all fields are required", domain.ErrInvalidUser)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, "", err
	}

	// 既存ユーザーの確認（ユニーク制約はストア側でも強制される）
	if _, err := u.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, "", ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := entity.NewUser(in.Email, in.FullName, string(hashed))
	if err := u.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := u.jwtGenerator.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Login はユーザーを認証し、成功時にユーザーとJWTトークンを返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := u.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, "", err
	}

	// ユーザーが存在しない場合のタイミング攻撃緩和用ダミーハッシュ
	passwordHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	if err == nil {
		passwordHash = user.Password
	}

	// 第1引数はハッシュ化パスワード、第2引数は平文パスワード
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if err != nil || compareErr != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, tokenErr := u.jwtGenerator.GenerateToken(user.ID, user.Email)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", tokenErr)
	}
	return user, token, nil
}

// CheckAuth returns the user an authenticated session belongs to.
func (u *authUsecase) CheckAuth(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}
	return u.users.FindByID(ctx, userID)
}

// UpdateProfile applies a partial profile update to the given user.
// The chat UI only ever sends a new profile picture, so at least one field must be set.
func (u *authUsecase) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	if in.FullName == nil && in.ProfilePic == nil && in.PhoneNumber == nil {
		return nil, fmt.Errorf("%w: profile pic is required", domain.ErrInvalidUser)
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.ProfilePic != nil {
		user.ProfilePic = *in.ProfilePic
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = *in.PhoneNumber
	}

	if err := u.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
