package usecase

import (
	"context"
	"errors"
	"testing"

	"chatapp/internal/feature/auth/domain"
	"chatapp/internal/feature/auth/domain/entity"

	"golang.org/x/crypto/bcrypt"
)

// mockUserRepository is a mock implementation of the UserRepository interface.
// It simulates database operations during testing.
type mockUserRepository struct {
	// CreateFunc is called when the Create method is invoked.
	CreateFunc func(user *entity.User) error
	// FindByEmailFunc is called when the FindByEmail method is invoked.
	FindByEmailFunc func(email string) (*entity.User, error)
	// FindByIDFunc is called when the FindByID method is invoked.
	FindByIDFunc func(id string) (*entity.User, error)
	// UpdateFunc is called when the Update method is invoked.
	UpdateFunc func(user *entity.User) error
}

// mockJWTGenerator is a mock implementation of JWTGenerator interface.
type mockJWTGenerator struct {
	// GenerateTokenFunc is called when the GenerateToken method is invoked.
	GenerateTokenFunc func(userID, email string) (string, error)
}

// GenerateToken is the mock implementation of the GenerateToken method.
func (m *mockJWTGenerator) GenerateToken(userID, email string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, email)
	}
	// Default: return a dummy token
	return "mock-jwt-token", nil
}

// Create is the mock implementation of the Create method.
func (m *mockUserRepository) Create(_ context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(user)
	}
	user.ID = "generated-id"
	return nil // Default: success
}

// FindByEmail is the mock implementation of the FindByEmail method.
func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(email)
	}
	// Default: return user not found error
	return nil, ErrUserNotFound
}

// FindByID is the mock implementation of the FindByID method.
func (m *mockUserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, ErrUserNotFound
}

// Update is the mock implementation of the Update method.
func (m *mockUserRepository) Update(_ context.Context, user *entity.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(user)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func TestAuthUsecase_Signup(t *testing.T) {
	t.Run("successful signup", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			CreateFunc: func(user *entity.User) error {
				// Verify that the password is hashed
				if len(user.Password) == 0 || user.Password == "secret1" {
					t.Errorf("password is not hashed")
				}
				if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")); err != nil {
					t.Errorf("invalid bcrypt hash: %v", err)
				}
				if user.ProfilePic != "" {
					t.Errorf("expected empty profile pic, got %q", user.ProfilePic)
				}
				user.ID = "u-1"
				return nil
			},
		}
		mockJWT := &mockJWTGenerator{
			GenerateTokenFunc: func(userID, email string) (string, error) {
				if userID != "u-1" || email != "a@b.com" {
					t.Errorf("unexpected token subject: userID=%s, email=%s", userID, email)
				}
				return "signed", nil
			},
		}

		uc := NewAuthUsecase(mockRepo, mockJWT)
		user, token, err := uc.Signup(context.Background(), SignupInput{Email: "a@b.com", FullName: "A B", Password: "secret1"})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != "u-1" || user.Email != "a@b.com" || user.FullName != "A B" {
			t.Errorf("unexpected user: %+v", user)
		}
		if token != "signed" {
			t.Errorf("expected token 'signed', got %q", token)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{}, &mockJWTGenerator{})

		for _, in := range []SignupInput{
			{FullName: "A B", Password: "secret1"},
			{Email: "a@b.com", Password: "secret1"},
			{Email: "a@b.com", FullName: "A B"},
			{Email: "   ", FullName: "A B", Password: "secret1"},
		} {
			_, _, err := uc.Signup(context.Background(), in)
			if !errors.Is(err, domain.ErrInvalidUser) {
				t.Errorf("input %+v: expected ErrInvalidUser, got %v", in, err)
			}
		}
	})

	t.Run("short password", func(t *testing.T) {
		createCalled := false
		mockRepo := &mockUserRepository{
			CreateFunc: func(user *entity.User) error {
				createCalled = true
				return nil
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		_, _, err := uc.Signup(context.Background(), SignupInput{Email: "a@b.com", FullName: "A B", Password: "12345"})

		if !errors.Is(err, domain.ErrInvalidUser) {
			t.Errorf("expected ErrInvalidUser, got %v", err)
		}
		if createCalled {
			t.Error("repository should not be called for an invalid password")
		}
	})

	t.Run("email already registered", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) {
				return &entity.User{ID: "existing", Email: email}, nil
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		_, _, err := uc.Signup(context.Background(), SignupInput{Email: "a@b.com", FullName: "A B", Password: "secret1"})

		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
		}
	})

	t.Run("repository create failure", func(t *testing.T) {
		expectedErr := errors.New("database error")
		mockRepo := &mockUserRepository{
			CreateFunc: func(user *entity.User) error {
				return expectedErr
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		_, _, err := uc.Signup(context.Background(), SignupInput{Email: "a@b.com", FullName: "A B", Password: "secret1"})

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error '%v', got: %v", expectedErr, err)
		}
	})

	t.Run("lookup failure is not treated as free email", func(t *testing.T) {
		expectedErr := errors.New("connection reset")
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) {
				return nil, expectedErr
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		_, _, err := uc.Signup(context.Background(), SignupInput{Email: "a@b.com", FullName: "A B", Password: "secret1"})

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error '%v', got: %v", expectedErr, err)
		}
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	// Hashed password for testing
	password := "secret1"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	testUser := &entity.User{
		ID:       "u-1",
		Email:    "a@b.com",
		FullName: "A B",
		Password: string(hashedPassword),
	}

	t.Run("successful login", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) {
				if email == testUser.Email {
					return testUser, nil
				}
				return nil, ErrUserNotFound
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		user, token, err := uc.Login(context.Background(), "a@b.com", password)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != testUser.ID {
			t.Errorf("expected user %q, got %q", testUser.ID, user.ID)
		}
		if token != "mock-jwt-token" {
			t.Errorf("expected token 'mock-jwt-token', got: '%s'", token)
		}
	})

	t.Run("user not found", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{}, &mockJWTGenerator{})
		_, _, err := uc.Login(context.Background(), "wrong@example.com", password)

		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("incorrect password", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) {
				return testUser, nil
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		_, _, err := uc.Login(context.Background(), "a@b.com", "wrong-password")

		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if err.Error() != "invalid credentials" {
			t.Errorf("expected error message 'invalid credentials', got: '%s'", err.Error())
		}
	})

	t.Run("JWT generation failure", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) {
				return testUser, nil
			},
		}
		mockJWT := &mockJWTGenerator{
			GenerateTokenFunc: func(userID, email string) (string, error) {
				return "", errors.New("failed to sign token")
			},
		}

		uc := NewAuthUsecase(mockRepo, mockJWT)
		_, _, err := uc.Login(context.Background(), "a@b.com", password)

		expectedErrMsg := "failed to generate token: failed to sign token"
		if err == nil || err.Error() != expectedErrMsg {
			t.Errorf("expected error message '%s', got: '%v'", expectedErrMsg, err)
		}
	})
}

func TestAuthUsecase_CheckAuth(t *testing.T) {
	mockRepo := &mockUserRepository{
		FindByIDFunc: func(id string) (*entity.User, error) {
			if id == "u-1" {
				return &entity.User{ID: "u-1", Email: "a@b.com"}, nil
			}
			return nil, ErrUserNotFound
		},
	}
	uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})

	user, err := uc.CheckAuth(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "a@b.com" {
		t.Errorf("expected email a@b.com, got %q", user.Email)
	}

	if _, err := uc.CheckAuth(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := uc.CheckAuth(context.Background(), ""); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound for empty id, got %v", err)
	}
}

func TestAuthUsecase_UpdateProfile(t *testing.T) {
	existing := func() *entity.User {
		return &entity.User{ID: "u-1", Email: "a@b.com", FullName: "A B", Password: "hash", PhoneNumber: "+1"}
	}

	t.Run("only provided fields change", func(t *testing.T) {
		var saved *entity.User
		mockRepo := &mockUserRepository{
			FindByIDFunc: func(id string) (*entity.User, error) { return existing(), nil },
			UpdateFunc: func(user *entity.User) error {
				saved = user
				return nil
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		user, err := uc.UpdateProfile(context.Background(), "u-1", UpdateProfileInput{ProfilePic: strPtr("https://cdn/p.png")})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if saved == nil {
			t.Fatal("expected repository update")
		}
		if user.ProfilePic != "https://cdn/p.png" {
			t.Errorf("expected profile pic to change, got %q", user.ProfilePic)
		}
		if user.FullName != "A B" || user.PhoneNumber != "+1" {
			t.Errorf("unexpected change to untouched fields: %+v", user)
		}
	})

	t.Run("empty update rejected", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{}, &mockJWTGenerator{})
		_, err := uc.UpdateProfile(context.Background(), "u-1", UpdateProfileInput{})

		if !errors.Is(err, domain.ErrInvalidUser) {
			t.Errorf("expected ErrInvalidUser, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{}, &mockJWTGenerator{})
		_, err := uc.UpdateProfile(context.Background(), "missing", UpdateProfileInput{FullName: strPtr("X")})

		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("repository update failure", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByIDFunc: func(id string) (*entity.User, error) { return existing(), nil },
			UpdateFunc:   func(user *entity.User) error { return ErrEmailAlreadyExists },
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		_, err := uc.UpdateProfile(context.Background(), "u-1", UpdateProfileInput{FullName: strPtr("New Name")})

		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
		}
	})
}
