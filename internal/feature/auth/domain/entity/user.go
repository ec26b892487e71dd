// Package entity defines the domain entities for the auth feature.
package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"chatapp/internal/feature/auth/domain"
)

// MinPasswordLength is the minimum number of characters a stored password must have.
const MinPasswordLength = 6

// validate is shared by all User validations; validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// User represents a registered chat user.
// It is the persistence contract every user store must honor.
type User struct {
	// ID is the unique identifier for the user. Stores assign it on create.
	ID string

	// Email is the user's email address used for authentication.
	// It must be unique across all users.
	Email string `validate:"required"`

	// FullName is the display name shown in the chat UI.
	FullName string `validate:"required"`

	// Password is the stored credential secret (a hash, never plaintext).
	Password string `validate:"required,min=6"`

	// ProfilePic is the avatar URL. Empty when unset.
	ProfilePic string

	// PhoneNumber is optional contact information.
	PhoneNumber string

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time
}

// NewUser builds a User with the schema defaults applied.
func NewUser(email, fullName, password string) *User {
	return &User{
		Email:      email,
		FullName:   fullName,
		Password:   password,
		ProfilePic: "",
	}
}

// Validate checks the field constraints of the user schema.
// Every violation is reported; each wraps domain.ErrInvalidUser.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: user is nil", domain.ErrInvalidUser)
	}
	err := validate.Struct(u)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidUser, err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("%w: %s", domain.ErrInvalidUser, describe(fe)))
	}
	return errors.Join(errs...)
}

// describe renders a field error using the JSON field names clients see.
func describe(fe validator.FieldError) string {
	field := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed on the %q rule", field, fe.Tag())
	}
}

func jsonName(field string) string {
	switch field {
	case "Email":
		return "email"
	case "FullName":
		return "fullName"
	case "Password":
		return "password"
	default:
		return field
	}
}

// Profile is the public view of a user as sent over the wire.
// It never carries the password.
type Profile struct {
	ID          string    `json:"_id"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	ProfilePic  string    `json:"profilePic"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		ProfilePic:  u.ProfilePic,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
