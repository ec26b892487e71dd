package adapters

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatapp/internal/feature/auth/domain/entity"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Email       string    `gorm:"uniqueIndex;size:255;not null"`
	FullName    string    `gorm:"size:255;not null"`
	Password    string    `gorm:"size:255;not null"`
	ProfilePic  string    `gorm:"size:1024;not null;default:''"`
	PhoneNumber string    `gorm:"size:32"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when the caller did not provide an ID.
func (m *UserModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:          m.ID,
		Email:       m.Email,
		FullName:    m.FullName,
		Password:    m.Password,
		ProfilePic:  m.ProfilePic,
		PhoneNumber: m.PhoneNumber,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// UserModelFromEntity converts a domain entity to a GORM model.
func UserModelFromEntity(u *entity.User) *UserModel {
	return &UserModel{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Password:    u.Password,
		ProfilePic:  u.ProfilePic,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
