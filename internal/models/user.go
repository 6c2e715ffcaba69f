package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role tags a user identity.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleOfficer, RoleAdmin:
		return true
	}
	return false
}

// User is a citizen, officer or administrator account.
type User struct {
	ID           string `gorm:"primaryKey" json:"id"` // UUID
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:text;index;not null;default:citizen" json:"role"`
	// DepartmentID is meaningful for officers only. It may dangle after the
	// department is deleted.
	DepartmentID *string `gorm:"index" json:"department,omitempty"`
	// TelegramChatID receives assignment and escalation notices when set.
	TelegramChatID int64     `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// BeforeCreate generates a UUID for the user if ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleCitizen
	}
	return
}

// IsOfficer reports whether the user can be assigned grievances.
func (u *User) IsOfficer() bool {
	return u.Role == RoleOfficer
}
