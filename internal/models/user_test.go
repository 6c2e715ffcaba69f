package models_test

import (
	"reflect"
	"testing"

	"grievance/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	// Arrange
	user := &models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleOfficer}

	// Ensure ID is empty before hook
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	// Act - Call the hook directly (GORM would call this automatically)
	err := user.BeforeCreate(nil) // nil *gorm.DB is acceptable for this hook

	// Assert
	assert.NoError(t, err, "BeforeCreate should not return an error")
	parsedUUID, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsedUUID, "Generated UUID should not be nil UUID")
	assert.Equal(t, models.RoleOfficer, user.Role, "explicit role must be kept")
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{ID: existingID, Email: "b@example.com"}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID, "BeforeCreate should preserve existing ID")
	assert.Equal(t, models.RoleCitizen, user.Role, "role defaults to citizen")
}

// TestUserStructTags verifies that struct tags are correctly defined for GORM and JSON.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found, "ID field should exist")
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey", "ID should be marked as primary key")

	emailField, found := userType.FieldByName("Email")
	assert.True(t, found)
	assert.Contains(t, emailField.Tag.Get("gorm"), "uniqueIndex", "Email should have unique index")

	pwField, found := userType.FieldByName("PasswordHash")
	assert.True(t, found)
	assert.Equal(t, "-", pwField.Tag.Get("json"), "password hash must never be serialized")
}

func TestRoleValid(t *testing.T) {
	assert.True(t, models.RoleCitizen.Valid())
	assert.True(t, models.RoleOfficer.Valid())
	assert.True(t, models.RoleAdmin.Valid())
	assert.False(t, models.Role("superuser").Valid())
	assert.False(t, models.Role("").Valid())
}
