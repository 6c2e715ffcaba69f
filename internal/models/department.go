package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Department groups officers and maps complaint categories to the officers
// that handle them.
type Department struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	// CategoryAssignments holds at most one entry per category, in insertion order.
	CategoryAssignments []CategoryAssignment `gorm:"constraint:OnDelete:CASCADE" json:"categoryAssignments"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

// CategoryAssignment lists the officers of a department that handle one category.
type CategoryAssignment struct {
	ID           uint           `gorm:"primaryKey" json:"-"`
	DepartmentID string         `gorm:"uniqueIndex:idx_department_category;not null" json:"-"`
	Category     string         `gorm:"uniqueIndex:idx_department_category;not null" json:"category"`
	OfficerIDs   pq.StringArray `gorm:"type:text[]" json:"officers"`
}

// BeforeCreate generates a UUID for the department if ID is not set yet.
func (d *Department) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return
}

// Assignment returns the entry for category, or nil.
func (d *Department) Assignment(category string) *CategoryAssignment {
	for i := range d.CategoryAssignments {
		if d.CategoryAssignments[i].Category == category {
			return &d.CategoryAssignments[i]
		}
	}
	return nil
}

// SetAssignment replaces the officer list of an existing category entry or
// appends a new entry. Entries are keyed by category.
func (d *Department) SetAssignment(category string, officerIDs []string) {
	if entry := d.Assignment(category); entry != nil {
		entry.OfficerIDs = officerIDs
		return
	}
	d.CategoryAssignments = append(d.CategoryAssignments, CategoryAssignment{
		DepartmentID: d.ID,
		Category:     category,
		OfficerIDs:   officerIDs,
	})
}
