package storage

import (
	"context"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grievance/backend/internal/models"
)

func (s *Service) CreateDepartment(ctx context.Context, d *models.Department) error {
	return duplicate(s.DB.WithContext(ctx).Create(d).Error)
}

func (s *Service) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	var d models.Department
	err := s.DB.WithContext(ctx).
		Preload("CategoryAssignments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&d, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var out []models.Department
	err := s.DB.WithContext(ctx).
		Preload("CategoryAssignments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (s *Service) DepartmentsForCategory(ctx context.Context, category string) ([]models.Department, error) {
	var out []models.Department
	err := s.DB.WithContext(ctx).
		Where("id IN (?)", s.DB.Model(&models.CategoryAssignment{}).Select("department_id").Where("category = ?", category)).
		Preload("CategoryAssignments", "category = ?", category).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// UpdateDepartment saves the scalar fields only; category entries are changed
// through SetCategoryOfficers.
func (s *Service) UpdateDepartment(ctx context.Context, d *models.Department) error {
	res := s.DB.WithContext(ctx).Model(d).
		Select("name", "description").
		Updates(map[string]any{"name": d.Name, "description": d.Description})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCategoryOfficers upserts the entry for (departmentID, category).
func (s *Service) SetCategoryOfficers(ctx context.Context, departmentID, category string, officerIDs []string) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Department{}).Where("id = ?", departmentID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	entry := models.CategoryAssignment{
		DepartmentID: departmentID,
		Category:     category,
		OfficerIDs:   pq.StringArray(officerIDs),
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "department_id"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"officer_ids"}),
	}).Create(&entry).Error
}

func (s *Service) DeleteDepartment(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("department_id = ?", id).Delete(&models.CategoryAssignment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Department{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
