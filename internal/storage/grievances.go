package storage

import (
	"context"

	"go.uber.org/zap"

	"grievance/backend/internal/models"
)

func (s *Service) CreateGrievance(ctx context.Context, g *models.Grievance) error {
	if err := s.DB.WithContext(ctx).Create(g).Error; err != nil {
		s.logger.Error("Failed to save grievance", zap.String("title", g.Title), zap.Error(err))
		return duplicate(err)
	}
	return nil
}

func (s *Service) GetGrievance(ctx context.Context, id string) (*models.Grievance, error) {
	var g models.Grievance
	err := s.DB.WithContext(ctx).
		Where("id = ? OR grievance_id = ?", id, id).
		First(&g).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (s *Service) FindGrievances(ctx context.Context, f GrievanceFilter) ([]models.Grievance, error) {
	var out []models.Grievance
	q := f.apply(s.DB.WithContext(ctx).Model(&models.Grievance{}))
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CountGrievances(ctx context.Context, f GrievanceFilter) (int64, error) {
	var n int64
	f.Limit = 0
	err := f.apply(s.DB.WithContext(ctx).Model(&models.Grievance{})).Count(&n).Error
	return n, err
}

// UpdateGrievance persists every field of g.
func (s *Service) UpdateGrievance(ctx context.Context, g *models.Grievance) error {
	return s.DB.WithContext(ctx).Save(g).Error
}
