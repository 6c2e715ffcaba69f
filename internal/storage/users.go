package storage

import (
	"context"
	"strings"

	"grievance/backend/internal/models"
)

func (s *Service) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return duplicate(s.DB.WithContext(ctx).Create(u).Error)
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Service) FindUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	var out []models.User
	q := f.apply(s.DB.WithContext(ctx).Model(&models.User{}))
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) UpdateUser(ctx context.Context, u *models.User) error {
	return s.DB.WithContext(ctx).Save(u).Error
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
