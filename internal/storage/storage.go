package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"grievance/backend/internal/logger"
	"grievance/backend/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey reports a unique constraint violation.
	ErrDuplicateKey = errors.New("duplicate key")
)

type GrievanceStore interface {
	CreateGrievance(ctx context.Context, g *models.Grievance) error
	// GetGrievance looks a grievance up by its id or its display id.
	GetGrievance(ctx context.Context, id string) (*models.Grievance, error)
	// FindGrievances returns matching grievances, newest first.
	FindGrievances(ctx context.Context, f GrievanceFilter) ([]models.Grievance, error)
	CountGrievances(ctx context.Context, f GrievanceFilter) (int64, error)
	UpdateGrievance(ctx context.Context, g *models.Grievance) error
}

type DepartmentStore interface {
	CreateDepartment(ctx context.Context, d *models.Department) error
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	// DepartmentsForCategory returns every department with an entry for category,
	// in creation order. Only the matching entry is loaded.
	DepartmentsForCategory(ctx context.Context, category string) ([]models.Department, error)
	UpdateDepartment(ctx context.Context, d *models.Department) error
	SetCategoryOfficers(ctx context.Context, departmentID, category string, officerIDs []string) error
	// DeleteDepartment removes the department and its entries. Users and
	// grievances referencing it keep the dangling id.
	DeleteDepartment(ctx context.Context, id string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// FindUsers returns matching users in creation order.
	FindUsers(ctx context.Context, f UserFilter) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type AnalyticsStore interface {
	Analytics(ctx context.Context, now time.Time) (*models.Analytics, error)
}

// Store is the full persistence surface used by the backend.
type Store interface {
	GrievanceStore
	DepartmentStore
	UserStore
	AnalyticsStore
}

// Service is the PostgreSQL implementation of Store. Redis is optional and backs
// the distributed locks.
type Service struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *zap.Logger
}

var _ Store = (*Service)(nil)

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client, l *zap.Logger) *Service {
	return &Service{
		DB:     db,
		Redis:  rdb,
		logger: logger.OrNop(l),
	}
}

// AutoMigrate creates or updates the tables of every model.
func (s *Service) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.CategoryAssignment{},
		&models.Grievance{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// duplicate maps a translated unique violation. The gorm.DB must be opened with
// TranslateError enabled.
func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
