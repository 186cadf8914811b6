package services

import (
	"context"
	"errors"
	"strings"

	"trolley-tracker/internal/config"
	"trolley-tracker/internal/models"

	"gorm.io/gorm"
)

type EmployeeService struct {
	db   *gorm.DB
	auth *AuthService
}

func NewEmployeeService(db *gorm.DB, auth *AuthService) *EmployeeService {
	return &EmployeeService{db: db, auth: auth}
}

type CreateEmployeeInput struct {
	Username     string
	Password     string
	EmployeeData models.EmployeeData
}

// UpdateEmployeeInput carries the fields to change. Nil fields are left
// as they are; a non-empty Password is re-hashed.
type UpdateEmployeeInput struct {
	Username     *string
	Password     string
	EmployeeData *models.EmployeeData
	IsAdmin      *bool
}

// Create stores a new employee, or an admin when isAdmin is set.
func (s *EmployeeService) Create(ctx context.Context, in CreateEmployeeInput, isAdmin bool) (*models.Employee, error) {
	if strings.TrimSpace(in.EmployeeData.Position) == "" {
		return nil, ErrPositionRequired
	}

	db := s.db.WithContext(ctx)

	var existing models.Employee
	err := db.Where("username = ?", in.Username).First(&existing).Error
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		Username:     in.Username,
		PasswordHash: hashed,
		EmployeeData: in.EmployeeData,
		IsAdmin:      isAdmin,
	}
	if err := db.Create(employee).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	return employee, nil
}

// List returns employees in one role partition.
func (s *EmployeeService) List(ctx context.Context, isAdmin bool) ([]models.Employee, error) {
	employees := []models.Employee{}
	if err := s.db.WithContext(ctx).Where("is_admin = ?", isAdmin).Order("created_at").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// Get returns an employee by ID
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return &employee, nil
}

// Update applies the given changes to an employee.
func (s *EmployeeService) Update(ctx context.Context, id string, in UpdateEmployeeInput) (*models.Employee, error) {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	if in.Username != nil && *in.Username != employee.Username {
		var other models.Employee
		err := db.Where("username = ? AND id <> ?", *in.Username, id).First(&other).Error
		if err == nil {
			return nil, ErrUsernameExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		employee.Username = *in.Username
	}

	if in.Password != "" {
		hashed, err := s.auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		employee.PasswordHash = hashed
	}

	if in.EmployeeData != nil {
		if strings.TrimSpace(in.EmployeeData.Position) == "" {
			return nil, ErrPositionRequired
		}
		employee.EmployeeData = *in.EmployeeData
	}

	if in.IsAdmin != nil {
		employee.IsAdmin = *in.IsAdmin
	}

	if err := db.Save(employee).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	return employee, nil
}

// Delete removes an employee
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Employee{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// CountAdmins returns the number of admin records.
func (s *EmployeeService) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Employee{}).Where("is_admin = ?", true).Count(&count).Error
	return count, err
}

// EnsureDefaultAdmin creates the configured admin if the directory is empty.
// It does nothing when no default user is configured.
func (s *EmployeeService) EnsureDefaultAdmin(ctx context.Context, cfg config.DefaultUserConfig) (bool, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return false, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Employee{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	position := cfg.Position
	if position == "" {
		position = "Administrator"
	}
	_, err := s.Create(ctx, CreateEmployeeInput{
		Username:     cfg.Username,
		Password:     cfg.Password,
		EmployeeData: models.EmployeeData{Position: position},
	}, true)
	if err != nil {
		return false, err
	}
	return true, nil
}
