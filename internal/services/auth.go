package services

import (
	"context"
	"errors"
	"time"

	"trolley-tracker/internal/config"
	"trolley-tracker/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db         *gorm.DB
	bcryptCost int
	tokens     *TokenService
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	cost := cfg.Security.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		db:         db,
		bcryptCost: cost,
		tokens:     NewTokenService(cfg.JWT.Secret, cfg.TokenTTL(), cfg.JWT.Issuer),
	}
}

// Tokens returns the token service used to sign and verify sessions.
func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

// HashPassword hashes a password using bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	return string(bytes), err
}

// VerifyPassword verifies a password against a hash
func (s *AuthService) VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// Authenticate verifies credentials and returns the employee
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.Employee, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.VerifyPassword(employee.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return &employee, nil
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Employee  *models.Employee
}

// Login authenticates and issues a session token carrying the admin flag
// stored on the record.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	employee, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(employee.ID, employee.IsAdmin)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Employee: employee}, nil
}
