package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is a personnel record. Admins are employees with IsAdmin set.
type Employee struct {
	ID           string       `json:"_id" gorm:"type:varchar(36);primaryKey"`
	Username     string       `json:"username" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string       `json:"-" gorm:"column:password;type:varchar(255);not null"`
	EmployeeData EmployeeData `json:"employeeData" gorm:"embedded;embeddedPrefix:employee_"`
	IsAdmin      bool         `json:"isAdmin" gorm:"index;default:false"`
	// Never read or written by any operation.
	IsManager *bool     `json:"isManager,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type EmployeeData struct {
	FirstName string `json:"firstName" gorm:"type:varchar(255)"`
	LastName  string `json:"lastName" gorm:"type:varchar(255)"`
	Position  string `json:"position" gorm:"type:varchar(255);not null"`
	Location  string `json:"location" gorm:"type:varchar(255)"`
	Email     string `json:"email" gorm:"type:varchar(255)"`
}

func (Employee) TableName() string { return "employees" }

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
