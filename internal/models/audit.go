package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserLog records an action reported by an authenticated employee.
// Details is free-form; only the "page" key is guaranteed.
type UserLog struct {
	ID         string         `json:"_id" gorm:"type:varchar(36);primaryKey"`
	EmployeeID string         `json:"-" gorm:"type:varchar(36);not null;index"`
	Employee   *LogEmployee   `json:"employeeId" gorm:"foreignKey:EmployeeID;-:migration"`
	Action     string         `json:"action" gorm:"type:varchar(255);not null"`
	Details    map[string]any `json:"details" gorm:"type:text;serializer:json"`
	Timestamp  time.Time      `json:"timestamp" gorm:"not null;index"`
}

func (UserLog) TableName() string { return "user_logs" }

func (l *UserLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	return nil
}

// LogEmployee is the populated view of the employee behind a log entry.
// Entries for deleted employees keep their id but load no employee.
type LogEmployee struct {
	ID       string `json:"_id" gorm:"type:varchar(36);primaryKey"`
	Username string `json:"username" gorm:"type:varchar(255)"`
}

func (LogEmployee) TableName() string { return "employees" }
