package services

import (
	"context"
	"strings"
	"time"

	"trolley-tracker/internal/models"

	"gorm.io/gorm"
)

const (
	DefaultAction = "User performed an action"
	DefaultPage   = "Unknown Page"
)

type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Append records an action for the employee. The entry always carries the
// request method and a page.
func (s *AuditService) Append(ctx context.Context, employeeID, action, method string, details map[string]any) (*models.UserLog, error) {
	if employeeID == "" {
		return nil, ErrNoSubject
	}
	if strings.TrimSpace(action) == "" {
		action = DefaultAction
	}

	merged := map[string]any{"method": method}
	for k, v := range details {
		merged[k] = v
	}
	if page, ok := merged["page"]; !ok || page == nil || page == "" {
		merged["page"] = DefaultPage
	}

	entry := &models.UserLog{
		EmployeeID: employeeID,
		Action:     action,
		Details:    merged,
		Timestamp:  s.now(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// QueryByDate returns entries logged during the given UTC day, newest
// first. An empty date returns every entry.
func (s *AuditService) QueryByDate(ctx context.Context, date string) ([]models.UserLog, error) {
	q := s.db.WithContext(ctx).Preload("Employee").Order("timestamp desc")

	if strings.TrimSpace(date) != "" {
		start, end, err := dayWindow(date)
		if err != nil {
			return nil, err
		}
		q = q.Where("timestamp >= ? AND timestamp < ?", start, end)
	}

	logs := []models.UserLog{}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// DeleteByDate removes the entries of one UTC day and reports how many
// were removed.
func (s *AuditService) DeleteByDate(ctx context.Context, date string) (int64, error) {
	start, end, err := dayWindow(date)
	if err != nil {
		return 0, err
	}

	res := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Delete(&models.UserLog{})
	return res.RowsAffected, res.Error
}

// dayWindow accepts YYYY-MM-DD or an RFC3339 timestamp and returns the
// half-open UTC day containing it.
func dayWindow(date string) (time.Time, time.Time, error) {
	date = strings.TrimSpace(date)

	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		ts, perr := time.Parse(time.RFC3339, date)
		if perr != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
		ts = ts.UTC()
		day = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}

	return day, day.AddDate(0, 0, 1), nil
}
