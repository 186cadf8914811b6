package services

import (
	"context"
	"errors"

	"trolley-tracker/internal/models"

	"gorm.io/gorm"
)

// LedgerService tracks whether each trolley number is out on rental.
//
// A number is Unregistered (no row), Available (is_outside=false) or
// Outside (is_outside=true). Claims go through a conditional update so two
// rentals racing for the same number cannot both win.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

type UpdateTrolleyNumberInput struct {
	TrolleyNumber *string
	IsOutside     *bool
}

// ClaimForRental claims number in its own transaction.
func (s *LedgerService) ClaimForRental(ctx context.Context, number string, outside bool) (*models.TrolleyNumber, error) {
	var entry *models.TrolleyNumber
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.claim(tx, number, outside)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SetState sets the outside flag of an existing number.
func (s *LedgerService) SetState(ctx context.Context, number string, outside bool) error {
	return s.setState(s.db.WithContext(ctx), number, outside)
}

// claim registers an unknown number with the requested flag, or moves an
// available number to the requested flag. An outside number is rejected.
// tx must be a transaction when the caller writes anything else.
func (s *LedgerService) claim(tx *gorm.DB, number string, outside bool) (*models.TrolleyNumber, error) {
	var entry models.TrolleyNumber
	err := tx.Where("trolley_number = ?", number).First(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = models.TrolleyNumber{TrolleyNumber: number, IsOutside: outside}
		err := tx.Create(&entry).Error
		if err == nil {
			return &entry, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
		// Registered concurrently; compete for it like any existing number.
	case err != nil:
		return nil, err
	case entry.IsOutside:
		return nil, ErrAlreadyOutside
	}

	res := tx.Model(&models.TrolleyNumber{}).
		Where("trolley_number = ? AND is_outside = ?", number, false).
		Update("is_outside", outside)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyOutside
	}

	if err := tx.Where("trolley_number = ?", number).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *LedgerService) setState(tx *gorm.DB, number string, outside bool) error {
	res := tx.Model(&models.TrolleyNumber{}).
		Where("trolley_number = ?", number).
		Update("is_outside", outside)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTrolleyNumberNotFound
	}
	return nil
}

func (s *LedgerService) find(tx *gorm.DB, number string) (*models.TrolleyNumber, error) {
	var entry models.TrolleyNumber
	if err := tx.Where("trolley_number = ?", number).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrolleyNumberNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Create registers a new trolley number.
func (s *LedgerService) Create(ctx context.Context, number string, outside bool) (*models.TrolleyNumber, error) {
	db := s.db.WithContext(ctx)

	if _, err := s.find(db, number); err == nil {
		return nil, ErrTrolleyNumberExists
	} else if !errors.Is(err, ErrTrolleyNumberNotFound) {
		return nil, err
	}

	entry := &models.TrolleyNumber{TrolleyNumber: number, IsOutside: outside}
	if err := db.Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrTrolleyNumberExists
		}
		return nil, err
	}
	return entry, nil
}

// List returns every trolley number and the total count.
func (s *LedgerService) List(ctx context.Context) (int64, []models.TrolleyNumber, error) {
	entries := []models.TrolleyNumber{}
	if err := s.db.WithContext(ctx).Order("trolley_number").Find(&entries).Error; err != nil {
		return 0, nil, err
	}
	return int64(len(entries)), entries, nil
}

// Get returns a trolley number by its number
func (s *LedgerService) Get(ctx context.Context, number string) (*models.TrolleyNumber, error) {
	return s.find(s.db.WithContext(ctx), number)
}

// Update renames a trolley number or changes its flag.
func (s *LedgerService) Update(ctx context.Context, number string, in UpdateTrolleyNumberInput) (*models.TrolleyNumber, error) {
	db := s.db.WithContext(ctx)

	entry, err := s.find(db, number)
	if err != nil {
		return nil, err
	}

	if in.TrolleyNumber != nil && *in.TrolleyNumber != entry.TrolleyNumber {
		if _, err := s.find(db, *in.TrolleyNumber); err == nil {
			return nil, ErrTrolleyNumberExists
		} else if !errors.Is(err, ErrTrolleyNumberNotFound) {
			return nil, err
		}
		entry.TrolleyNumber = *in.TrolleyNumber
	}
	if in.IsOutside != nil {
		entry.IsOutside = *in.IsOutside
	}

	if err := db.Save(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrTrolleyNumberExists
		}
		return nil, err
	}
	return entry, nil
}

// Delete removes a trolley number.
func (s *LedgerService) Delete(ctx context.Context, number string) error {
	res := s.db.WithContext(ctx).Where("trolley_number = ?", number).Delete(&models.TrolleyNumber{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTrolleyNumberNotFound
	}
	return nil
}
