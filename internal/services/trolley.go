package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"trolley-tracker/internal/events"
	"trolley-tracker/internal/models"

	"gorm.io/gorm"
)

// TrolleyService manages rentals. Every write that touches a rental and the
// ledger runs in one transaction.
type TrolleyService struct {
	db         *gorm.DB
	ledger     *LedgerService
	publisher  events.Publisher
	logger     *slog.Logger
	onConflict func(number string)
	now        func() time.Time
}

func NewTrolleyService(db *gorm.DB, ledger *LedgerService, publisher events.Publisher, logger *slog.Logger) *TrolleyService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrolleyService{
		db:        db,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OnConflict registers a callback run whenever a claim is rejected because
// the number is already outside.
func (s *TrolleyService) OnConflict(fn func(number string)) {
	s.onConflict = fn
}

type CreateTrolleyInput struct {
	TrolleyNumber    string
	IsOutside        bool
	BalanceNumber    string
	DepartureTime    time.Time
	ReturnTime       *time.Time
	PickupLocation   string
	DeliveryLocation string
	Customer         string
	SecurityDeposit  float64
	RentalAmount     float64
	RemainingAmount  *float64
	Staff            string
	BalancePrintDate *time.Time
}

// UpdateTrolleyInput carries a by-balance update. TrolleyNumber is
// required; nil fields keep their current value.
type UpdateTrolleyInput struct {
	TrolleyNumber    string
	IsOutside        *bool
	BalanceNumber    *string
	DepartureTime    *time.Time
	ReturnTime       *time.Time
	PickupLocation   *string
	DeliveryLocation *string
	Customer         *string
	SecurityDeposit  *float64
	RentalAmount     *float64
	RemainingAmount  *float64
	Staff            *string
	BalancePrintDate *time.Time
}

// Create claims the trolley number and stores the rental.
func (s *TrolleyService) Create(ctx context.Context, in CreateTrolleyInput) (*models.Trolley, error) {
	if strings.TrimSpace(in.TrolleyNumber) == "" {
		return nil, ErrTrolleyNumberRequired
	}

	var trolley *models.Trolley
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.findByBalance(tx, in.BalanceNumber); err == nil {
			return ErrBalanceNumberExists
		} else if !errors.Is(err, ErrTrolleyNotFound) {
			return err
		}

		entry, err := s.ledger.claim(tx, in.TrolleyNumber, in.IsOutside)
		if err != nil {
			return err
		}

		trolley = &models.Trolley{
			TrolleyNumberInfo: models.TrolleyNumberInfo{
				TrolleyNumber: entry.TrolleyNumber,
				IsOutside:     entry.IsOutside,
			},
			BalanceNumber:    in.BalanceNumber,
			DepartureTime:    in.DepartureTime.UTC(),
			ReturnTime:       utcPtr(in.ReturnTime),
			PickupLocation:   in.PickupLocation,
			DeliveryLocation: in.DeliveryLocation,
			Customer:         in.Customer,
			SecurityDeposit:  in.SecurityDeposit,
			RentalAmount:     in.RentalAmount,
			RemainingAmount:  in.RemainingAmount,
			Staff:            in.Staff,
			BalancePrintDate: utcPtr(in.BalancePrintDate),
		}
		if err := tx.Create(trolley).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrBalanceNumberExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.conflict(err, in.TrolleyNumber)
		return nil, err
	}

	s.publish(ctx, events.TypeRented, trolley)
	return trolley, nil
}

// UpdateByBalanceNumber moves a rental to a registered trolley number and
// applies the given field changes.
func (s *TrolleyService) UpdateByBalanceNumber(ctx context.Context, balanceNumber string, in UpdateTrolleyInput) (*models.Trolley, error) {
	if strings.TrimSpace(in.TrolleyNumber) == "" {
		return nil, ErrTrolleyNumberRequired
	}

	var trolley *models.Trolley
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		trolley, err = s.findByBalance(tx, balanceNumber)
		if err != nil {
			return err
		}

		target, err := s.ledger.find(tx, in.TrolleyNumber)
		if errors.Is(err, ErrTrolleyNumberNotFound) {
			return ErrTrolleyNumberNotAcceptable
		}
		if err != nil {
			return err
		}

		outside := trolley.TrolleyNumberInfo.IsOutside
		if in.IsOutside != nil {
			outside = *in.IsOutside
		}

		if err := s.transition(tx, trolley.TrolleyNumberInfo, target.TrolleyNumber, outside); err != nil {
			return err
		}

		if in.BalanceNumber != nil && *in.BalanceNumber != trolley.BalanceNumber {
			if _, err := s.findByBalance(tx, *in.BalanceNumber); err == nil {
				return ErrBalanceNumberExists
			} else if !errors.Is(err, ErrTrolleyNotFound) {
				return err
			}
			trolley.BalanceNumber = *in.BalanceNumber
		}
		applyTrolleyUpdate(trolley, in)
		trolley.TrolleyNumberInfo = models.TrolleyNumberInfo{
			TrolleyNumber: target.TrolleyNumber,
			IsOutside:     outside,
		}

		if err := tx.Save(trolley).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrBalanceNumberExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.conflict(err, in.TrolleyNumber)
		return nil, err
	}

	s.publish(ctx, events.TypeUpdated, trolley)
	return trolley, nil
}

// UpdateByTrolleyNumber sets the outside flag on the rental holding number:
// the one that has it outside, otherwise the oldest.
func (s *TrolleyService) UpdateByTrolleyNumber(ctx context.Context, number string, outside bool) (*models.Trolley, error) {
	var trolley models.Trolley
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("info_trolley_number = ?", number).
			Order("info_is_outside desc").
			Order("created_at").
			First(&trolley).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTrolleyNotFound
		}
		if err != nil {
			return err
		}

		if _, err := s.ledger.find(tx, number); err != nil {
			if errors.Is(err, ErrTrolleyNumberNotFound) {
				return ErrTrolleyNumberNotAcceptable
			}
			return err
		}

		if err := s.transition(tx, trolley.TrolleyNumberInfo, number, outside); err != nil {
			return err
		}

		trolley.TrolleyNumberInfo.IsOutside = outside
		return tx.Model(&trolley).Update("info_is_outside", outside).Error
	})
	if err != nil {
		s.conflict(err, number)
		return nil, err
	}

	s.publish(ctx, events.TypeUpdated, &trolley)
	return &trolley, nil
}

// transition moves a rental from held to number on the ledger. Taking a
// number outside always goes through claim, and a number is only released
// by the rental that held it outside.
func (s *TrolleyService) transition(tx *gorm.DB, held models.TrolleyNumberInfo, number string, outside bool) error {
	same := held.TrolleyNumber == number

	if outside && !(same && held.IsOutside) {
		if _, err := s.ledger.claim(tx, number, true); err != nil {
			return err
		}
	}

	if held.IsOutside && !(same && outside) {
		err := s.ledger.setState(tx, held.TrolleyNumber, false)
		if err != nil && !errors.Is(err, ErrTrolleyNumberNotFound) {
			return err
		}
	}
	return nil
}

// FindByTrolleyNumber returns every rental recorded against number.
func (s *TrolleyService) FindByTrolleyNumber(ctx context.Context, number string) ([]models.Trolley, error) {
	var trolleys []models.Trolley
	if err := s.db.WithContext(ctx).Where("info_trolley_number = ?", number).Order("created_at").Find(&trolleys).Error; err != nil {
		return nil, err
	}
	if len(trolleys) == 0 {
		return nil, ErrTrolleysNotFound
	}
	return trolleys, nil
}

// DeleteByBalanceNumber removes a rental. The ledger entry is left as is.
func (s *TrolleyService) DeleteByBalanceNumber(ctx context.Context, balanceNumber string) error {
	db := s.db.WithContext(ctx)

	trolley, err := s.findByBalance(db, balanceNumber)
	if err != nil {
		return err
	}

	res := db.Delete(&models.Trolley{}, "id = ?", trolley.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTrolleyNotFound
	}

	s.publish(ctx, events.TypeDeleted, trolley)
	return nil
}

// ListAll returns every rental and the total count.
func (s *TrolleyService) ListAll(ctx context.Context) (int64, []models.Trolley, error) {
	trolleys := []models.Trolley{}
	if err := s.db.WithContext(ctx).Order("created_at").Find(&trolleys).Error; err != nil {
		return 0, nil, err
	}
	return int64(len(trolleys)), trolleys, nil
}

// GetByBalanceNumber returns one rental
func (s *TrolleyService) GetByBalanceNumber(ctx context.Context, balanceNumber string) (*models.Trolley, error) {
	return s.findByBalance(s.db.WithContext(ctx), balanceNumber)
}

func (s *TrolleyService) findByBalance(tx *gorm.DB, balanceNumber string) (*models.Trolley, error) {
	var trolley models.Trolley
	if err := tx.Where("balance_number = ?", balanceNumber).First(&trolley).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrolleyNotFound
		}
		return nil, err
	}
	return &trolley, nil
}

func (s *TrolleyService) publish(ctx context.Context, kind string, t *models.Trolley) {
	event := events.Event{
		Type:          kind,
		BalanceNumber: t.BalanceNumber,
		TrolleyNumber: t.TrolleyNumberInfo.TrolleyNumber,
		IsOutside:     t.TrolleyNumberInfo.IsOutside,
		OccurredAt:    s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish rental event",
			"type", kind,
			"balance_number", t.BalanceNumber,
			"error", err,
		)
	}
}

func (s *TrolleyService) conflict(err error, number string) {
	if s.onConflict != nil && errors.Is(err, ErrAlreadyOutside) {
		s.onConflict(number)
	}
}

func applyTrolleyUpdate(t *models.Trolley, in UpdateTrolleyInput) {
	if in.DepartureTime != nil {
		t.DepartureTime = in.DepartureTime.UTC()
	}
	if in.ReturnTime != nil {
		t.ReturnTime = utcPtr(in.ReturnTime)
	}
	if in.PickupLocation != nil {
		t.PickupLocation = *in.PickupLocation
	}
	if in.DeliveryLocation != nil {
		t.DeliveryLocation = *in.DeliveryLocation
	}
	if in.Customer != nil {
		t.Customer = *in.Customer
	}
	if in.SecurityDeposit != nil {
		t.SecurityDeposit = *in.SecurityDeposit
	}
	if in.RentalAmount != nil {
		t.RentalAmount = *in.RentalAmount
	}
	if in.RemainingAmount != nil {
		v := *in.RemainingAmount
		t.RemainingAmount = &v
	}
	if in.Staff != nil {
		t.Staff = *in.Staff
	}
	if in.BalancePrintDate != nil {
		t.BalancePrintDate = utcPtr(in.BalancePrintDate)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
