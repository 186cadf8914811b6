package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrolleyNumber is the availability ledger entry for one physical trolley.
type TrolleyNumber struct {
	ID            string    `json:"_id" gorm:"type:varchar(36);primaryKey"`
	TrolleyNumber string    `json:"trolleyNumber" gorm:"type:varchar(100);uniqueIndex;not null"`
	IsOutside     bool      `json:"isOutside" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (TrolleyNumber) TableName() string { return "trolley_numbers" }

func (n *TrolleyNumber) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// TrolleyNumberInfo is the snapshot of a ledger entry stored on a rental.
// It is a copy, not a reference: the ledger and the rental are updated
// separately.
type TrolleyNumberInfo struct {
	TrolleyNumber string `json:"trolleyNumber" gorm:"type:varchar(100);index;not null"`
	IsOutside     bool   `json:"isOutside" gorm:"not null;default:false"`
}

// Trolley is a rental record keyed by its balance number.
type Trolley struct {
	ID                string            `json:"_id" gorm:"type:varchar(36);primaryKey"`
	TrolleyNumberInfo TrolleyNumberInfo `json:"trolleyNumberInfo" gorm:"embedded;embeddedPrefix:info_"`
	BalanceNumber     string            `json:"balanceNumber" gorm:"type:varchar(100);uniqueIndex;not null"`
	DepartureTime     time.Time         `json:"departureTime" gorm:"not null"`
	ReturnTime        *time.Time        `json:"returnTime"`
	PickupLocation    string            `json:"pickupLocation" gorm:"type:varchar(255)"`
	DeliveryLocation  string            `json:"deliveryLocation" gorm:"type:varchar(255)"`
	Customer          string            `json:"customer" gorm:"type:varchar(255)"`
	SecurityDeposit   float64           `json:"securityDeposit" gorm:"not null"`
	RentalAmount      float64           `json:"rentalAmount" gorm:"not null"`
	RemainingAmount   *float64          `json:"remainingAmount"`
	Staff             string            `json:"staff" gorm:"type:varchar(255)"`
	BalancePrintDate  *time.Time        `json:"balancePrintDate"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

func (Trolley) TableName() string { return "trolleys" }

func (t *Trolley) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
