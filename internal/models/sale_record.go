package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "Paid"
	PaymentUnpaid PaymentStatus = "Unpaid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPaid || s == PaymentUnpaid
}

// SaleRecord is written once by sale posting and never updated.
// SellingPrice is per unit.
type SaleRecord struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ItemID        string          `gorm:"type:varchar(36);not null;index" json:"itemId"`
	ItemName      string          `gorm:"size:150;not null" json:"itemName"`
	Description   string          `gorm:"size:500" json:"description"`
	QuantitySold  int             `gorm:"not null" json:"quantitySold"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sellingPrice"`
	PaymentMethod string          `gorm:"size:50;not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus   `gorm:"size:20;not null" json:"paymentStatus"`
	SoldBy        string          `gorm:"size:100" json:"soldBy"`
	OccurredAt    time.Time       `gorm:"not null;index" json:"occurredAt"`
	RecordedAt    time.Time       `gorm:"not null" json:"recordedAt"`
}

func (s *SaleRecord) BeforeCreate(tx *gorm.DB) error {
	s.ID = newID(s.ID)
	return nil
}

// Amount is the line total, selling price times quantity.
func (s SaleRecord) Amount() decimal.Decimal {
	return s.SellingPrice.Mul(decimal.NewFromInt(int64(s.QuantitySold)))
}
