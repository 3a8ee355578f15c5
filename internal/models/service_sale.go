package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Accepted payment methods for service sales.
const (
	MethodCash  = "Cash"
	MethodMpesa = "M-Pesa"
	MethodCard  = "Card"
)

func ValidServiceMethod(m string) bool {
	switch m {
	case MethodCash, MethodMpesa, MethodCard:
		return true
	}
	return false
}

type ServiceSale struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ServiceType   string          `gorm:"size:150;not null" json:"serviceType"`
	Charges       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"charges"`
	PaymentMethod string          `gorm:"size:20;not null" json:"paymentMethod"`
	Status        PaymentStatus   `gorm:"size:20;not null" json:"status"`
	OccurredAt    datatypes.Date  `gorm:"not null;index" json:"occurredAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (s *ServiceSale) BeforeCreate(tx *gorm.DB) error {
	s.ID = newID(s.ID)
	return nil
}
