package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BillStatus string

const (
	BillUnpaid BillStatus = "unpaid"
	BillPaid   BillStatus = "paid"
)

func (s BillStatus) Valid() bool {
	return s == BillUnpaid || s == BillPaid
}

// PendingBill moves from unpaid to paid only. Paid is terminal.
type PendingBill struct {
	ID                 string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	PayerName          string          `gorm:"size:150;not null" json:"payerName"`
	ServiceDescription string          `gorm:"size:500;not null" json:"serviceDescription"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status             BillStatus      `gorm:"size:10;not null;index" json:"status"`
	DueDate            datatypes.Date  `gorm:"not null" json:"dueDate"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (b *PendingBill) BeforeCreate(tx *gorm.DB) error {
	b.ID = newID(b.ID)
	return nil
}
