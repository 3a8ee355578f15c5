package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem is never hard-deleted. QuantityOnHand is decremented only by sale posting
// or set directly by an admin edit.
type InventoryItem struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name           string          `gorm:"size:150;not null;index" json:"name"`
	Description    string          `gorm:"size:500;not null" json:"description"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	QuantityOnHand int             `gorm:"not null;check:quantity_on_hand >= 0" json:"quantityOnHand"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	i.ID = newID(i.ID)
	return nil
}
