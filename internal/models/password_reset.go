package models

import (
	"time"

	"gorm.io/gorm"
)

// PasswordReset stores only the SHA-256 of the emailed token.
type PasswordReset struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	UserID    string `gorm:"type:varchar(36);not null;index"`
	TokenHash string `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	p.ID = newID(p.ID)
	return nil
}
