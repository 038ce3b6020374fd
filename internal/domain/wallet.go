package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Wallet identity
	"gorm.io/gorm"           // GORM hooks
)

// Wallet Model
type Wallet struct {
	ID         uuid.UUID   `gorm:"type:char(36);primaryKey" json:"id"`                                                  // Primary key
	Balance    int64       `gorm:"not null;default:0" json:"balance"`                                                   // Cached projection of the operation log
	Operations []Operation `gorm:"foreignKey:WalletID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"operations"` // Ledger rows, insertion ordered
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`                                                    // Creation time
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at,omitempty"`                                          // Last balance change
}

// BeforeCreate assigns the wallet identity before insert
func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New() // Generate a new UUID when the caller did not set one
	}
	return nil
}
