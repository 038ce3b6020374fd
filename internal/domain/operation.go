package domain

import (
	"strings" // Case folding for operation types
	"time"    // Timestamps

	"github.com/google/uuid" // Operation identity
	"gorm.io/gorm"           // GORM hooks
)

// OperationType is the kind of balance change an operation applies
type OperationType string

// Operation types as stored in the operations table
const (
	OperationDeposit  OperationType = "DEPOSIT"
	OperationWithdraw OperationType = "WITHDRAW"
)

// ParseOperationType accepts deposit/withdraw in any letter case
func ParseOperationType(s string) (OperationType, error) {
	t := OperationType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidOperationType
	}
	return t, nil
}

// IsValid reports whether t is a known operation type
func (t OperationType) IsValid() bool {
	switch t {
	case OperationDeposit, OperationWithdraw:
		return true
	}
	return false
}

// Sign is -1 for withdrawals and +1 for deposits
func (t OperationType) Sign() int64 {
	if t == OperationWithdraw {
		return -1
	}
	return 1
}

// Operation Model
type Operation struct {
	ID        uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`                                         // Primary key
	WalletID  uuid.UUID     `gorm:"type:char(36);not null;index" json:"wallet_id"`                              // Owning wallet, never changes
	Wallet    *Wallet       `gorm:"foreignKey:WalletID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // FK wallets.id, cascade delete
	Type      OperationType `gorm:"type:varchar(16);not null" json:"op_type"`                                   // DEPOSIT or WITHDRAW
	Amount    int64         `gorm:"not null" json:"amount"`                                                     // Unsigned magnitude, sign comes from Type
	CreatedAt time.Time     `gorm:"autoCreateTime;precision:6" json:"created_at"`                               // Insertion time
}

// BeforeCreate assigns the operation identity before insert
func (o *Operation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Delta is the signed amount this operation adds to the wallet balance
func (o Operation) Delta() int64 {
	return o.Type.Sign() * o.Amount
}
