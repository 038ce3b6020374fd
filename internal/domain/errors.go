package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrOperationNotFound    = errors.New("operation not found")
	ErrInvalidAmount        = errors.New("amount must not be negative")
	ErrInvalidOperationType = errors.New("operation type must be deposit or withdraw")
)

// WalletNotFoundError reports the wallet id that could not be found.
// errors.Is(err, ErrWalletNotFound) holds for it.
type WalletNotFoundError struct {
	WalletID uuid.UUID
}

func NewWalletNotFound(walletID uuid.UUID) *WalletNotFoundError {
	return &WalletNotFoundError{WalletID: walletID}
}

func (e *WalletNotFoundError) Error() string {
	return fmt.Sprintf("wallet with wallet_id=%s not found", e.WalletID)
}

func (e *WalletNotFoundError) Is(target error) bool {
	return target == ErrWalletNotFound
}
