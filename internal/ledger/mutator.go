package ledger

import (
	"context"
	"errors"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/store"

	"github.com/google/uuid"
)

// BalanceUpdater is the storage call the Mutator needs
type BalanceUpdater interface {
	AddToBalance(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
}

// Mutator changes wallet balances in place
type Mutator struct {
	store BalanceUpdater
	tx    Transactor
}

func NewMutator(st BalanceUpdater, tx Transactor) *Mutator {
	return &Mutator{store: st, tx: tx}
}

// ApplyDelta adds delta to the wallet balance and returns the result.
// The arithmetic happens in the database, so concurrent callers never lose updates.
func (m *Mutator) ApplyDelta(ctx context.Context, walletID uuid.UUID, delta int64) (int64, error) {
	var balance int64
	err := m.tx.Run(ctx, "apply_delta", func(ctx context.Context) error {
		b, err := m.store.AddToBalance(ctx, walletID, delta)
		if errors.Is(err, store.ErrNotFound) {
			return domain.NewWalletNotFound(walletID)
		}
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
