package ledger

import (
	"context"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/store"

	"github.com/google/uuid"
)

// OperationInserter is the storage call the Recorder needs
type OperationInserter interface {
	InsertOperation(ctx context.Context, walletID uuid.UUID, opType domain.OperationType, amount int64) (*domain.Operation, error)
}

// Recorder appends operations to a wallet's log
type Recorder struct {
	store OperationInserter
	tx    Transactor
}

func NewRecorder(st OperationInserter, tx Transactor) *Recorder {
	return &Recorder{store: st, tx: tx}
}

// AddOperation inserts one operation row. The wallet's existence is checked by
// the foreign key, not by a prior read, so a missing wallet costs one round trip.
func (r *Recorder) AddOperation(ctx context.Context, walletID uuid.UUID, opType domain.OperationType, amount int64) (*domain.Operation, error) {
	var op *domain.Operation
	err := r.tx.Run(ctx, "add_operation", func(ctx context.Context) error {
		inserted, err := r.store.InsertOperation(ctx, walletID, opType, amount)
		if store.IsForeignKeyViolation(err) {
			return domain.NewWalletNotFound(walletID)
		}
		if err != nil {
			return err
		}
		op = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}
