package ledger

import (
	"context"
	"testing"

	"wallet_ledger/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderAddOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.CreateWallet(ctx, 0)
	require.NoError(t, err)

	rec := NewRecorder(f.store, f.tx)
	op, err := rec.AddOperation(ctx, id, domain.OperationWithdraw, 7)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, op.ID)
	assert.Equal(t, id, op.WalletID)
	assert.Equal(t, int64(-7), op.Delta())

	// recording alone never touches the balance
	balance, err := f.svc.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestRecorderTranslatesForeignKeyViolation(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()

	_, err := NewRecorder(f.store, f.tx).AddOperation(context.Background(), missing, domain.OperationDeposit, 1)
	var notFound *domain.WalletNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.WalletID)
}

func TestMutatorApplyDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.CreateWallet(ctx, 10)
	require.NoError(t, err)

	m := NewMutator(f.store, f.tx)
	balance, err := m.ApplyDelta(ctx, id, -25)
	require.NoError(t, err)
	assert.Equal(t, int64(-15), balance)

	_, err = m.ApplyDelta(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}
