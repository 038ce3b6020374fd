package store

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/testutil"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *TxManager) {
	t.Helper()
	gdb := testutil.NewTestDB(t)
	log, _ := test.NewNullLogger()
	return New(gdb), NewTxManager(gdb, log)
}

func TestCreateAndGetWallet(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	id, err := s.CreateWallet(ctx, -40)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	w, err := s.GetWallet(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, w.ID)
	assert.Equal(t, int64(-40), w.Balance)
	assert.Empty(t, w.Operations)

	balance, err := s.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(-40), balance)
}

func TestGetWalletNotFound(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.GetWallet(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetBalance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddToBalance(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, err := s.CreateWallet(ctx, 100)
	require.NoError(t, err)

	balance, err := s.AddToBalance(ctx, id, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	balance, err = s.AddToBalance(ctx, id, -30)
	require.NoError(t, err)
	assert.Equal(t, int64(120), balance)

	balance, err = s.AddToBalance(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(120), balance)

	_, err = s.AddToBalance(ctx, uuid.New(), 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertOperationForeignKey(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.InsertOperation(ctx, uuid.New(), domain.OperationDeposit, 10)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
}

func TestOperationsLookupAndList(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, err := s.CreateWallet(ctx, 0)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, amount := range []int64{10, 20, 30} {
		op, err := s.InsertOperation(ctx, id, domain.OperationDeposit, amount)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, op.ID)
		ids = append(ids, op.ID)
	}

	op, err := s.GetOperation(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, int64(20), op.Amount)
	assert.Equal(t, id, op.WalletID)

	_, err = s.GetOperation(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	page, total, err := s.ListOperations(ctx, id, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	page, _, err = s.ListOperations(ctx, id, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	n, err := s.CountOperations(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	w, err := s.GetWallet(ctx, id)
	require.NoError(t, err)
	require.Len(t, w.Operations, 3)
}

func TestOperationsWithSameTimestampOrderByID(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, err := s.CreateWallet(ctx, 0)
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Millisecond)
	var ids []string
	for i := 0; i < 4; i++ {
		op := domain.Operation{ID: uuid.New(), WalletID: id, Type: domain.OperationDeposit, Amount: 1, CreatedAt: at}
		require.NoError(t, s.db.Create(&op).Error)
		ids = append(ids, op.ID.String())
	}
	sort.Strings(ids)

	w, err := s.GetWallet(ctx, id)
	require.NoError(t, err)
	require.Len(t, w.Operations, 4)
	for i, op := range w.Operations {
		assert.Equal(t, ids[i], op.ID.String())
	}

	// pages never overlap or skip rows that share a timestamp
	var listed []string
	for offset := 0; offset < 4; offset += 2 {
		page, _, err := s.ListOperations(ctx, id, 2, offset)
		require.NoError(t, err)
		for _, op := range page {
			listed = append(listed, op.ID.String())
		}
	}
	assert.Equal(t, []string{ids[3], ids[2], ids[1], ids[0]}, listed)
}

func TestDeletingWalletCascadesToOperations(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, err := s.CreateWallet(ctx, 0)
	require.NoError(t, err)
	other, err := s.CreateWallet(ctx, 0)
	require.NoError(t, err)

	for _, walletID := range []uuid.UUID{id, id, other} {
		_, err := s.InsertOperation(ctx, walletID, domain.OperationDeposit, 5)
		require.NoError(t, err)
	}

	require.NoError(t, s.db.Delete(&domain.Wallet{}, "id = ?", id).Error)

	n, err := s.CountOperations(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = s.CountOperations(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	s, tx := newStore(t)
	ctx := context.Background()
	id, err := s.CreateWallet(ctx, 100)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = tx.Run(ctx, "test", func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		if _, err := s.InsertOperation(ctx, id, domain.OperationDeposit, 5); err != nil {
			return err
		}
		if _, err := s.AddToBalance(ctx, id, 5); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)

	w, err := s.GetWallet(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
	assert.Empty(t, w.Operations)
}

func TestTxManagerRollsBackOnPanic(t *testing.T) {
	s, tx := newStore(t)
	ctx := context.Background()
	id, err := s.CreateWallet(ctx, 1)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = tx.Run(ctx, "test", func(ctx context.Context) error {
			if _, err := s.AddToBalance(ctx, id, 9); err != nil {
				return err
			}
			panic("mid-transaction")
		})
	})

	w, err := s.GetWallet(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Balance)
}

func TestTxManagerJoinsOuterScope(t *testing.T) {
	s, tx := newStore(t)
	ctx := context.Background()
	id, err := s.CreateWallet(ctx, 0)
	require.NoError(t, err)

	outerErr := errors.New("outer failed")
	err = tx.Run(ctx, "outer", func(ctx context.Context) error {
		innerErr := tx.Run(ctx, "inner", func(ctx context.Context) error {
			_, err := s.AddToBalance(ctx, id, 7)
			return err
		})
		require.NoError(t, innerErr)
		return outerErr
	})
	assert.ErrorIs(t, err, outerErr)

	w, err := s.GetWallet(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance, "inner scope must not commit on its own")
}

func TestTxManagerLogsFailures(t *testing.T) {
	gdb := testutil.NewTestDB(t)
	log, hook := test.NewNullLogger()
	tx := NewTxManager(gdb, log)
	ctx := context.Background()

	_ = tx.Run(ctx, "missing", func(context.Context) error {
		return domain.NewWalletNotFound(uuid.New())
	})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "missing", hook.LastEntry().Data["tx"])

	_ = tx.Run(ctx, "broken", func(context.Context) error {
		return errors.New("disk on fire")
	})
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Len(t, hook.AllEntries(), 2)
}
