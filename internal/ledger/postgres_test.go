package ledger

import (
	"context"
	"os"
	"sync"
	"testing"

	"wallet_ledger/internal/db"
	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/store"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresFixture connects to TEST_POSTGRES_DSN with a real connection
// pool, so concurrent operations run in separate transactions.
func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	log, _ := test.NewNullLogger()
	gdb, err := gorm.Open(postgres.Open(dsn), db.Options(log))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	require.NoError(t, db.Migrate(gdb, log))

	st := store.New(gdb)
	tx := store.NewTxManager(gdb, log)
	return &fixture{store: st, tx: tx, svc: NewService(st, tx, WithLogger(log))}
}

func TestPostgresParallelOperationsKeepEveryUpdate(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	id, err := f.svc.CreateWallet(ctx, 0)
	require.NoError(t, err)

	const deposits, withdrawals = 40, 20
	start := make(chan struct{})
	errs := make(chan error, deposits+withdrawals)
	var wg sync.WaitGroup
	run := func(opType domain.OperationType, amount int64) {
		defer wg.Done()
		<-start
		_, err := f.svc.ProcessOperation(ctx, id, opType, amount)
		errs <- err
	}
	for i := 0; i < deposits; i++ {
		wg.Add(1)
		go run(domain.OperationDeposit, 100)
	}
	for i := 0; i < withdrawals; i++ {
		wg.Add(1)
		go run(domain.OperationWithdraw, 50)
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	balance, err := f.svc.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(deposits*100-withdrawals*50), balance)

	n, err := f.store.CountOperations(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(deposits+withdrawals), n)

	w, err := f.svc.GetWallet(ctx, id)
	require.NoError(t, err)
	var sum int64
	for _, op := range w.Operations {
		sum += op.Delta()
	}
	assert.Equal(t, balance, sum)
}
