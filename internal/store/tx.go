package store

import (
	"context"
	"errors"

	"wallet_ledger/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type txKey struct{}

// TxManager runs functions inside a database transaction bound to the context.
// Store methods called with that context use the transaction.
type TxManager struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewTxManager(gdb *gorm.DB, log logrus.FieldLogger) *TxManager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TxManager{db: gdb, log: log}
}

// Run begins a transaction, or joins the one already carried by ctx, and calls fn.
// The outermost Run commits when fn returns nil and rolls back on an error or panic.
// The error from fn is logged and returned unchanged.
func (m *TxManager) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if err != nil {
		entry := m.log.WithFields(logrus.Fields{"tx": name, "error": err.Error()})
		if errors.Is(err, domain.ErrWalletNotFound) || errors.Is(err, domain.ErrOperationNotFound) {
			entry.Warn("Transaction rolled back")
		} else {
			entry.Error("Transaction rolled back")
		}
	}
	return err
}

// InTx reports whether ctx carries an open transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}
