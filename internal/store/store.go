// Package store is the storage access layer for wallets and operations.
// It owns no business rules and never opens transactions itself; callers
// bind one to the context through TxManager.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet_ledger/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no row matches the requested id
var ErrNotFound = errors.New("record not found")

// Store reads and writes ledger rows
type Store struct {
	db *gorm.DB
}

func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// conn returns the transaction bound to ctx, or the base handle
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// CreateWallet inserts a wallet with the given starting balance
func (s *Store) CreateWallet(ctx context.Context, balance int64) (uuid.UUID, error) {
	wallet := domain.Wallet{Balance: balance}
	if err := s.conn(ctx).Create(&wallet).Error; err != nil {
		return uuid.Nil, fmt.Errorf("create wallet: %w", err)
	}
	return wallet.ID, nil
}

// GetWallet fetches a wallet together with its operations, oldest first
func (s *Store) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := s.conn(ctx).
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&wallet, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &wallet, nil
}

// GetBalance reads the current balance without loading operations
func (s *Store) GetBalance(ctx context.Context, id uuid.UUID) (int64, error) {
	var wallet domain.Wallet
	err := s.conn(ctx).Select("id", "balance").First(&wallet, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return wallet.Balance, nil
}

// AddToBalance runs balance = balance + delta as one UPDATE and returns the new balance.
// It never reads the balance into the application before writing it.
func (s *Store) AddToBalance(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	db := s.conn(ctx)
	now := time.Now().UTC()

	if supportsReturning(db) {
		var row struct{ Balance int64 }
		res := db.Raw(
			"UPDATE wallets SET balance = balance + ?, updated_at = ? WHERE id = ? RETURNING balance",
			delta, now, id,
		).Scan(&row)
		if res.Error != nil {
			return 0, fmt.Errorf("add to balance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return 0, ErrNotFound
		}
		return row.Balance, nil
	}

	// MySQL has no RETURNING. The UPDATE keeps the row locked until the
	// enclosing transaction ends, so the read below sees exactly this write.
	res := db.Exec("UPDATE wallets SET balance = balance + ?, updated_at = ? WHERE id = ?", delta, now, id)
	if res.Error != nil {
		return 0, fmt.Errorf("add to balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	var row struct{ Balance int64 }
	if err := db.Raw("SELECT balance FROM wallets WHERE id = ?", id).Scan(&row).Error; err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return row.Balance, nil
}

// InsertOperation appends an operation row. A wallet id with no matching
// wallet is rejected by the foreign key and returned as gorm.ErrForeignKeyViolated.
func (s *Store) InsertOperation(ctx context.Context, walletID uuid.UUID, opType domain.OperationType, amount int64) (*domain.Operation, error) {
	op := domain.Operation{
		WalletID: walletID,
		Type:     opType,
		Amount:   amount,
	}
	if err := s.conn(ctx).Create(&op).Error; err != nil {
		return nil, fmt.Errorf("insert operation: %w", err)
	}
	return &op, nil
}

// GetOperation fetches a single operation
func (s *Store) GetOperation(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	var op domain.Operation
	err := s.conn(ctx).First(&op, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get operation: %w", err)
	}
	return &op, nil
}

// ListOperations returns one page of a wallet's operations, newest first, and the total count
func (s *Store) ListOperations(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Operation, int64, error) {
	db := s.conn(ctx)
	var total int64
	if err := db.Model(&domain.Operation{}).Where("wallet_id = ?", walletID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count operations: %w", err)
	}
	ops := make([]domain.Operation, 0, limit)
	err := db.Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&ops).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list operations: %w", err)
	}
	return ops, total, nil
}

// CountOperations returns how many operations reference walletID
func (s *Store) CountOperations(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&domain.Operation{}).Where("wallet_id = ?", walletID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count operations: %w", err)
	}
	return n, nil
}

// IsForeignKeyViolation reports whether err came from a rejected foreign key
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

func supportsReturning(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		return true
	}
	return false
}
