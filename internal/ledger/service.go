// Package ledger holds the wallet ledger business rules: recording
// operations and keeping each wallet's balance in step with its log.
package ledger

import (
	"context"
	"errors"
	"time"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/metrics"
	"wallet_ledger/internal/store"
	"wallet_ledger/internal/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Transactor runs fn inside a transaction bound to ctx
type Transactor interface {
	Run(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Store is the storage surface the Service reads and writes through
type Store interface {
	OperationInserter
	BalanceUpdater
	CreateWallet(ctx context.Context, balance int64) (uuid.UUID, error)
	GetBalance(ctx context.Context, id uuid.UUID) (int64, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetOperation(ctx context.Context, id uuid.UUID) (*domain.Operation, error)
	ListOperations(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Operation, int64, error)
}

type OperationRecorder interface {
	AddOperation(ctx context.Context, walletID uuid.UUID, opType domain.OperationType, amount int64) (*domain.Operation, error)
}

type BalanceMutator interface {
	ApplyDelta(ctx context.Context, walletID uuid.UUID, delta int64) (int64, error)
}

// OperationResult is what a processed operation leaves behind
type OperationResult struct {
	Operation *domain.Operation `json:"operation"`
	Balance   int64             `json:"balance"`
}

// OperationPage is one page of a wallet's history, newest first
type OperationPage struct {
	Operations []domain.Operation `json:"operations"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	Total      int64              `json:"total"`
	TotalPages int                `json:"total_pages"`
}

// Service is the entry point for wallet operations
type Service struct {
	store    Store
	tx       Transactor
	recorder OperationRecorder
	mutator  BalanceMutator
	cache    redis.Cmdable
	log      logrus.FieldLogger
}

type Option func(*Service)

// WithCache enables history version bumps after each operation, which retire cached pages
func WithCache(rdb redis.Cmdable) Option {
	return func(s *Service) { s.cache = rdb }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithRecorder replaces the default Recorder
func WithRecorder(r OperationRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithMutator replaces the default Mutator
func WithMutator(m BalanceMutator) Option {
	return func(s *Service) { s.mutator = m }
}

func NewService(st Store, tx Transactor, opts ...Option) *Service {
	s := &Service{
		store:    st,
		tx:       tx,
		recorder: NewRecorder(st, tx),
		mutator:  NewMutator(st, tx),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateWallet creates a wallet holding balance. Negative balances are accepted.
func (s *Service) CreateWallet(ctx context.Context, balance int64) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.tx.Run(ctx, "create_wallet", func(ctx context.Context) error {
		created, err := s.store.CreateWallet(ctx, balance)
		if err != nil {
			return err
		}
		id = created
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	metrics.RecordWalletCreated()
	s.log.WithFields(logrus.Fields{
		"wallet_id": id,
		"balance":   balance,
	}).Info("Wallet created")
	return id, nil
}

// GetBalance returns the wallet's current balance
func (s *Service) GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	balance, err := s.store.GetBalance(ctx, walletID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, domain.NewWalletNotFound(walletID)
	}
	return balance, err
}

// GetWallet returns the wallet with its full operation log
func (s *Service) GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.store.GetWallet(ctx, walletID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.NewWalletNotFound(walletID)
	}
	return w, err
}

func (s *Service) GetOperation(ctx context.Context, id uuid.UUID) (*domain.Operation, error) {
	op, err := s.store.GetOperation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrOperationNotFound
	}
	return op, err
}

// ListOperations returns one page of the wallet's history.
// page starts at 1; pageSize is clamped to MaxPageSize.
func (s *Service) ListOperations(ctx context.Context, walletID uuid.UUID, page, pageSize int) (*OperationPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if _, err := s.GetBalance(ctx, walletID); err != nil {
		return nil, err
	}
	ops, total, err := s.store.ListOperations(ctx, walletID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &OperationPage{
		Operations: ops,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

// ProcessOperation records a deposit or withdrawal and applies it to the
// balance in one transaction. Either both happen or neither does.
// Withdrawals may take the balance below zero.
func (s *Service) ProcessOperation(ctx context.Context, walletID uuid.UUID, opType domain.OperationType, amount int64) (*OperationResult, error) {
	start := time.Now()
	if !opType.IsValid() {
		metrics.RecordOperation(string(opType), "invalid", time.Since(start))
		return nil, domain.ErrInvalidOperationType
	}
	if amount < 0 {
		metrics.RecordOperation(string(opType), "invalid", time.Since(start))
		return nil, domain.ErrInvalidAmount
	}

	var result OperationResult
	err := s.tx.Run(ctx, "process_operation", func(ctx context.Context) error {
		op, err := s.recorder.AddOperation(ctx, walletID, opType, amount)
		if err != nil {
			return err
		}
		balance, err := s.mutator.ApplyDelta(ctx, walletID, opType.Sign()*amount)
		if err != nil {
			return err
		}
		result = OperationResult{Operation: op, Balance: balance}
		return nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrWalletNotFound) {
			outcome = "not_found"
		}
		metrics.RecordOperation(string(opType), outcome, time.Since(start))
		return nil, err
	}

	metrics.RecordOperation(string(opType), "ok", time.Since(start))
	s.invalidateHistory(ctx, walletID)
	s.log.WithFields(logrus.Fields{
		"wallet_id":    walletID,
		"operation_id": result.Operation.ID,
		"op_type":      opType,
		"amount":       amount,
		"balance":      result.Balance,
	}).Info("Operation processed")
	return &result, nil
}

func (s *Service) invalidateHistory(ctx context.Context, walletID uuid.UUID) {
	if s.cache == nil {
		return
	}
	// The operation is committed, so the bump must happen even if the caller went away
	if err := utils.BumpHistoryVersion(context.WithoutCancel(ctx), s.cache, walletID); err != nil {
		s.log.WithFields(logrus.Fields{
			"wallet_id": walletID,
			"error":     err.Error(),
		}).Warn("Failed to invalidate history cache")
	}
}
