package api

import (
	"errors"   // Error matching
	"io"       // Empty body detection
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"wallet_ledger/internal/domain" // Domain models
	"wallet_ledger/internal/ledger" // Ledger service

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Wallet identity
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// defaultQueryAmount is used when op_type comes as a query parameter without amount
const defaultQueryAmount int64 = 1000

// CreateWalletRequest represents a wallet creation request
type CreateWalletRequest struct {
	Balance int64 `json:"balance"` // Starting balance, may be negative
}

// OperationRequest represents a deposit or withdrawal
type OperationRequest struct {
	OpType string `json:"op_type" binding:"required"` // deposit or withdraw, any case
	Amount *int64 `json:"amount" binding:"required"`  // Non-negative amount, zero allowed
}

// CreateWalletHandler creates a wallet. The starting balance comes from the
// balance query parameter or the JSON body and defaults to zero.
func CreateWalletHandler(svc *ledger.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateWalletRequest
		if b := c.Query("balance"); b != "" {
			v, err := strconv.ParseInt(b, 10, 64) // Parse query balance
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid balance"})
				return
			}
			req.Balance = v
		} else if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			// Empty body is fine, malformed JSON is not
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		id, err := svc.CreateWallet(c.Request.Context(), req.Balance)
		if err != nil {
			respondError(c, log, err, "Create wallet")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"wallet_id": id})
	}
}

// GetWalletHandler returns the wallet's current balance
func GetWalletHandler(svc *ledger.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		walletID, ok := walletParam(c)
		if !ok {
			return
		}
		balance, err := svc.GetBalance(c.Request.Context(), walletID)
		if err != nil {
			respondError(c, log, err, "Get wallet")
			return
		}
		c.JSON(http.StatusOK, gin.H{"wallet_id": walletID, "balance": balance})
	}
}

// ProcessOperationHandler applies a deposit or withdrawal to the wallet.
// The operation comes as a JSON body, or as op_type/amount query parameters
// where amount defaults to 1000.
func ProcessOperationHandler(svc *ledger.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		walletID, ok := walletParam(c)
		if !ok {
			return
		}
		req, err := bindOperation(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		opType, err := domain.ParseOperationType(req.OpType) // Accepts deposit/DEPOSIT
		if err != nil {
			respondError(c, log, err, "Process operation")
			return
		}
		res, err := svc.ProcessOperation(c.Request.Context(), walletID, opType, *req.Amount)
		if err != nil {
			respondError(c, log, err, "Process operation")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// bindOperation reads the operation from the query string when op_type is there, else from the JSON body
func bindOperation(c *gin.Context) (OperationRequest, error) {
	var req OperationRequest
	if opType, ok := c.GetQuery("op_type"); ok {
		amount := defaultQueryAmount
		if a, ok := c.GetQuery("amount"); ok {
			v, err := strconv.ParseInt(a, 10, 64) // Parse query amount
			if err != nil {
				return req, err
			}
			amount = v
		}
		req.OpType = opType
		req.Amount = &amount
		return req, nil
	}
	err := c.ShouldBindJSON(&req) // Bind JSON request to struct
	return req, err
}

// walletParam parses :wallet_id and answers 400 when it is not a UUID
func walletParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("wallet_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet_id"})
		return uuid.Nil, false
	}
	return id, true
}
