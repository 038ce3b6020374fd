package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"wallet_ledger/internal/domain" // Domain errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// respondError maps a domain error to its HTTP status and writes the JSON error body
func respondError(c *gin.Context, log logrus.FieldLogger, err error, action string) {
	switch {
	case errors.Is(err, domain.ErrWalletNotFound), errors.Is(err, domain.ErrOperationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidOperationType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		// Storage faults are logged with detail but not echoed to the client
		log.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error(action + " failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": action + " failed"})
	}
}
