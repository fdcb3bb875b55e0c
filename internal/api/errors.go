package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/multidb/internal/apperr"
	"github.com/zulandar/multidb/internal/logging"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation, apperr.UnsupportedEngine, apperr.DangerousStatement:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.ProvisioningFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"message", "kind"}. Errors without a kind are
// logged and reported as internal errors without detail.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		logging.Printf("api: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	if kind == apperr.TwoPhaseInconsistency {
		logging.Printf("api: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(statusFor(kind), gin.H{"message": apperr.MessageOf(err), "kind": kind})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg, "kind": apperr.Validation})
}
