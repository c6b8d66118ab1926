package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gymplanner/internal/domain/scheduling"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// CustomError accepts either a string or an error (or a validation map) as
// message. Errors on 5xx are hidden behind a generic message.
func CustomError(c *gin.Context, statusCode int, code string, message any) {
	switch m := message.(type) {
	case string:
		Error(c, statusCode, code, m)
	case error:
		if statusCode >= http.StatusInternalServerError {
			_ = c.Error(m)
			Error(c, statusCode, code, "Internal server error")
			return
		}
		Error(c, statusCode, code, m.Error())
	default:
		ErrorWithDetails(c, statusCode, code, "Invalid request", m)
	}
}

// StatusFor maps a scheduling error kind to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, scheduling.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduling.ErrOwnership):
		return http.StatusForbidden
	case errors.Is(err, scheduling.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// SchedulingError writes err as an envelope. Scheduling errors carry their
// rule as code and the colliding session in details; anything else is a 500.
func SchedulingError(c *gin.Context, err error) {
	var se *scheduling.Error
	if !errors.As(err, &se) {
		CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}

	code := strings.ToUpper(string(se.Rule))
	if se.SessionID != "" {
		ErrorWithDetails(c, StatusFor(err), code, se.Message, gin.H{"session_id": se.SessionID})
		return
	}
	Error(c, StatusFor(err), code, se.Message)
}
