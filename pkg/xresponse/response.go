package xresponse

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response represents standard API response format
type Response struct {
	Code      int         `json:"code"`
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorResponse represents error response format
type ErrorResponse struct {
	Code      int         `json:"code"`
	Status    string      `json:"status"`
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Common error codes
const (
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeTransportUnavailable = "TRANSPORT_UNAVAILABLE"
	ErrCodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
)

// Success sends success response
func Success(c *gin.Context, message string, data interface{}) {
	response := Response{
		Code:      http.StatusOK,
		Status:    "success",
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	c.JSON(http.StatusOK, response)
}

// Accepted sends accepted response (202). Acceptance means the work is
// durably queued, not that it has been applied.
func Accepted(c *gin.Context, message string, data interface{}) {
	response := Response{
		Code:      http.StatusAccepted,
		Status:    "accepted",
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	c.JSON(http.StatusAccepted, response)
}

// Error sends error response
func Error(c *gin.Context, statusCode int, errorCode, message string) {
	response := ErrorResponse{
		Code:      statusCode,
		Status:    "error",
		ErrorCode: errorCode,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
	c.JSON(statusCode, response)
}

// BadRequest sends 400 Bad Request response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, ErrCodeValidationFailed, message)
}

// Forbidden sends 403 Forbidden response
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound sends 404 Not Found response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// AccountNotFound sends 404 Account Not Found error response
func AccountNotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, ErrCodeAccountNotFound, message)
}

// InternalServerError sends 500 Internal Server Error response
func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// TransportUnavailable sends 500 Transport Unavailable error response
func TransportUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, ErrCodeTransportUnavailable, message)
}
