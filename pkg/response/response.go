package response

import (
	"errors"
	"net/http"
	"time"

	"wallet-settlement/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the current request id.
const RequestIDKey = "request_id"

// SuccessResponse is the envelope for every 2xx body.
type SuccessResponse struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the envelope for every error body. The wrapped cause of
// an AppError never leaves the process.
type ErrorResponse struct {
	ErrorCode string        `json:"error_code"`
	Kind      apperror.Kind `json:"kind"`
	Message   string        `json:"message"`
	RequestID string        `json:"request_id"`
	Timestamp string        `json:"timestamp"`
}

func OK(c *gin.Context, data any) { success(c, http.StatusOK, data) }

func Created(c *gin.Context, data any) { success(c, http.StatusCreated, data) }

// Accepted reports work that was recorded while a side effect, such as
// code delivery, did not happen.
func Accepted(c *gin.Context, data any) { success(c, http.StatusAccepted, data) }

// Error writes err as an error envelope. Errors that are not AppErrors are
// reported as SYS_001.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.InternalError(err)
	}
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Kind:      appErr.Kind,
		Message:   appErr.Message,
		RequestID: requestID(c),
		Timestamp: now(),
	})
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: requestID(c),
		Timestamp: now(),
	})
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// requestID falls back to a fresh id when the RequestID middleware did not run.
func requestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return uuid.New().String()
}
