package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"codetech/internal/api"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "Internal server error"

// ErrorRecoveryMiddleware recovers panics, logs them with the stack trace and
// answers 500 with the standard error body.
func ErrorRecoveryMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				panicErr, ok := recovered.(error)
				if !ok {
					panicErr = fmt.Errorf("panic: %v", recovered)
				}

				if logger != nil {
					logger.Error(c.Request.Context(), "Panic recovered", panicErr, map[string]interface{}{
						"method":      c.Request.Method,
						"path":        c.Request.URL.Path,
						"stack_trace": string(debug.Stack()),
					})
				}

				HandleAppError(c, contextutils.NewAppErrorWithCause(
					contextutils.ErrorCodeInternalError,
					contextutils.SeverityFatal,
					internalErrorMessage,
					"A panic occurred while processing the request",
					panicErr,
				))
				c.Abort()
			}
		}()

		c.Next()
	}
}

// HandleAppError renders err as {"detail", "code"} with the status its code maps to.
// Server-side errors never expose their message.
func HandleAppError(c *gin.Context, err error) {
	var appErr *contextutils.AppError
	if !errors.As(err, &appErr) {
		appErr = contextutils.NewAppErrorWithCause(contextutils.ErrorCodeInternalError,
			contextutils.SeverityError, internalErrorMessage, "", err)
	}

	status := StatusForCode(appErr.Code)
	detail := appErr.Message
	code := string(appErr.Code)
	if status >= http.StatusInternalServerError {
		detail = internalErrorMessage
		code = string(contextutils.ErrorCodeInternalError)
		_ = c.Error(err)
	}

	c.JSON(status, api.ErrorResponse{Detail: detail, Code: &code})
}

// AbortWithAppError renders err and stops the handler chain
func AbortWithAppError(c *gin.Context, err error) {
	HandleAppError(c, err)
	c.Abort()
}

// StatusForCode maps AppError codes to HTTP status codes
func StatusForCode(code contextutils.ErrorCode) int {
	switch code {
	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeValidationFailed, contextutils.ErrorCodeEmailTaken,
		contextutils.ErrorCodeProtectedAccount:
		return http.StatusBadRequest

	case contextutils.ErrorCodeUnauthorized, contextutils.ErrorCodeInvalidCredentials,
		contextutils.ErrorCodeInvalidToken:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeForbidden:
		return http.StatusForbidden

	case contextutils.ErrorCodeRecordNotFound, contextutils.ErrorCodeUserNotFound,
		contextutils.ErrorCodeSubjectNotFound, contextutils.ErrorCodeLevelNotFound,
		contextutils.ErrorCodeQuizNotFound, contextutils.ErrorCodeProgressNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeRecordExists:
		return http.StatusConflict

	// Default to internal server error for unknown codes
	default:
		return http.StatusInternalServerError
	}
}
