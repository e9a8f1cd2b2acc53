package handlers

import (
	"strconv"

	"codetech/internal/middleware"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
)

// HandleAppError renders err as the standard {"detail", "code"} body
func HandleAppError(c *gin.Context, err error) {
	middleware.HandleAppError(c, err)
}

// HandleBindError reports a request body that could not be decoded
func HandleBindError(c *gin.Context, err error) {
	HandleAppError(c, contextutils.NewAppErrorWithCause(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		"Invalid request body",
		"",
		err,
	))
}

// intParam parses a positive integer path parameter. A malformed value is
// reported as notFound because no row can carry it.
func intParam(c *gin.Context, name string, notFound *contextutils.AppError) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		HandleAppError(c, notFound)
		return 0, false
	}
	return id, true
}
