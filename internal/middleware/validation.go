package middleware

import (
	"bytes"
	"io"
	"net/http"

	"codetech/internal/observability"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// maxBodyBytes caps request bodies read for validation
const maxBodyBytes = 1 << 20

// RouteSchemas maps "METHOD /route/pattern" to the request schema it must satisfy
var RouteSchemas = map[string]string{
	"POST /signup":                   "SignupRequest",
	"POST /login":                    "LoginRequest",
	"POST /quiz/:id/submit":          "QuizSubmission",
	"POST /quiz/:id/:levelId/submit": "QuizSubmission",
	"POST /user/goals":               "GoalRequest",
	"POST /user/challenge":           "ChallengeRequest",
	"POST /admin/create-admin":       "CreateAdminRequest",
	"POST /admin/add-subject":        "AddSubjectRequest",
	"POST /admin/add-level":          "AddLevelRequest",
}

// RequestValidationMiddleware validates JSON request bodies of mapped routes
// against their schema and answers 400 on a mismatch. Form posts and
// unmapped routes pass through untouched.
func RequestValidationMiddleware(loader *SchemaLoader, logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
			c.Next()
			return
		}

		schemaName, ok := RouteSchemas[method+" "+c.FullPath()]
		if !ok || isFormContent(c.ContentType()) {
			c.Next()
			return
		}

		ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "request_validation",
			attribute.String("validation.schema", schemaName))
		defer span.End()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			AbortWithAppError(c, err)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if err := loader.ValidateJSON(body, schemaName); err != nil {
			span.SetAttributes(attribute.Bool("validation.failed", true))
			logger.Warn(ctx, "Request validation failed", map[string]interface{}{
				"method":      method,
				"route":       c.FullPath(),
				"schema_name": schemaName,
				"error":       err.Error(),
			})
			AbortWithAppError(c, err)
			return
		}

		c.Next()
	}
}

func isFormContent(contentType string) bool {
	return contentType == gin.MIMEPOSTForm || contentType == gin.MIMEMultipartPOSTForm
}
