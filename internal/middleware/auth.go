// Package middleware provides authentication, validation and request
// middleware for the Gin web framework.
package middleware

import (
	"context"
	"errors"
	"strings"

	"codetech/internal/auth"
	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// IdentityKey is the gin context key holding the request's auth.Identity
const IdentityKey = "identity"

// UserLookup resolves the subject of a verified token
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authenticate resolves the bearer token of every request into an
// auth.Identity. It never rejects a request; RequireAuth and RequireAdmin do.
func Authenticate(tokens auth.TokenServiceInterface, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(IdentityKey, resolveIdentity(c, tokens, users))
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, tokens auth.TokenServiceInterface, users UserLookup) auth.Identity {
	header := c.GetHeader("Authorization")
	if header == "" {
		return auth.Anonymous{}
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return auth.InvalidToken{Err: contextutils.ErrInvalidToken}
	}

	ctx := c.Request.Context()
	email, err := tokens.Verify(ctx, strings.TrimSpace(token))
	if err != nil {
		return auth.InvalidToken{Err: err}
	}

	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return auth.InvalidToken{Err: err}
	}
	if user == nil {
		return auth.InvalidToken{Err: contextutils.ErrUserNotFound}
	}

	c.Request = c.Request.WithContext(contextutils.WithUserID(ctx, user.ID))
	c.Set(string(contextutils.UserIDKey), user.ID)
	trace.SpanFromContext(ctx).SetAttributes(observability.AttributeUserID(user.ID))
	return auth.Authenticated{User: user}
}

// GetIdentity returns the identity resolved by Authenticate, Anonymous when absent
func GetIdentity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Anonymous{}
}

// CurrentUser returns the authenticated user, or nil
func CurrentUser(c *gin.Context) *models.User {
	return auth.UserOf(GetIdentity(c))
}

// identityError is the response for a request that is not Authenticated
func identityError(id auth.Identity) error {
	if invalid, ok := id.(auth.InvalidToken); ok && invalid.Err != nil {
		var appErr *contextutils.AppError
		if errors.As(invalid.Err, &appErr) {
			return invalid.Err
		}
		return contextutils.ErrInvalidToken
	}
	return contextutils.ErrUnauthorized
}

// RequireAuth rejects requests without a valid bearer token for an existing user
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if _, ok := id.(auth.Authenticated); !ok {
			AbortWithAppError(c, identityError(id))
			return
		}
		c.Next()
	}
}

// RejectInvalidToken lets anonymous requests through but rejects presented
// credentials that could not be verified.
func RejectInvalidToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if _, ok := id.(auth.InvalidToken); ok {
			AbortWithAppError(c, identityError(id))
			return
		}
		c.Next()
	}
}

// RequireAdmin requires an authenticated user with the admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		user := auth.UserOf(id)
		if user == nil {
			AbortWithAppError(c, identityError(id))
			return
		}
		if !user.IsAdmin() {
			AbortWithAppError(c, contextutils.ErrForbidden)
			return
		}
		c.Next()
	}
}
