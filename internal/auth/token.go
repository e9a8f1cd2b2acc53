// Package auth issues and verifies bearer tokens and models the caller identity.
package auth

import (
	"context"
	"time"

	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType is returned alongside every access token
const TokenType = "bearer"

// TokenServiceInterface defines the token operations used by handlers and middleware
type TokenServiceInterface interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, token string) (string, error)
}

// TokenService signs HS256 JWTs whose subject is the user's e-mail
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for email
func (s *TokenService) Issue(ctx context.Context, email string) (result0 string, err error) {
	_, span := observability.TraceAuthFunction(ctx, "Issue")
	defer observability.FinishSpan(span, &err)

	issuedAt := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to sign token")
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its subject
func (s *TokenService) Verify(ctx context.Context, token string) (result0 string, err error) {
	_, span := observability.TraceAuthFunction(ctx, "Verify")
	defer observability.FinishSpan(span, &err)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", contextutils.NewAppErrorWithCause(contextutils.ErrorCodeInvalidToken, contextutils.SeverityWarn,
			contextutils.ErrInvalidToken.Message, "", err)
	}
	if claims.Subject == "" {
		return "", contextutils.ErrInvalidToken
	}
	return claims.Subject, nil
}

// Identity is the resolved caller of a request: Authenticated, Anonymous or InvalidToken
type Identity interface {
	isIdentity()
}

// Authenticated carries a verified, existing user
type Authenticated struct {
	User *models.User
}

// Anonymous means the request carried no credentials
type Anonymous struct{}

// InvalidToken means credentials were presented but could not be verified
type InvalidToken struct {
	Err error
}

func (Authenticated) isIdentity() {}
func (Anonymous) isIdentity()     {}
func (InvalidToken) isIdentity()  {}

// UserOf returns the user of an Authenticated identity, or nil
func UserOf(id Identity) *models.User {
	if a, ok := id.(Authenticated); ok {
		return a.User
	}
	return nil
}
