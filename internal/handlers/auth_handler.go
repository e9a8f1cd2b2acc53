package handlers

import (
	"net/http"
	"strings"

	"codetech/internal/api"
	"codetech/internal/auth"
	"codetech/internal/config"
	"codetech/internal/middleware"
	"codetech/internal/models"
	"codetech/internal/observability"
	"codetech/internal/services"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AuthHandler handles signup, login and the current-user endpoint
type AuthHandler struct {
	userService services.UserServiceInterface
	tokens      auth.TokenServiceInterface
	cfg         *config.Config
	logger      *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(userService services.UserServiceInterface, tokens auth.TokenServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		cfg:         cfg,
		logger:      logger,
	}
}

// Signup registers a regular user
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "signup")
	defer observability.FinishSpan(span, nil)

	if h.cfg.IsSignupDisabled() {
		HandleAppError(c, contextutils.WithMessage(contextutils.ErrForbidden, "Signups are disabled"))
		return
	}

	var req api.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	role := models.RoleUser
	if req.Role != nil && *req.Role != "" {
		role = *req.Role
	}
	if role == models.RoleAdmin {
		HandleAppError(c, contextutils.WithMessage(contextutils.ErrInvalidInput, "Admin accounts cannot be created through signup"))
		return
	}

	email := strings.TrimSpace(string(req.Email))
	name := contextutils.DisplayNameFromEmail(email)
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		name = strings.TrimSpace(*req.Name)
	}

	user, err := h.userService.CreateUser(ctx, email, req.Password, name, role)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeUserID(user.ID))
	h.logger.Info(ctx, "User signed up", map[string]interface{}{
		"user_id": user.ID,
		"email":   contextutils.MaskEmail(user.Email),
	})
	c.JSON(http.StatusOK, convertUserToAPI(user))
}

// Login exchanges credentials for a bearer token. Both form and JSON bodies are accepted.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req api.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	user, err := h.userService.AuthenticateUser(ctx, strings.TrimSpace(req.Username), req.Password)
	observability.Metrics().RecordLogin(ctx, err == nil)
	if err != nil {
		h.logger.Warn(ctx, "Login failed", map[string]interface{}{
			"email": contextutils.MaskEmail(req.Username),
		})
		HandleAppError(c, err)
		return
	}

	token, err := h.tokens.Issue(ctx, user.Email)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeUserID(user.ID), attribute.String("user.role", user.Role))
	c.JSON(http.StatusOK, api.TokenResponse{AccessToken: token, TokenType: auth.TokenType})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, convertUserToAPI(user))
}
