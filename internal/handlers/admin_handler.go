package handlers

import (
	"net/http"

	"codetech/internal/api"
	"codetech/internal/middleware"
	"codetech/internal/models"
	"codetech/internal/observability"
	"codetech/internal/services"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AdminHandler handles the /admin endpoints. RequireAdmin guards every route.
type AdminHandler struct {
	adminService   services.AdminServiceInterface
	contentService services.ContentServiceInterface
	logger         *observability.Logger
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(adminService services.AdminServiceInterface, contentService services.ContentServiceInterface, logger *observability.Logger) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		contentService: contentService,
		logger:         logger,
	}
}

// ListUsers returns every user with completion stats
func (h *AdminHandler) ListUsers(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_list_users")
	defer observability.FinishSpan(span, nil)

	users, err := h.adminService.ListUsersWithStats(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	out := make([]api.AdminUser, 0, len(users))
	for _, u := range users {
		out = append(out, convertAdminUserToAPI(u))
	}
	c.JSON(http.StatusOK, out)
}

// GetUserProgress returns the per-subject progress and recent activity of a user
func (h *AdminHandler) GetUserProgress(c *gin.Context) {
	userID, ok := intParam(c, "id", contextutils.ErrUserNotFound)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_get_user_progress", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, nil)

	p, err := h.adminService.GetUserProgress(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAdminUserProgressToAPI(p))
}

// DeleteUser removes a user and everything they own
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := intParam(c, "id", contextutils.ErrUserNotFound)
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_delete_user",
		observability.AttributeUserID(userID), attribute.Int("admin.id", actor.ID))
	defer observability.FinishSpan(span, nil)

	if err := h.adminService.DeleteUser(ctx, actor.ID, userID); err != nil {
		HandleAppError(c, err)
		return
	}
	h.logger.Info(ctx, "User deleted by admin", map[string]interface{}{
		"user_id":  userID,
		"admin_id": actor.ID,
	})
	c.JSON(http.StatusOK, api.MessageResponse{Message: "User deleted successfully"})
}

// CreateAdmin creates another admin account
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req api.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_create_admin")
	defer observability.FinishSpan(span, nil)

	user, err := h.adminService.CreateAdmin(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.CreateAdminResponse{
		Message: "Admin user created successfully",
		User:    api.CreatedAdmin{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

// RepairUserStats rebuilds missing progress rows for every user
func (h *AdminHandler) RepairUserStats(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_repair_user_stats")
	defer observability.FinishSpan(span, nil)

	report, err := h.adminService.RepairUserStats(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	resp := api.RepairResponse{Status: "repaired", Users: report.Users, Errors: make([]api.RepairError, 0, len(report.Errors))}
	for _, f := range report.Errors {
		resp.Errors = append(resp.Errors, api.RepairError{UserID: f.UserID, Error: f.Err.Error()})
	}
	c.JSON(http.StatusOK, resp)
}

// ResetUserProgress wipes a user's progress and goals
func (h *AdminHandler) ResetUserProgress(c *gin.Context) {
	userID, ok := intParam(c, "id", contextutils.ErrUserNotFound)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_reset_user_progress", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, nil)

	if err := h.adminService.ResetUserProgress(ctx, userID); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "User progress and goals reset successfully"})
}

// CleanupNullActivity deletes activities without a score
func (h *AdminHandler) CleanupNullActivity(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_cleanup_null_activity")
	defer observability.FinishSpan(span, nil)

	deleted, err := h.adminService.CleanupNullActivity(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.CleanupResponse{Deleted: deleted, Message: "Removed UserActivity records with null score."})
}

// InitializeQuizProgress creates the calling admin's missing quiz progress rows
func (h *AdminHandler) InitializeQuizProgress(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_initialize_quiz_progress", observability.AttributeUserID(actor.ID))
	defer observability.FinishSpan(span, nil)

	if err := h.adminService.InitializeQuizProgress(ctx, actor.ID); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.StatusResponse{Status: "initialized"})
}

// AddSubject creates a subject
func (h *AdminHandler) AddSubject(c *gin.Context) {
	var req api.AddSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_add_subject")
	defer observability.FinishSpan(span, nil)

	subject := &models.Subject{Name: req.Name, Description: req.Description}
	if req.Icon != nil {
		subject.Icon = *req.Icon
	}
	if req.Color != nil {
		subject.Color = *req.Color
	}
	if err := h.contentService.CreateSubject(ctx, subject); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AddSubjectResponse{
		Success: true,
		Subject: api.CreatedSubject{
			ID:          subject.ID,
			Name:        subject.Name,
			Description: subject.Description,
			Icon:        subject.Icon,
			Color:       subject.Color,
		},
	})
}

// AddLevel appends a level to a subject
func (h *AdminHandler) AddLevel(c *gin.Context) {
	var req api.AddLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_add_level", observability.AttributeSubjectID(req.SubjectID))
	defer observability.FinishSpan(span, nil)

	level := &models.Level{SubjectID: req.SubjectID, Name: req.Level.Name, Description: req.Level.Description}
	if err := h.contentService.CreateLevel(ctx, level); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AddLevelResponse{
		Success: true,
		Level: api.CreatedLevel{
			ID:          level.ID,
			SubjectID:   level.SubjectID,
			Name:        level.Name,
			Description: level.Description,
			Position:    level.Position,
		},
	})
}
