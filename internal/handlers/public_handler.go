package handlers

import (
	"net/http"

	"codetech/internal/api"
	"codetech/internal/observability"
	"codetech/internal/services"
	"codetech/internal/version"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const defaultLeaderboardPeriod = "all-time"

// PublicHandler serves the unauthenticated leaderboard, student count and health endpoints
type PublicHandler struct {
	leaderboardService services.LeaderboardServiceInterface
	progressService    services.ProgressServiceInterface
	serviceName        string
	logger             *observability.Logger
}

// NewPublicHandler creates a new PublicHandler instance
func NewPublicHandler(leaderboardService services.LeaderboardServiceInterface, progressService services.ProgressServiceInterface, serviceName string, logger *observability.Logger) *PublicHandler {
	return &PublicHandler{
		leaderboardService: leaderboardService,
		progressService:    progressService,
		serviceName:        serviceName,
		logger:             logger,
	}
}

// GetLeaderboard returns the ranked leaderboard. The period is echoed and does not filter.
func (h *PublicHandler) GetLeaderboard(c *gin.Context) {
	period := c.DefaultQuery("period", defaultLeaderboardPeriod)
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_leaderboard", attribute.String("leaderboard.period", period))
	defer observability.FinishSpan(span, nil)

	entries, err := h.leaderboardService.GetLeaderboard(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.LeaderboardResponse{Period: period, Data: convertLeaderboardToAPI(entries)})
}

// GetTotalStudents counts users with at least one activity
func (h *PublicHandler) GetTotalStudents(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_total_students")
	defer observability.FinishSpan(span, nil)

	total, err := h.progressService.TotalStudents(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TotalStudentsResponse{TotalStudents: total})
}

// Health reports the service identity and build
func (h *PublicHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   version.Version,
		Commit:    version.Commit,
		BuildTime: version.BuildTime,
	})
}
