package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"codetech/internal/api"
	"codetech/internal/middleware"
	"codetech/internal/models"
	"codetech/internal/observability"
	"codetech/internal/progress"
	"codetech/internal/services"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ContentHandler serves subjects and quizzes and grades submissions
type ContentHandler struct {
	contentService  services.ContentServiceInterface
	progressService services.ProgressServiceInterface
	logger          *observability.Logger
}

// NewContentHandler creates a new ContentHandler instance
func NewContentHandler(contentService services.ContentServiceInterface, progressService services.ProgressServiceInterface, logger *observability.Logger) *ContentHandler {
	return &ContentHandler{
		contentService:  contentService,
		progressService: progressService,
		logger:          logger,
	}
}

// ListSubjects returns every subject with its level summaries
func (h *ContentHandler) ListSubjects(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_subjects")
	defer observability.FinishSpan(span, nil)

	subjects, err := h.contentService.ListSubjects(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	out := make([]api.Subject, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, convertSubjectToAPI(s))
	}
	c.JSON(http.StatusOK, out)
}

// GetSubject returns one subject
func (h *ContentHandler) GetSubject(c *gin.Context) {
	subjectID, ok := intParam(c, "id", contextutils.ErrSubjectNotFound)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_subject", observability.AttributeSubjectID(subjectID))
	defer observability.FinishSpan(span, nil)

	subject, err := h.contentService.GetSubject(ctx, subjectID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertSubjectToAPI(*subject))
}

// GetLevelQuizzes returns every quiz of a level without the answer key
func (h *ContentHandler) GetLevelQuizzes(c *gin.Context) {
	subjectID, ok := intParam(c, "id", contextutils.ErrQuizNotFound)
	if !ok {
		return
	}
	levelID, ok := intParam(c, "levelId", contextutils.ErrQuizNotFound)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_level_quizzes",
		observability.AttributeSubjectID(subjectID), observability.AttributeLevelID(levelID))
	defer observability.FinishSpan(span, nil)

	level, err := h.contentService.GetLevel(ctx, subjectID, levelID)
	if err != nil {
		if contextutils.GetErrorCode(err) == contextutils.ErrorCodeLevelNotFound {
			err = contextutils.ErrQuizNotFound
		}
		HandleAppError(c, err)
		return
	}
	if len(level.Quizzes) == 0 {
		HandleAppError(c, contextutils.ErrQuizNotFound)
		return
	}

	resp := api.LevelQuizzesResponse{
		SubjectID:   subjectID,
		LevelID:     levelID,
		Title:       level.Name,
		Description: level.Description,
		Quizzes:     make([]api.QuizView, 0, len(level.Quizzes)),
	}
	for _, q := range level.Quizzes {
		resp.Quizzes = append(resp.Quizzes, convertQuizToView(q))
	}
	c.JSON(http.StatusOK, resp)
}

// GetQuiz returns one quiz without the answer key
func (h *ContentHandler) GetQuiz(c *gin.Context) {
	quizID, ok := intParam(c, "id", contextutils.ErrQuizNotFound)
	if !ok {
		return
	}
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_quiz", observability.AttributeQuizID(quizID))
	defer observability.FinishSpan(span, nil)

	quiz, err := h.contentService.GetQuiz(ctx, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertQuizToView(*quiz))
}

// SubmitLevelQuiz grades a submission addressed by subject and level. The
// quiz is picked by the quiz_id query parameter or the submitted question ids.
func (h *ContentHandler) SubmitLevelQuiz(c *gin.Context) {
	subjectID, ok := intParam(c, "id", contextutils.ErrQuizNotFound)
	if !ok {
		return
	}
	levelID, ok := intParam(c, "levelId", contextutils.ErrQuizNotFound)
	if !ok {
		return
	}
	quizID := 0
	if raw := c.Query("quiz_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			HandleAppError(c, contextutils.ErrQuizNotFound)
			return
		}
		quizID = id
	}

	answers, ok := bindAnswers(c)
	if !ok {
		return
	}

	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_level_quiz",
		observability.AttributeSubjectID(subjectID), observability.AttributeLevelID(levelID))
	defer observability.FinishSpan(span, nil)

	quiz, err := h.contentService.ResolveLevelQuiz(ctx, subjectID, levelID, quizID, progress.QuestionIDs(answers))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	h.submit(ctx, c, quiz, answers)
}

// SubmitQuiz grades a submission addressed by quiz id
func (h *ContentHandler) SubmitQuiz(c *gin.Context) {
	quizID, ok := intParam(c, "id", contextutils.ErrQuizNotFound)
	if !ok {
		return
	}
	answers, ok := bindAnswers(c)
	if !ok {
		return
	}

	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_quiz", observability.AttributeQuizID(quizID))
	defer observability.FinishSpan(span, nil)

	quiz, err := h.contentService.GetQuiz(ctx, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	h.submit(ctx, c, quiz, answers)
}

func (h *ContentHandler) submit(ctx context.Context, c *gin.Context, quiz *models.Quiz, answers map[string]any) {
	userID := 0
	if user := middleware.CurrentUser(c); user != nil {
		userID = user.ID
	}

	result, err := h.progressService.SubmitQuiz(ctx, userID, quiz, answers)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.SubmitResponse{Score: result.Score, Correct: result.Correct, Total: result.Total})
}

// bindAnswers decodes the submission body, a JSON object keyed by question id
func bindAnswers(c *gin.Context) (map[string]any, bool) {
	var answers map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&answers); err != nil {
		HandleBindError(c, err)
		return nil, false
	}
	if answers == nil {
		answers = map[string]any{}
	}
	return answers, true
}

// ReviewQuiz returns the answer key of a quiz the caller has completed
func (h *ContentHandler) ReviewQuiz(c *gin.Context) {
	quizID, ok := intParam(c, "id", contextutils.ErrQuizNotFound)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if user == nil {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "review_quiz",
		observability.AttributeQuizID(quizID), observability.AttributeUserID(user.ID))
	defer observability.FinishSpan(span, nil)

	quiz, err := h.contentService.GetQuiz(ctx, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	completed, err := h.progressService.HasCompletedQuiz(ctx, user.ID, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(attribute.Bool("quiz.completed", completed))
	if !completed {
		HandleAppError(c, contextutils.WithMessage(contextutils.ErrForbidden, "Complete the quiz before reviewing its answers"))
		return
	}
	c.JSON(http.StatusOK, convertQuizToReview(*quiz))
}
