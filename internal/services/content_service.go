package services

import (
	"context"
	"errors"
	"strings"

	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ContentServiceInterface defines read and write access to the content tree
type ContentServiceInterface interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	GetSubject(ctx context.Context, subjectID int) (*models.Subject, error)
	GetLevel(ctx context.Context, subjectID, levelID int) (*models.Level, error)
	GetQuiz(ctx context.Context, quizID int) (*models.Quiz, error)
	ResolveLevelQuiz(ctx context.Context, subjectID, levelID, quizID int, questionIDs []int) (*models.Quiz, error)
	CreateSubject(ctx context.Context, subject *models.Subject) error
	CreateLevel(ctx context.Context, level *models.Level) error
}

// ContentService reads subjects, levels, quizzes, questions and choices through gorm
type ContentService struct {
	db     *gorm.DB
	logger *observability.Logger
}

// NewContentServiceWithLogger creates a new ContentService
func NewContentServiceWithLogger(db *gorm.DB, logger *observability.Logger) *ContentService {
	return &ContentService{db: db, logger: logger}
}

func byPosition(tx *gorm.DB) *gorm.DB {
	return tx.Order("position, id")
}

// ListSubjects returns every subject with its levels and quizzes, all in position order
func (s *ContentService) ListSubjects(ctx context.Context) (result0 []models.Subject, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "list_subjects")
	defer observability.FinishSpan(span, &err)

	var subjects []models.Subject
	err = s.db.WithContext(ctx).
		Preload("Levels", byPosition).
		Preload("Levels.Quizzes", byPosition).
		Order("position, id").
		Find(&subjects).Error
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list subjects")
	}

	span.SetAttributes(attribute.Int("subjects.count", len(subjects)))
	return subjects, nil
}

// GetSubject returns one subject with its levels and quizzes, or ErrSubjectNotFound
func (s *ContentService) GetSubject(ctx context.Context, subjectID int) (result0 *models.Subject, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "get_subject", observability.AttributeSubjectID(subjectID))
	defer observability.FinishSpan(span, &err)

	var subject models.Subject
	err = s.db.WithContext(ctx).
		Preload("Levels", byPosition).
		Preload("Levels.Quizzes", byPosition).
		First(&subject, subjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contextutils.ErrSubjectNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load subject")
	}
	return &subject, nil
}

// GetLevel returns a level of a subject with its quizzes, questions and choices.
// A level that exists under another subject is reported as ErrLevelNotFound.
func (s *ContentService) GetLevel(ctx context.Context, subjectID, levelID int) (result0 *models.Level, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "get_level",
		observability.AttributeSubjectID(subjectID), observability.AttributeLevelID(levelID))
	defer observability.FinishSpan(span, &err)

	var level models.Level
	err = s.db.WithContext(ctx).
		Preload("Quizzes", byPosition).
		Preload("Quizzes.Questions", byPosition).
		Preload("Quizzes.Questions.Choices", byPosition).
		Where("id = ? AND subject_id = ?", levelID, subjectID).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contextutils.ErrLevelNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load level")
	}
	return &level, nil
}

// GetQuiz returns a quiz with its questions and choices, or ErrQuizNotFound
func (s *ContentService) GetQuiz(ctx context.Context, quizID int) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "get_quiz", observability.AttributeQuizID(quizID))
	defer observability.FinishSpan(span, &err)

	var quiz models.Quiz
	err = s.db.WithContext(ctx).
		Preload("Questions", byPosition).
		Preload("Questions.Choices", byPosition).
		First(&quiz, quizID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contextutils.ErrQuizNotFound
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load quiz")
	}
	return &quiz, nil
}

// ResolveLevelQuiz picks the quiz a level submission is for. An explicit
// quizID must belong to the level. Without one, the first quiz owning any of
// questionIDs wins, then the level's first quiz. Every miss is ErrQuizNotFound.
func (s *ContentService) ResolveLevelQuiz(ctx context.Context, subjectID, levelID, quizID int, questionIDs []int) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "resolve_level_quiz",
		observability.AttributeSubjectID(subjectID), observability.AttributeLevelID(levelID))
	defer observability.FinishSpan(span, &err)

	level, err := s.GetLevel(ctx, subjectID, levelID)
	if errors.Is(err, contextutils.ErrLevelNotFound) {
		return nil, contextutils.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}

	quiz := pickQuiz(level.Quizzes, quizID, questionIDs)
	if quiz == nil {
		return nil, contextutils.ErrQuizNotFound
	}
	span.SetAttributes(observability.AttributeQuizID(quiz.ID))
	return quiz, nil
}

func pickQuiz(quizzes []models.Quiz, quizID int, questionIDs []int) *models.Quiz {
	if quizID > 0 {
		for i := range quizzes {
			if quizzes[i].ID == quizID {
				return &quizzes[i]
			}
		}
		return nil
	}
	for i := range quizzes {
		for _, qid := range questionIDs {
			if quizzes[i].HasQuestion(qid) {
				return &quizzes[i]
			}
		}
	}
	if len(quizzes) > 0 {
		return &quizzes[0]
	}
	return nil
}

// CreateSubject inserts a subject at the end of the subject list.
// A duplicate name yields ErrRecordExists.
func (s *ContentService) CreateSubject(ctx context.Context, subject *models.Subject) (err error) {
	ctx, span := observability.TraceContentFunction(ctx, "create_subject")
	defer observability.FinishSpan(span, &err)

	subject.Name = strings.TrimSpace(subject.Name)
	if subject.Name == "" {
		return contextutils.WithMessage(contextutils.ErrMissingRequired, "Subject name is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Subject{}).Where("LOWER(name) = LOWER(?)", subject.Name).Count(&count).Error; err != nil {
			return contextutils.WrapError(err, "failed to check subject name")
		}
		if count > 0 {
			return contextutils.WithMessage(contextutils.ErrRecordExists, "Subject already exists")
		}

		var maxPosition int
		if err := tx.Model(&models.Subject{}).Select("COALESCE(MAX(position), 0)").Scan(&maxPosition).Error; err != nil {
			return contextutils.WrapError(err, "failed to compute subject position")
		}
		subject.Position = maxPosition + 1

		if err := tx.Create(subject).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
				return contextutils.WithMessage(contextutils.ErrRecordExists, "Subject already exists")
			}
			return contextutils.WrapError(err, "failed to create subject")
		}
		return nil
	})
}

// CreateLevel appends a level to its subject. An unknown subject yields ErrSubjectNotFound.
func (s *ContentService) CreateLevel(ctx context.Context, level *models.Level) (err error) {
	ctx, span := observability.TraceContentFunction(ctx, "create_level", observability.AttributeSubjectID(level.SubjectID))
	defer observability.FinishSpan(span, &err)

	level.Name = strings.TrimSpace(level.Name)
	if level.Name == "" {
		return contextutils.WithMessage(contextutils.ErrMissingRequired, "Level name is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subjects int64
		if err := tx.Model(&models.Subject{}).Where("id = ?", level.SubjectID).Count(&subjects).Error; err != nil {
			return contextutils.WrapError(err, "failed to check subject")
		}
		if subjects == 0 {
			return contextutils.ErrSubjectNotFound
		}

		var maxPosition int
		if err := tx.Model(&models.Level{}).Where("subject_id = ?", level.SubjectID).
			Select("COALESCE(MAX(position), 0)").Scan(&maxPosition).Error; err != nil {
			return contextutils.WrapError(err, "failed to compute level position")
		}
		level.Position = maxPosition + 1

		if err := tx.Create(level).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
				return contextutils.WithMessage(contextutils.ErrRecordExists, "Level already exists")
			}
			return contextutils.WrapError(err, "failed to create level")
		}
		return nil
	})
}
