// Package seed loads the bundled quiz content and writes it into the content tables.
package seed

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed data/*.yaml
var contentFS embed.FS

// SubjectFile is the on-disk shape of one subject
type SubjectFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Icon        string      `yaml:"icon"`
	Color       string      `yaml:"color"`
	Levels      []LevelFile `yaml:"levels"`
}

// LevelFile is the on-disk shape of one level
type LevelFile struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Quizzes     []QuizFile `yaml:"quizzes"`
}

// QuizFile is the on-disk shape of one quiz
type QuizFile struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Questions   []QuestionFile `yaml:"questions"`
}

// QuestionFile is the on-disk shape of one question
type QuestionFile struct {
	Text        string            `yaml:"text"`
	Choices     []ChoiceFile      `yaml:"choices"`
	Explanation string            `yaml:"explanation"`
	Resources   []models.Resource `yaml:"resources"`
}

// ChoiceFile is the on-disk shape of one choice
type ChoiceFile struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

// Result counts the rows created by a seed run
type Result struct {
	Subjects  int `json:"subjects"`
	Levels    int `json:"levels"`
	Quizzes   int `json:"quizzes"`
	Questions int `json:"questions"`
}

// Embedded returns the content bundled with the binary
func Embedded() ([]SubjectFile, error) {
	return Load(contentFS, "data")
}

// Load reads every *.yaml file under dir in name order and validates it
func Load(fsys fs.FS, dir string) ([]SubjectFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to read seed directory %s", dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	subjects := make([]SubjectFile, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to read %s", name)
		}

		var subject SubjectFile
		if err := yaml.Unmarshal(data, &subject); err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to parse %s", name)
		}
		if err := Validate(subject); err != nil {
			return nil, contextutils.WrapErrorf(err, "invalid content in %s", name)
		}
		if other, dup := seen[subject.Name]; dup {
			return nil, contextutils.ErrorWithContextf("subject %q defined in both %s and %s", subject.Name, other, name)
		}
		seen[subject.Name] = name
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

// Validate checks names are present and unique and that every question has exactly one correct choice
func Validate(subject SubjectFile) error {
	if strings.TrimSpace(subject.Name) == "" {
		return contextutils.ErrorWithContextf("subject name is required")
	}

	levelNames := map[string]bool{}
	for li, level := range subject.Levels {
		if strings.TrimSpace(level.Name) == "" {
			return contextutils.ErrorWithContextf("level %d: name is required", li+1)
		}
		if levelNames[level.Name] {
			return contextutils.ErrorWithContextf("level %q: duplicate name", level.Name)
		}
		levelNames[level.Name] = true

		titles := map[string]bool{}
		for _, quiz := range level.Quizzes {
			if strings.TrimSpace(quiz.Title) == "" {
				return contextutils.ErrorWithContextf("level %q: quiz title is required", level.Name)
			}
			if titles[quiz.Title] {
				return contextutils.ErrorWithContextf("level %q: duplicate quiz %q", level.Name, quiz.Title)
			}
			titles[quiz.Title] = true

			for qi, question := range quiz.Questions {
				if strings.TrimSpace(question.Text) == "" {
					return contextutils.ErrorWithContextf("quiz %q question %d: text is required", quiz.Title, qi+1)
				}
				correct := 0
				for _, c := range question.Choices {
					if c.Correct {
						correct++
					}
				}
				if correct != 1 {
					return contextutils.ErrorWithContextf("quiz %q question %d: expected exactly one correct choice, found %d", quiz.Title, qi+1, correct)
				}
			}
		}
	}
	return nil
}

// Seeder writes content files into the database through gorm
type Seeder struct {
	db     *gorm.DB
	logger *observability.Logger
}

// NewSeeder creates a Seeder
func NewSeeder(db *gorm.DB, logger *observability.Logger) *Seeder {
	return &Seeder{db: db, logger: logger}
}

// SeedEmbedded seeds the bundled content
func (s *Seeder) SeedEmbedded(ctx context.Context) (result0 Result, err error) {
	subjects, err := Embedded()
	if err != nil {
		return Result{}, err
	}
	return s.Seed(ctx, subjects)
}

// Seed upserts subjects by name, levels by (subject, name) and quizzes by
// (level, title). Questions are written only for newly created quizzes, so
// running it twice changes nothing.
func (s *Seeder) Seed(ctx context.Context, subjects []SubjectFile) (result0 Result, err error) {
	ctx, span := observability.TraceSeedFunction(ctx, "Seed", attribute.Int("seed.subjects", len(subjects)))
	defer observability.FinishSpan(span, &err)

	var result Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, subjectFile := range subjects {
			if err := seedSubject(tx, i+1, subjectFile, &result); err != nil {
				return contextutils.WrapErrorf(err, "failed to seed subject %q", subjectFile.Name)
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	span.SetAttributes(
		attribute.Int("seed.created.subjects", result.Subjects),
		attribute.Int("seed.created.quizzes", result.Quizzes),
	)
	s.logger.Info(ctx, "Content seeded", map[string]interface{}{
		"subjects":  result.Subjects,
		"levels":    result.Levels,
		"quizzes":   result.Quizzes,
		"questions": result.Questions,
	})
	return result, nil
}

func seedSubject(tx *gorm.DB, position int, file SubjectFile, result *Result) error {
	subject := models.Subject{}
	res := tx.Where(models.Subject{Name: file.Name}).
		Attrs(models.Subject{Description: file.Description, Icon: file.Icon, Color: file.Color, Position: position}).
		FirstOrCreate(&subject)
	if res.Error != nil {
		return res.Error
	}
	result.Subjects += int(res.RowsAffected)

	for _, levelFile := range file.Levels {
		level := models.Level{}
		lookup := tx.Where("subject_id = ? AND name = ?", subject.ID, levelFile.Name).Limit(1).Find(&level)
		if lookup.Error != nil {
			return lookup.Error
		}
		if lookup.RowsAffected == 0 {
			var maxPosition int
			if err := tx.Model(&models.Level{}).Where("subject_id = ?", subject.ID).
				Select("COALESCE(MAX(position), 0)").Scan(&maxPosition).Error; err != nil {
				return err
			}
			level = models.Level{
				SubjectID:   subject.ID,
				Name:        levelFile.Name,
				Description: levelFile.Description,
				Position:    maxPosition + 1,
			}
			if err := tx.Create(&level).Error; err != nil {
				return err
			}
			result.Levels++
		}

		for qi, quizFile := range levelFile.Quizzes {
			if err := seedQuiz(tx, subject.ID, level.ID, qi+1, quizFile, result); err != nil {
				return fmt.Errorf("level %q: %w", levelFile.Name, err)
			}
		}
	}
	return nil
}

func seedQuiz(tx *gorm.DB, subjectID, levelID, position int, file QuizFile, result *Result) error {
	quiz := models.Quiz{}
	res := tx.Where(models.Quiz{LevelID: levelID, Title: file.Title}).
		Attrs(models.Quiz{SubjectID: subjectID, Description: file.Description, Position: position}).
		FirstOrCreate(&quiz)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	result.Quizzes++

	if len(file.Questions) == 0 {
		return nil
	}

	questions := make([]models.Question, 0, len(file.Questions))
	for i, qf := range file.Questions {
		question := models.Question{
			QuizID:      quiz.ID,
			Text:        qf.Text,
			Explanation: qf.Explanation,
			Position:    i + 1,
		}
		if err := question.SetResources(qf.Resources); err != nil {
			return err
		}
		for ci, cf := range qf.Choices {
			question.Choices = append(question.Choices, models.Choice{Text: cf.Text, IsCorrect: cf.Correct, Position: ci + 1})
		}
		questions = append(questions, question)
	}
	if err := tx.Create(&questions).Error; err != nil {
		return err
	}
	result.Questions += len(questions)
	return nil
}
