package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Subject is the top of the content tree
type Subject struct {
	ID          int     `gorm:"primaryKey;column:id" json:"id"`
	Name        string  `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string  `gorm:"column:description;not null;default:''" json:"description"`
	Icon        string  `gorm:"column:icon;not null;default:''" json:"icon"`
	Color       string  `gorm:"column:color;not null;default:''" json:"color"`
	Position    int     `gorm:"column:position;not null;default:0" json:"position"`
	Levels      []Level `gorm:"foreignKey:SubjectID" json:"levels,omitempty"`
}

// TableName implements gorm's tabler
func (Subject) TableName() string { return "subjects" }

// QuizCount returns the number of quizzes across all loaded levels
func (s *Subject) QuizCount() int {
	n := 0
	for _, l := range s.Levels {
		n += len(l.Quizzes)
	}
	return n
}

// Level is an ordered stage within a subject
type Level struct {
	ID          int    `gorm:"primaryKey;column:id" json:"id"`
	SubjectID   int    `gorm:"column:subject_id;not null;uniqueIndex:idx_level_subject_name;uniqueIndex:idx_level_subject_position" json:"subject_id"`
	Name        string `gorm:"column:name;not null;uniqueIndex:idx_level_subject_name" json:"name"`
	Description string `gorm:"column:description;not null;default:''" json:"description"`
	Position    int    `gorm:"column:position;not null;uniqueIndex:idx_level_subject_position" json:"position"`
	Quizzes     []Quiz `gorm:"foreignKey:LevelID" json:"quizzes,omitempty"`
}

// TableName implements gorm's tabler
func (Level) TableName() string { return "levels" }

// QuizIDs returns the ids of the loaded quizzes in order
func (l *Level) QuizIDs() []int {
	ids := make([]int, 0, len(l.Quizzes))
	for _, q := range l.Quizzes {
		ids = append(ids, q.ID)
	}
	return ids
}

// Quiz is a set of questions within a level
type Quiz struct {
	ID          int        `gorm:"primaryKey;column:id" json:"id"`
	SubjectID   int        `gorm:"column:subject_id;not null" json:"subject_id"`
	LevelID     int        `gorm:"column:level_id;not null;uniqueIndex:idx_quiz_level_title" json:"level_id"`
	Title       string     `gorm:"column:title;not null;uniqueIndex:idx_quiz_level_title" json:"title"`
	Description string     `gorm:"column:description;not null;default:''" json:"description"`
	Position    int        `gorm:"column:position;not null;default:0" json:"position"`
	Questions   []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

// TableName implements gorm's tabler
func (Quiz) TableName() string { return "quizzes" }

// HasQuestion reports whether the quiz owns the question id
func (q *Quiz) HasQuestion(questionID int) bool {
	for _, question := range q.Questions {
		if question.ID == questionID {
			return true
		}
	}
	return false
}

// Resource is a further-reading link attached to a question
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Question is one multiple-choice question
type Question struct {
	ID          int            `gorm:"primaryKey;column:id" json:"id"`
	QuizID      int            `gorm:"column:quiz_id;not null" json:"quiz_id"`
	Text        string         `gorm:"column:text;not null" json:"text"`
	Explanation string         `gorm:"column:explanation;not null;default:''" json:"explanation"`
	Resources   datatypes.JSON `gorm:"column:resources" json:"resources"`
	Position    int            `gorm:"column:position;not null;default:0" json:"position"`
	Choices     []Choice       `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
}

// TableName implements gorm's tabler
func (Question) TableName() string { return "questions" }

// CorrectChoice returns the first choice flagged correct
func (q *Question) CorrectChoice() (Choice, bool) {
	for _, c := range q.Choices {
		if c.IsCorrect {
			return c, true
		}
	}
	return Choice{}, false
}

// ResourceList decodes the stored resources, returning nil on empty or malformed data
func (q *Question) ResourceList() []Resource {
	if len(q.Resources) == 0 {
		return nil
	}
	var out []Resource
	if err := json.Unmarshal(q.Resources, &out); err != nil {
		return nil
	}
	return out
}

// SetResources encodes resources into the JSON column
func (q *Question) SetResources(resources []Resource) error {
	if resources == nil {
		resources = []Resource{}
	}
	data, err := json.Marshal(resources)
	if err != nil {
		return err
	}
	q.Resources = datatypes.JSON(data)
	return nil
}

// Choice is one answer option of a question
type Choice struct {
	ID         int    `gorm:"primaryKey;column:id" json:"id"`
	QuestionID int    `gorm:"column:question_id;not null" json:"question_id"`
	Text       string `gorm:"column:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"column:is_correct;not null;default:false" json:"is_correct"`
	Position   int    `gorm:"column:position;not null;default:0" json:"position"`
}

// TableName implements gorm's tabler
func (Choice) TableName() string { return "choices" }
