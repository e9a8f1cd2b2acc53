// Package models defines data structures used throughout the CodeTech backend.
package models

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// Role names stored in users.role
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user in the system
type User struct {
	ID             int       `json:"id" yaml:"id"`
	Email          string    `json:"email" yaml:"email"`
	HashedPassword string    `json:"-" yaml:"-"` // Omit from JSON responses
	Name           string    `json:"name" yaml:"name"`
	Role           string    `json:"role" yaml:"role"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, RoleAdmin)
}

// UserProgress is the per-subject completion summary for a user
type UserProgress struct {
	ID               int `json:"id"`
	UserID           int `json:"user_id"`
	SubjectID        int `json:"subject_id"`
	Progress         int `json:"progress"`
	CompletedQuizzes int `json:"completed_quizzes"`
	TotalQuizzes     int `json:"total_quizzes"`
}

// UserQuizProgress records whether a user has completed a level.
// Completed is stored as 0 or 1.
type UserQuizProgress struct {
	ID        int  `json:"id"`
	UserID    int  `json:"user_id"`
	SubjectID int  `json:"subject_id"`
	LevelID   int  `json:"level_id"`
	Completed bool `json:"completed"`
}

// UserQuizCompletion records that a user has completed one quiz
type UserQuizCompletion struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	QuizID      int       `json:"quiz_id"`
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completed_at"`
}

// UserActivity is the latest recorded action for a (user, subject, level)
type UserActivity struct {
	ID        int           `json:"id"`
	UserID    int           `json:"user_id"`
	SubjectID int           `json:"subject_id"`
	LevelID   int           `json:"level_id"`
	Action    string        `json:"action"`
	Score     sql.NullInt32 `json:"score"`
	Timestamp time.Time     `json:"timestamp"`
}

// MarshalJSON renders a null score as JSON null
func (a UserActivity) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID        int       `json:"id"`
		UserID    int       `json:"user_id"`
		SubjectID int       `json:"subject_id"`
		LevelID   int       `json:"level_id"`
		Action    string    `json:"action"`
		Score     *int32    `json:"score"`
		Timestamp time.Time `json:"timestamp"`
	}{
		ID:        a.ID,
		UserID:    a.UserID,
		SubjectID: a.SubjectID,
		LevelID:   a.LevelID,
		Action:    a.Action,
		Score:     NullInt32ToPointer(a.Score),
		Timestamp: a.Timestamp,
	})
}

// UserGoal is a free-form learning goal set by a user
type UserGoal struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Type        string    `json:"type"`
	Target      string    `json:"target"`
	Deadline    string    `json:"deadline"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserChallenge is a challenge sent from one user to an e-mail address
type UserChallenge struct {
	ID             int       `json:"id"`
	SenderID       int       `json:"sender_id"`
	RecipientEmail string    `json:"recipient_email"`
	Message        string    `json:"message"`
	QuizType       string    `json:"quiz_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// NullInt32ToPointer converts a nullable int to a pointer
func NullInt32ToPointer(ni sql.NullInt32) *int32 {
	if ni.Valid {
		return &ni.Int32
	}
	return nil
}
