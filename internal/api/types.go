// Package api contains the request and response types of the CodeTech HTTP API.
package api

import (
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Detail string  `json:"detail"`
	Code   *string `json:"code,omitempty"`
}

// SignupRequest defines model for SignupRequest.
type SignupRequest struct {
	Email    openapi_types.Email `json:"email" binding:"required"`
	Password string              `json:"password" binding:"required"`
	Name     *string             `json:"name,omitempty"`
	Role     *string             `json:"role,omitempty"`
}

// LoginRequest defines model for LoginRequest. It binds from form fields or JSON.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// TokenResponse defines model for TokenResponse.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User defines model for User.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LevelSummary defines model for LevelSummary. Quizzes is a count.
type LevelSummary struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quizzes     int    `json:"quizzes"`
	Completed   *bool  `json:"completed,omitempty"`
	Unlocked    *bool  `json:"unlocked,omitempty"`
	Current     *bool  `json:"current,omitempty"`
}

// Subject defines model for Subject.
type Subject struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Icon             string         `json:"icon"`
	Color            string         `json:"color"`
	TotalLevels      int            `json:"totalLevels"`
	TotalQuizzes     int            `json:"totalQuizzes"`
	CompletedQuizzes *int           `json:"completedQuizzes,omitempty"`
	Progress         *int           `json:"progress,omitempty"`
	Levels           []LevelSummary `json:"levels"`
}

// ChoiceView defines model for ChoiceView.
type ChoiceView struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// QuestionView is a question without its answer key
type QuestionView struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Choices []ChoiceView `json:"choices"`
}

// QuizView is a quiz without its answer key
type QuizView struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []QuestionView `json:"questions"`
}

// LevelQuizzesResponse defines model for LevelQuizzesResponse.
type LevelQuizzesResponse struct {
	SubjectID   int        `json:"subject_id"`
	LevelID     int        `json:"level_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Quizzes     []QuizView `json:"quizzes"`
}

// Resource defines model for Resource.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ReviewQuestion is a question with its answer and explanation
type ReviewQuestion struct {
	ID            int          `json:"id"`
	Text          string       `json:"text"`
	Choices       []ChoiceView `json:"choices"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	Resources     []Resource   `json:"resources"`
}

// QuizReview defines model for QuizReview.
type QuizReview struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []ReviewQuestion `json:"questions"`
}

// SubmitResponse defines model for SubmitResponse.
type SubmitResponse struct {
	Score   int `json:"score"`
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// CompleteLevelResponse defines model for CompleteLevelResponse.
type CompleteLevelResponse struct {
	Completed bool `json:"completed"`
}

// ActivityItem defines model for ActivityItem.
type ActivityItem struct {
	Subject string `json:"subject"`
	Action  string `json:"action"`
	Level   string `json:"level"`
	Time    string `json:"time"`
	Score   *int32 `json:"score"`
}

// UserStats defines model for UserStats. Rank is a number or "-".
type UserStats struct {
	TotalCompleted int `json:"totalCompleted"`
	AvgScore       int `json:"avgScore"`
	Streak         int `json:"streak"`
	Rank           any `json:"rank"`
	TotalPoints    int `json:"totalPoints"`
}

// DashboardStat defines model for DashboardStat.
type DashboardStat struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// DashboardResponse defines model for DashboardResponse.
type DashboardResponse struct {
	Stats          []DashboardStat `json:"stats"`
	RecentActivity []ActivityItem  `json:"recentActivity"`
}

// LeaderboardEntry defines model for LeaderboardEntry.
type LeaderboardEntry struct {
	Rank     int      `json:"rank"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Score    int      `json:"score"`
	Quizzes  int      `json:"quizzes"`
	AvgScore int      `json:"avgScore"`
	Streak   int      `json:"streak"`
	Subjects []string `json:"subjects"`
}

// LeaderboardResponse defines model for LeaderboardResponse.
type LeaderboardResponse struct {
	Period string             `json:"period"`
	Data   []LeaderboardEntry `json:"data"`
}

// TotalStudentsResponse defines model for TotalStudentsResponse.
type TotalStudentsResponse struct {
	TotalStudents int `json:"totalStudents"`
}

// GoalRequest defines model for GoalRequest.
type GoalRequest struct {
	Type        string `json:"type" binding:"required"`
	Target      string `json:"target"`
	Deadline    string `json:"deadline"`
	Description string `json:"description"`
}

// Goal defines model for Goal.
type Goal struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Target      string `json:"target"`
	Deadline    string `json:"deadline"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// GoalResponse defines model for GoalResponse.
type GoalResponse struct {
	Message string `json:"message"`
	Goal    Goal   `json:"goal"`
}

// ChallengeRequest defines model for ChallengeRequest.
type ChallengeRequest struct {
	FriendEmail openapi_types.Email `json:"friendEmail" binding:"required"`
	Message     string              `json:"message"`
	QuizType    string              `json:"quizType"`
}

// Challenge defines model for Challenge.
type Challenge struct {
	ID             int    `json:"id"`
	SenderID       *int   `json:"sender_id,omitempty"`
	RecipientEmail string `json:"recipient_email"`
	Message        string `json:"message"`
	QuizType       string `json:"quiz_type"`
	CreatedAt      string `json:"created_at"`
}

// ChallengeResponse defines model for ChallengeResponse.
type ChallengeResponse struct {
	Message   string    `json:"message"`
	Challenge Challenge `json:"challenge"`
}

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// MessageResponse defines model for MessageResponse.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse defines model for StatusResponse.
type StatusResponse struct {
	Status string `json:"status"`
}
