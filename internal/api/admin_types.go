package api

// AdminUser defines model for AdminUser.
type AdminUser struct {
	ID             int     `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	TotalCompleted int     `json:"total_completed"`
	AvgScore       float64 `json:"avg_score"`
	LastActivity   string  `json:"last_activity"`
}

// AdminSubjectProgress defines model for AdminSubjectProgress.
type AdminSubjectProgress struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// AdminActivity defines model for AdminActivity.
type AdminActivity struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	Score     *int32 `json:"score"`
	SubjectID int    `json:"subject_id"`
	LevelID   int    `json:"level_id"`
}

// AdminUserProgress defines model for AdminUserProgress.
type AdminUserProgress struct {
	User             User                   `json:"user"`
	Subjects         []AdminSubjectProgress `json:"subjects"`
	RecentActivities []AdminActivity        `json:"recent_activities"`
}

// CreateAdminRequest defines model for CreateAdminRequest.
// Fields are validated by the handler so that missing values produce the documented message.
type CreateAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// CreatedAdmin defines model for CreatedAdmin.
type CreatedAdmin struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateAdminResponse defines model for CreateAdminResponse.
type CreateAdminResponse struct {
	Message string       `json:"message"`
	User    CreatedAdmin `json:"user"`
}

// RepairError defines model for RepairError.
type RepairError struct {
	UserID int    `json:"user_id"`
	Error  string `json:"error"`
}

// RepairResponse defines model for RepairResponse.
type RepairResponse struct {
	Status string        `json:"status"`
	Users  int           `json:"users"`
	Errors []RepairError `json:"errors"`
}

// CleanupResponse defines model for CleanupResponse.
type CleanupResponse struct {
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

// AddSubjectRequest defines model for AddSubjectRequest.
type AddSubjectRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Icon        *string `json:"icon,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// NewLevel defines model for NewLevel.
type NewLevel struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// AddLevelRequest defines model for AddLevelRequest.
type AddLevelRequest struct {
	SubjectID int      `json:"subject_id" binding:"required"`
	Level     NewLevel `json:"level" binding:"required"`
}

// CreatedSubject defines model for CreatedSubject.
type CreatedSubject struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// AddSubjectResponse defines model for AddSubjectResponse.
type AddSubjectResponse struct {
	Success bool           `json:"success"`
	Subject CreatedSubject `json:"subject"`
}

// CreatedLevel defines model for CreatedLevel.
type CreatedLevel struct {
	ID          int    `json:"id"`
	SubjectID   int    `json:"subject_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

// AddLevelResponse defines model for AddLevelResponse.
type AddLevelResponse struct {
	Success bool         `json:"success"`
	Level   CreatedLevel `json:"level"`
}
