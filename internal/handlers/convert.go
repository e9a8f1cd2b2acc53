package handlers

import (
	"codetech/internal/api"
	"codetech/internal/models"
	"codetech/internal/services"
	contextutils "codetech/internal/utils"
)

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func convertUserToAPI(u *models.User) api.User {
	return api.User{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func convertSubjectToAPI(s models.Subject) api.Subject {
	out := api.Subject{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		Icon:         s.Icon,
		Color:        s.Color,
		TotalLevels:  len(s.Levels),
		TotalQuizzes: s.QuizCount(),
		Levels:       make([]api.LevelSummary, 0, len(s.Levels)),
	}
	for _, l := range s.Levels {
		out.Levels = append(out.Levels, api.LevelSummary{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Quizzes:     len(l.Quizzes),
		})
	}
	return out
}

// convertSubjectProgressToAPI adds the caller's derived level state to the subject view
func convertSubjectProgressToAPI(sp services.SubjectProgress) api.Subject {
	out := convertSubjectToAPI(sp.Subject)
	out.CompletedQuizzes = intPtr(sp.State.CompletedQuizzes)
	out.TotalQuizzes = sp.State.TotalQuizzes
	out.Progress = intPtr(sp.State.Progress)
	for i := range out.Levels {
		ls, _ := sp.LevelState(out.Levels[i].ID)
		out.Levels[i].Completed = boolPtr(ls.Completed)
		out.Levels[i].Unlocked = boolPtr(ls.Unlocked)
		out.Levels[i].Current = boolPtr(ls.Current)
	}
	return out
}

func convertChoicesToAPI(choices []models.Choice) []api.ChoiceView {
	out := make([]api.ChoiceView, 0, len(choices))
	for _, c := range choices {
		out = append(out, api.ChoiceView{ID: c.ID, Text: c.Text})
	}
	return out
}

// convertQuizToView strips the answer key
func convertQuizToView(q models.Quiz) api.QuizView {
	view := api.QuizView{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   make([]api.QuestionView, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		view.Questions = append(view.Questions, api.QuestionView{
			ID:      question.ID,
			Text:    question.Text,
			Choices: convertChoicesToAPI(question.Choices),
		})
	}
	return view
}

func convertQuizToReview(q models.Quiz) api.QuizReview {
	review := api.QuizReview{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   make([]api.ReviewQuestion, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		rq := api.ReviewQuestion{
			ID:          question.ID,
			Text:        question.Text,
			Choices:     convertChoicesToAPI(question.Choices),
			Explanation: question.Explanation,
			Resources:   []api.Resource{},
		}
		if correct, ok := question.CorrectChoice(); ok {
			rq.CorrectAnswer = correct.Text
		}
		for _, r := range question.ResourceList() {
			rq.Resources = append(rq.Resources, api.Resource{Title: r.Title, URL: r.URL})
		}
		review.Questions = append(review.Questions, rq)
	}
	return review
}

func convertActivityToAPI(a services.ActivityView) api.ActivityItem {
	return api.ActivityItem{
		Subject: a.SubjectName,
		Action:  a.Action,
		Level:   a.LevelName,
		Time:    contextutils.FormatTimestamp(a.Timestamp),
		Score:   models.NullInt32ToPointer(a.Score),
	}
}

func convertActivitiesToAPI(activities []services.ActivityView) []api.ActivityItem {
	out := make([]api.ActivityItem, 0, len(activities))
	for _, a := range activities {
		out = append(out, convertActivityToAPI(a))
	}
	return out
}

// convertStatsToAPI renders an unranked user as "-"
func convertStatsToAPI(s *services.UserStats) api.UserStats {
	out := api.UserStats{
		TotalCompleted: s.TotalCompleted,
		AvgScore:       s.AvgScore,
		Streak:         s.Streak,
		Rank:           "-",
		TotalPoints:    s.TotalPoints,
	}
	if s.Ranked {
		out.Rank = s.Rank
	}
	return out
}

func convertLeaderboardToAPI(entries []services.LeaderboardEntry) []api.LeaderboardEntry {
	out := make([]api.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		subjects := e.Subjects
		if subjects == nil {
			subjects = []string{}
		}
		out = append(out, api.LeaderboardEntry{
			Rank:     e.Rank,
			Name:     e.Name,
			Email:    e.Email,
			Score:    e.Score,
			Quizzes:  e.Quizzes,
			AvgScore: e.AvgScore,
			Streak:   e.Streak,
			Subjects: subjects,
		})
	}
	return out
}

func convertGoalToAPI(g models.UserGoal) api.Goal {
	return api.Goal{
		ID:          g.ID,
		Type:        g.Type,
		Target:      g.Target,
		Deadline:    g.Deadline,
		Description: g.Description,
		CreatedAt:   contextutils.FormatTimestamp(g.CreatedAt),
	}
}

func convertChallengeToAPI(c models.UserChallenge) api.Challenge {
	return api.Challenge{
		ID:             c.ID,
		SenderID:       intPtr(c.SenderID),
		RecipientEmail: c.RecipientEmail,
		Message:        c.Message,
		QuizType:       c.QuizType,
		CreatedAt:      contextutils.FormatTimestamp(c.CreatedAt),
	}
}

func convertAdminUserToAPI(s services.AdminUserSummary) api.AdminUser {
	return api.AdminUser{
		ID:             s.User.ID,
		Email:          s.User.Email,
		Name:           s.User.Name,
		Role:           s.User.Role,
		TotalCompleted: s.TotalCompleted,
		AvgScore:       s.AvgScore,
		LastActivity:   contextutils.FormatOptionalTimestamp(s.LastActivity),
	}
}

func convertAdminUserProgressToAPI(p *services.AdminUserProgress) api.AdminUserProgress {
	out := api.AdminUserProgress{
		User:             convertUserToAPI(&p.User),
		Subjects:         make([]api.AdminSubjectProgress, 0, len(p.Subjects)),
		RecentActivities: make([]api.AdminActivity, 0, len(p.RecentActivities)),
	}
	for _, s := range p.Subjects {
		out.Subjects = append(out.Subjects, api.AdminSubjectProgress{
			ID:         s.SubjectID,
			Name:       s.Name,
			Completed:  s.Completed,
			Total:      s.Total,
			Percentage: s.Percentage,
		})
	}
	for _, a := range p.RecentActivities {
		out.RecentActivities = append(out.RecentActivities, api.AdminActivity{
			Action:    a.Action,
			Timestamp: contextutils.FormatTimestamp(a.Timestamp),
			Score:     models.NullInt32ToPointer(a.Score),
			SubjectID: a.SubjectID,
			LevelID:   a.LevelID,
		})
	}
	return out
}
