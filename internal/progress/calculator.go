// Package progress holds the pure progress, unlock, scoring and ranking rules.
// Nothing in this package performs I/O.
package progress

// LevelInput describes one level of a subject in position order
type LevelInput struct {
	LevelID int
	QuizIDs []int
}

// LevelState is the derived state of one level for one user
type LevelState struct {
	LevelID   int
	Completed bool
	Unlocked  bool
	Current   bool
}

// SubjectState is the derived state of a subject for one user
type SubjectState struct {
	Levels           []LevelState
	CompletedQuizzes int
	TotalQuizzes     int
	Progress         int
}

// Percentage returns floor(100*completed/total), or 0 when total is 0
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return completed * 100 / total
}

// LevelCompleted reports whether every quiz of a level is in the completion set.
// A level with no quizzes is completed.
func LevelCompleted(quizIDs []int, completed map[int]bool) bool {
	for _, id := range quizIDs {
		if !completed[id] {
			return false
		}
	}
	return true
}

// Compute derives level and subject state from the ordered levels and the
// set of quiz ids the user has completed.
func Compute(levels []LevelInput, completed map[int]bool) SubjectState {
	state := SubjectState{Levels: make([]LevelState, 0, len(levels))}

	prevCompleted := true
	currentAssigned := false
	for i, level := range levels {
		ls := LevelState{
			LevelID:   level.LevelID,
			Completed: LevelCompleted(level.QuizIDs, completed),
			Unlocked:  i == 0 || prevCompleted,
		}
		if ls.Unlocked && !ls.Completed && !currentAssigned {
			ls.Current = true
			currentAssigned = true
		}
		prevCompleted = ls.Completed

		for _, id := range level.QuizIDs {
			state.TotalQuizzes++
			if completed[id] {
				state.CompletedQuizzes++
			}
		}
		state.Levels = append(state.Levels, ls)
	}

	state.Progress = Percentage(state.CompletedQuizzes, state.TotalQuizzes)
	return state
}

// CompletionSet builds a lookup set from quiz ids
func CompletionSet(quizIDs []int) map[int]bool {
	set := make(map[int]bool, len(quizIDs))
	for _, id := range quizIDs {
		set[id] = true
	}
	return set
}
