package progress

import "strconv"

// ScoredQuestion is a question id with the text of its correct choice.
// HasCorrect is false for a question without a correct choice, which can never be answered right.
type ScoredQuestion struct {
	ID         int
	Correct    string
	HasCorrect bool
}

// ScoreResult is the outcome of grading one submission
type ScoreResult struct {
	Correct int
	Total   int
	Score   int
}

// ScoreAnswers grades answers keyed by the decimal question id. Only string
// values are compared, by exact text. Any other value, unknown key or
// non-integer key counts as a mismatch. When several keys resolve to the same
// id ("1" and "01"), the question is correct only if all of them carry the
// correct text.
func ScoreAnswers(questions []ScoredQuestion, answers map[string]any) ScoreResult {
	type answer struct {
		text  string
		valid bool
	}
	byID := make(map[int]answer, len(answers))
	for key, value := range answers {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		text, ok := value.(string)
		prev, seen := byID[id]
		switch {
		case !seen:
			byID[id] = answer{text: text, valid: ok}
		case !ok || !prev.valid || prev.text != text:
			byID[id] = answer{valid: false}
		}
	}

	result := ScoreResult{Total: len(questions)}
	for _, q := range questions {
		if a, ok := byID[q.ID]; ok && a.valid && q.HasCorrect && a.text == q.Correct {
			result.Correct++
		}
	}
	result.Score = Percentage(result.Correct, result.Total)
	return result
}

// QuestionIDs extracts the integer keys of a submission in no particular order
func QuestionIDs(answers map[string]any) []int {
	ids := make([]int, 0, len(answers))
	for key := range answers {
		if id, err := strconv.Atoi(key); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
