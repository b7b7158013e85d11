package quiz

import "github.com/PYTHAGON2/cdcfib-mock-test/internal/models"

// ReviewItem is one row of the post-attempt review.
type ReviewItem struct {
	Index         int             `json:"index"`
	Question      models.Question `json:"question"`
	Answer        models.Answer   `json:"answer"`
	Status        Status          `json:"status"`
	CorrectAnswer models.Answer   `json:"correctAnswer"`
	Explanation   string          `json:"explanation,omitempty"`
}

// Review regrades an attempt against its own question snapshot.
func Review(a *models.QuizAttempt) []ReviewItem {
	res := Score(a.Questions, a.Answers)
	items := make([]ReviewItem, len(a.Questions))
	for i, q := range a.Questions {
		ans := models.NoAnswer()
		if i < len(a.Answers) {
			ans = a.Answers[i].Answer
		}
		items[i] = ReviewItem{
			Index:         i,
			Question:      q,
			Answer:        ans,
			Status:        res.Statuses[i],
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.NoteText(),
		}
	}
	return items
}
