package quiz

import (
	"strings"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
)

type Status string

const (
	StatusCorrect    Status = "correct"
	StatusWrong      Status = "wrong"
	StatusUnanswered Status = "unanswered"
)

// Result is the tally over one sampled sequence. Wrong includes Unanswered.
type Result struct {
	Correct    int      `json:"correct"`
	Wrong      int      `json:"wrong"`
	Unanswered int      `json:"unanswered"`
	Percent    int      `json:"percent"`
	Statuses   []Status `json:"statuses"`
}

// Grade marks one answer against its question.
func Grade(q models.Question, a models.Answer) Status {
	a = a.Normalized()
	if a.Kind() == models.AnswerNone {
		return StatusUnanswered
	}

	correct := q.CorrectAnswer
	switch correct.Kind() {
	case models.AnswerMultiple:
		if a.Kind() == models.AnswerMultiple && sameSet(correct.Values(), a.Values()) {
			return StatusCorrect
		}
		return StatusWrong
	case models.AnswerSingle:
		if a.Kind() == models.AnswerSingle &&
			strings.EqualFold(strings.TrimSpace(a.Value()), strings.TrimSpace(correct.Value())) {
			return StatusCorrect
		}
		return StatusWrong
	default:
		// A question without a key cannot be answered correctly.
		return StatusWrong
	}
}

// Score pairs questions and answers by position. Missing trailing answers
// count as unanswered.
func Score(questions []models.Question, answers []models.UserAnswer) Result {
	res := Result{Statuses: make([]Status, len(questions))}
	for i, q := range questions {
		a := models.NoAnswer()
		if i < len(answers) {
			a = answers[i].Answer
		}

		st := Grade(q, a)
		res.Statuses[i] = st
		switch st {
		case StatusCorrect:
			res.Correct++
		case StatusUnanswered:
			res.Unanswered++
			res.Wrong++
		default:
			res.Wrong++
		}
	}
	res.Percent = Percent(res.Correct, len(questions))
	return res
}

// Percent rounds correct/total to a whole percentage, half up. Zero total
// scores 0.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}

func sameSet(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	members := make(map[string]struct{}, len(want))
	for _, v := range want {
		members[v] = struct{}{}
	}
	for _, v := range got {
		if _, ok := members[v]; !ok {
			return false
		}
	}
	return true
}
