package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
)

// DateLayout is how attempt timestamps are printed in exports.
const DateLayout = "2006-01-02 15:04:05 MST"

// WriteText writes the plain-text result sheet of an attempt.
func WriteText(w io.Writer, a *models.QuizAttempt) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Quiz Result for: %s\n", a.UserName)
	fmt.Fprintf(&b, "Quiz: %s\n", a.QuizTitle)
	fmt.Fprintf(&b, "Date: %s\n\n", a.Timestamp.Format(DateLayout))
	fmt.Fprintf(&b, "Score: %d%%\n", a.Score)
	fmt.Fprintf(&b, "Correct Answers: %d\n", a.TotalCorrect)
	fmt.Fprintf(&b, "Wrong/Unanswered: %d\n", a.TotalWrong)
	b.WriteString("---\nReview:\n")

	for _, item := range quiz.Review(a) {
		answer := item.Answer.String()
		if item.Answer.IsBlank() {
			answer = "Not answered"
		}
		fmt.Fprintf(&b, "\nQ%d: %s\n", item.Index+1, item.Question.Text)
		fmt.Fprintf(&b, "Your Answer: %s (%s)\n", answer, item.Status)
		fmt.Fprintf(&b, "Correct Answer: %s\n", item.CorrectAnswer.String())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FileName is the download name for an attempt export with extension ext.
func FileName(a *models.QuizAttempt, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, a.UserName)
	return fmt.Sprintf("quiz-result-%s.%s", name, ext)
}
