package quiz

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func bank(n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		qs[i] = models.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          fmt.Sprintf("Question %d", i+1),
			Type:          models.QuestionMultipleChoice,
			Options:       []string{"A", "B", "C"},
			CorrectAnswer: models.SingleAnswer("A"),
			Note:          fmt.Sprintf("note %d", i+1),
		}
	}
	return qs
}

func newTestSession(n, selectN int, timer models.TimerConfig, policy models.RevisitPolicy) *Session {
	q := models.Quiz{
		ID:                "quiz-1",
		Title:             "Quiz",
		TotalQuestions:    n,
		QuestionsToSelect: selectN,
		Timer:             timer,
		Questions:         bank(n),
	}
	user := models.SessionUser{Name: "bob", IP: "1.1.1.1", Device: "desktop"}
	return NewSession("sess-1", q, user, policy, rand.New(rand.NewSource(7)), epoch)
}
