package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

var (
	ErrUploadUnparseable = errors.New("upload is not valid JSON")
	ErrUploadMalformed   = errors.New("upload is not an array of quizzes")
	ErrDuplicateQuestion = errors.New("question id used twice in one quiz")
)

// uploadRecord is the upload shape. Questions is a pointer so a missing
// field and an empty list can be told apart.
type uploadRecord struct {
	ID                     string             `json:"id"`
	Title                  string             `json:"title" validate:"required"`
	Description            string             `json:"description"`
	Difficulty             models.Difficulty  `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	TotalQuestions         int                `json:"totalQuestions" validate:"gte=0"`
	QuestionsToSelect      int                `json:"questionsToSelect" validate:"gte=0"`
	Timer                  models.TimerConfig `json:"timer"`
	ShowNotesAfterQuestion bool               `json:"showNotesAfterQuestion"`
	Questions              *[]models.Question `json:"questions" validate:"required"`
}

var validate = validator.New()

// ParseUpload turns an uploaded JSON document into quizzes. The batch is
// accepted whole or not at all. Missing quiz ids become
// slug(title)-<unix millis>, missing question ids q<position>.
func ParseUpload(data []byte, now time.Time) ([]models.Quiz, error) {
	data = bytes.TrimSpace(data)

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadUnparseable, err)
	}
	if _, ok := raw.([]interface{}); !ok {
		return nil, ErrUploadMalformed
	}

	var records []uploadRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadMalformed, err)
	}

	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	used := make(map[string]int)
	quizzes := make([]models.Quiz, 0, len(records))

	for i, rec := range records {
		rec.Title = strings.TrimSpace(rec.Title)
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrUploadMalformed, i, err)
		}

		q := models.Quiz{
			ID:                     rec.ID,
			Title:                  rec.Title,
			Description:            rec.Description,
			Difficulty:             rec.Difficulty,
			TotalQuestions:         rec.TotalQuestions,
			QuestionsToSelect:      rec.QuestionsToSelect,
			Timer:                  rec.Timer,
			ShowNotesAfterQuestion: rec.ShowNotesAfterQuestion,
			Questions:              *rec.Questions,
		}
		if q.ID == "" {
			q.ID = slug.Make(q.Title) + "-" + stamp
		}
		if n := used[q.ID]; n > 0 {
			used[q.ID] = n + 1
			q.ID = fmt.Sprintf("%s-%d", q.ID, n+1)
		} else {
			used[q.ID] = 1
		}

		if err := applyQuizDefaults(&q); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrUploadMalformed, i, err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, nil
}

// applyQuizDefaults fills what an author may leave out: the bank size, the
// timer type and question ids. Authored ids must be unique within the quiz.
// A missing id becomes q<position>, or q<position>-<n> when an author already
// took that name.
func applyQuizDefaults(q *models.Quiz) error {
	if q.TotalQuestions == 0 {
		q.TotalQuestions = len(q.Questions)
	}
	if q.Timer.Type == "" {
		q.Timer.Type = models.TimerTotal
	}

	taken := make(map[string]bool, len(q.Questions))
	for _, question := range q.Questions {
		if question.ID == "" {
			continue
		}
		if taken[question.ID] {
			return fmt.Errorf("%w: %q in %q", ErrDuplicateQuestion, question.ID, q.Title)
		}
		taken[question.ID] = true
	}

	for j := range q.Questions {
		if q.Questions[j].ID != "" {
			continue
		}
		id := fmt.Sprintf("q%d", j+1)
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("q%d-%d", j+1, n)
		}
		taken[id] = true
		q.Questions[j].ID = id
	}
	return nil
}
