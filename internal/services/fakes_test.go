package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
)

type fakeCatalog struct {
	quizzes map[string]models.Quiz
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*models.Quiz, error) {
	q, ok := f.quizzes[id]
	if !ok {
		return nil, repository.ErrQuizNotFound
	}
	return &q, nil
}

type fakeAttempts struct {
	mu      sync.Mutex
	byID    map[string]*models.QuizAttempt
	order   []string
	appends int
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{byID: make(map[string]*models.QuizAttempt)}
}

func (f *fakeAttempts) Append(_ context.Context, a *models.QuizAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[a.ID]; ok {
		return fmt.Errorf("duplicate attempt %s", a.ID)
	}
	f.byID[a.ID] = a
	f.order = append(f.order, a.ID)
	f.appends++
	return nil
}

func (f *fakeAttempts) Get(_ context.Context, id string) (*models.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrAttemptNotFound
	}
	return a, nil
}

func (f *fakeAttempts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends
}

var fixedNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func testQuiz(timer models.TimerConfig) models.Quiz {
	qs := make([]models.Question, 3)
	for i := range qs {
		qs[i] = models.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          fmt.Sprintf("Question %d", i+1),
			Type:          models.QuestionMultipleChoice,
			Options:       []string{"A", "B"},
			CorrectAnswer: models.SingleAnswer("A"),
		}
	}
	return models.Quiz{ID: "quiz-1", Title: "Quiz One", QuestionsToSelect: 3, Timer: timer, Questions: qs}
}

func seededRand() *rand.Rand { return rand.New(rand.NewSource(42)) }

// corruptOnceStore reports the first Load as inconsistent.
type corruptOnceStore struct {
	*cache.MemoryStore
	tripped bool
}

func (s *corruptOnceStore) Load(ctx context.Context, id string) (*models.SessionState, error) {
	if !s.tripped {
		s.tripped = true
		return nil, cache.ErrSessionCorrupt
	}
	return s.MemoryStore.Load(ctx, id)
}
