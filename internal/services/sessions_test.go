package services

import (
	"context"
	"testing"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sessionFixture struct {
	svc      *SessionService
	store    *cache.MemoryStore
	attempts *fakeAttempts
	user     models.SessionUser
}

func newSessionFixture(t *testing.T, timer models.TimerConfig) *sessionFixture {
	t.Helper()
	store := cache.NewMemoryStore()
	attempts := newFakeAttempts()
	catalog := &fakeCatalog{quizzes: map[string]models.Quiz{"quiz-1": testQuiz(timer)}}
	svc := NewSessionService(zap.NewNop(), catalog, attempts, store, models.RevisitResetUnlocked,
		WithClock(func() time.Time { return fixedNow }),
		WithRand(seededRand),
	)
	return &sessionFixture{
		svc:      svc,
		store:    store,
		attempts: attempts,
		user:     models.SessionUser{Name: "bob", IP: "1.1.1.1", Device: "desktop"},
	}
}

func TestStartResumesSameSample(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, models.TimerConfig{})

	first, resumed, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	assert.False(t, resumed)

	id := first.Session.ID
	_, err = f.svc.Answer(ctx, id, "bob", 0, models.SingleAnswer("B"))
	require.NoError(t, err)

	second, resumed, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, id, second.Session.ID)
	for i := range first.Session.Questions {
		assert.Equal(t, first.Session.Questions[i].ID, second.Session.Questions[i].ID)
	}
	assert.Equal(t, "B", second.Session.Questions[0].Answer.Value())
}

func TestStartUnknownQuiz(t *testing.T) {
	f := newSessionFixture(t, models.TimerConfig{})
	_, _, err := f.svc.Start(context.Background(), "nope", f.user)
	assert.ErrorIs(t, err, repository.ErrQuizNotFound)
}

func TestOperationsWriteThrough(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, models.TimerConfig{Type: models.TimerPerQuestion, Duration: 10})
	snap, _, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	id := snap.Session.ID

	_, err = f.svc.Answer(ctx, id, "bob", 0, models.SingleAnswer("A"))
	require.NoError(t, err)
	v, _, err := f.svc.Check(ctx, id, "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusCorrect, v.Status)
	_, err = f.svc.Next(ctx, id, "bob")
	require.NoError(t, err)

	stored, err := f.store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentIndex)
	assert.True(t, stored.IsLocked(stored.Questions[0].ID))
	assert.Equal(t, "A", stored.Answers[0].Answer.Value())
	assert.Equal(t, fixedNow, stored.UpdatedAt)
}

func TestRejectedOperationLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, models.TimerConfig{})
	snap, _, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	id := snap.Session.ID

	_, _, err = f.svc.Check(ctx, id, "bob", 0)
	assert.ErrorIs(t, err, quiz.ErrEmptyAnswer)
	_, err = f.svc.Prev(ctx, id, "bob")
	assert.ErrorIs(t, err, quiz.ErrNoPreviousQuestion)

	stored, err := f.store.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, stored.LockedQuestionIDs)
}

func TestOtherUsersCannotSeeSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, models.TimerConfig{})
	snap, _, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, snap.Session.ID, "eve")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Exit(ctx, snap.Session.ID, "eve")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExitRecordsAttemptAndDropsSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, models.TimerConfig{})
	snap, _, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	id := snap.Session.ID

	_, err = f.svc.Answer(ctx, id, "bob", 0, models.SingleAnswer("a"))
	require.NoError(t, err)
	done, err := f.svc.Exit(ctx, id, "bob")
	require.NoError(t, err)
	require.NotNil(t, done.Attempt)
	assert.True(t, done.Session.Finished)
	assert.Equal(t, models.FinishExited, done.Attempt.FinishReason)
	assert.Equal(t, 33, done.Attempt.Score)
	assert.Equal(t, fixedNow, done.Attempt.Timestamp)
	assert.Equal(t, 1, f.attempts.count())

	_, err = f.store.Load(ctx, id)
	assert.ErrorIs(t, err, cache.ErrSessionNotFound)
	_, err = f.svc.Get(ctx, id, "bob")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// A new start samples a fresh session.
	again, resumed, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.False(t, again.Session.Finished)
}

func TestFinishedStateLeftBehindIsRecoveredOnce(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, models.TimerConfig{})
	snap, _, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	id := snap.Session.ID

	// Simulate a crash after the finished state was written.
	st, err := f.store.Load(ctx, id)
	require.NoError(t, err)
	st.Finished = true
	st.FinishReason = models.FinishTimeout
	require.NoError(t, f.store.Save(ctx, st))

	got, err := f.svc.Get(ctx, id, "bob")
	require.NoError(t, err)
	require.NotNil(t, got.Attempt)
	assert.Equal(t, models.FinishTimeout, got.Attempt.FinishReason)
	assert.Equal(t, AttemptID(st), got.Attempt.ID)
	assert.Equal(t, 1, f.attempts.count())

	// Writing the same state again does not duplicate the attempt.
	require.NoError(t, f.store.Save(ctx, st))
	_, err = f.svc.Next(ctx, id, "bob")
	assert.ErrorIs(t, err, quiz.ErrSessionFinished)
	assert.Equal(t, 1, f.attempts.count())
}

func TestTickFinishesTotalTimer(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, models.TimerConfig{Type: models.TimerTotal, Duration: 2})
	snap, _, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	id := snap.Session.ID

	ev, err := f.svc.Tick(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Outcome.TimeLeft)
	assert.Nil(t, ev.Snapshot.Attempt)

	ev, err = f.svc.Tick(ctx, id)
	require.NoError(t, err)
	assert.True(t, ev.Outcome.Finished)
	require.NotNil(t, ev.Snapshot.Attempt)
	assert.Equal(t, 3, ev.Snapshot.Attempt.TotalUnanswered)

	_, err = f.svc.Tick(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitFlow(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, models.TimerConfig{})
	snap, _, err := f.svc.Start(ctx, "quiz-1", f.user)
	require.NoError(t, err)
	id := snap.Session.ID

	for i := 0; i < 3; i++ {
		_, err = f.svc.Answer(ctx, id, "bob", i, models.SingleAnswer("A"))
		require.NoError(t, err)
		_, _, err = f.svc.Check(ctx, id, "bob", i)
		require.NoError(t, err)
		if i < 2 {
			_, err = f.svc.Submit(ctx, id, "bob")
			assert.ErrorIs(t, err, quiz.ErrSubmitNotAllowed)
			_, err = f.svc.Next(ctx, id, "bob")
			require.NoError(t, err)
		}
	}

	done, err := f.svc.Submit(ctx, id, "bob")
	require.NoError(t, err)
	assert.Equal(t, 100, done.Attempt.Score)
	assert.Equal(t, models.FinishSubmitted, done.Attempt.FinishReason)
}

func TestStartReplacesInconsistentSession(t *testing.T) {
	ctx := context.Background()
	store := &corruptOnceStore{MemoryStore: cache.NewMemoryStore()}
	catalog := &fakeCatalog{quizzes: map[string]models.Quiz{"quiz-1": testQuiz(models.TimerConfig{})}}
	svc := NewSessionService(zap.NewNop(), catalog, newFakeAttempts(), store, models.RevisitResetUnlocked,
		WithClock(func() time.Time { return fixedNow }),
		WithRand(seededRand),
	)

	snap, resumed, err := svc.Start(ctx, "quiz-1", models.SessionUser{Name: "bob"})
	require.NoError(t, err)
	assert.False(t, resumed)

	stored, err := store.Load(ctx, snap.Session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 3)
}
