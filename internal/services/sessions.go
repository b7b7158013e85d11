package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = cache.ErrSessionNotFound

// QuizSource looks quizzes up by id.
type QuizSource interface {
	Get(ctx context.Context, id string) (*models.Quiz, error)
}

// AttemptSink receives finished attempts.
type AttemptSink interface {
	Append(ctx context.Context, a *models.QuizAttempt) error
	Get(ctx context.Context, id string) (*models.QuizAttempt, error)
}

// Snapshot is what callers see after an operation. Attempt is set once the
// session has finished.
type Snapshot struct {
	Session quiz.SessionView    `json:"session"`
	Attempt *models.QuizAttempt `json:"attempt,omitempty"`
}

// TickEvent is one countdown step of a live session.
type TickEvent struct {
	SessionID string           `json:"sessionId"`
	Outcome   quiz.TickOutcome `json:"outcome"`
	Snapshot  *Snapshot        `json:"snapshot"`
}

// SessionService runs quiz sessions on top of a SessionStore. Operations on
// one session are serialized and every successful transition is written
// through before it returns. A finished session becomes an attempt and its
// stored state is dropped.
type SessionService struct {
	log      *zap.Logger
	quizzes  QuizSource
	attempts AttemptSink
	store    cache.SessionStore
	policy   models.RevisitPolicy
	locks    *keyedMutex

	now     func() time.Time
	newRand func() *rand.Rand
}

type SessionOption func(*SessionService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// WithRand replaces the source of sampling randomness.
func WithRand(newRand func() *rand.Rand) SessionOption {
	return func(s *SessionService) { s.newRand = newRand }
}

func NewSessionService(log *zap.Logger, quizzes QuizSource, attempts AttemptSink, store cache.SessionStore, policy models.RevisitPolicy, opts ...SessionOption) *SessionService {
	s := &SessionService{
		log:      log,
		quizzes:  quizzes,
		attempts: attempts,
		store:    store,
		policy:   policy,
		locks:    newKeyedMutex(),
		now:      time.Now,
		newRand:  quiz.NewRand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resumes the user's unfinished session on quizID or samples a new
// one. resumed reports which happened.
func (s *SessionService) Start(ctx context.Context, quizID string, user models.SessionUser) (snap *Snapshot, resumed bool, err error) {
	id := models.SessionID(quizID, user.Name)
	unlock := s.locks.Lock(id)
	defer unlock()

	state, err := s.store.Load(ctx, id)
	switch {
	case err == nil && !state.Finished:
		return &Snapshot{Session: quiz.View(state)}, true, nil
	case err == nil:
		if _, err := s.finalize(ctx, quiz.Resume(state)); err != nil {
			return nil, false, err
		}
	case errors.Is(err, cache.ErrSessionCorrupt):
		s.log.Warn("Discarding inconsistent quiz session", zap.String("session_id", id), zap.Error(err))
	case !errors.Is(err, cache.ErrSessionNotFound):
		return nil, false, fmt.Errorf("load session: %w", err)
	}

	q, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, false, err
	}

	sess := quiz.NewSession(id, *q, user, s.policy, s.newRand(), s.now().UTC())
	if err := s.store.Save(ctx, sess.State()); err != nil {
		return nil, false, fmt.Errorf("save session: %w", err)
	}

	s.log.Info("Quiz session started",
		zap.String("session_id", id),
		zap.String("quiz_id", quizID),
		zap.String("user", user.Name),
		zap.Int("questions", len(sess.State().Questions)),
	)
	return &Snapshot{Session: quiz.View(sess.State())}, false, nil
}

// Get returns the session as its owner sees it.
func (s *SessionService) Get(ctx context.Context, id, owner string) (*Snapshot, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if sess.Finished() {
		return s.finalize(ctx, sess)
	}
	return &Snapshot{Session: quiz.View(sess.State())}, nil
}

func (s *SessionService) Answer(ctx context.Context, id, owner string, index int, a models.Answer) (*Snapshot, error) {
	return s.mutate(ctx, id, owner, func(sess *quiz.Session) error {
		return sess.RecordAnswer(index, a)
	})
}

func (s *SessionService) Check(ctx context.Context, id, owner string, index int) (quiz.Verdict, *Snapshot, error) {
	var v quiz.Verdict
	snap, err := s.mutate(ctx, id, owner, func(sess *quiz.Session) error {
		var err error
		v, err = sess.CheckAnswer(index)
		return err
	})
	return v, snap, err
}

func (s *SessionService) Next(ctx context.Context, id, owner string) (*Snapshot, error) {
	return s.mutate(ctx, id, owner, (*quiz.Session).Advance)
}

func (s *SessionService) Prev(ctx context.Context, id, owner string) (*Snapshot, error) {
	return s.mutate(ctx, id, owner, (*quiz.Session).Retreat)
}

func (s *SessionService) Submit(ctx context.Context, id, owner string) (*Snapshot, error) {
	return s.mutate(ctx, id, owner, (*quiz.Session).Submit)
}

func (s *SessionService) Exit(ctx context.Context, id, owner string) (*Snapshot, error) {
	return s.mutate(ctx, id, owner, (*quiz.Session).Exit)
}

// Tick advances the countdown of session id by one step.
func (s *SessionService) Tick(ctx context.Context, id string) (TickEvent, error) {
	ev := TickEvent{SessionID: id}
	snap, err := s.mutate(ctx, id, "", func(sess *quiz.Session) error {
		var err error
		ev.Outcome, err = sess.Tick()
		return err
	})
	if err != nil {
		return ev, err
	}
	ev.Snapshot = snap
	return ev, nil
}

func (s *SessionService) mutate(ctx context.Context, id, owner string, fn func(*quiz.Session) error) (*Snapshot, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if sess.Finished() {
		if _, err := s.finalize(ctx, sess); err != nil {
			return nil, err
		}
		return nil, quiz.ErrSessionFinished
	}

	if err := fn(sess); err != nil {
		return nil, err
	}

	sess.State().UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess.State()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if sess.Finished() {
		return s.finalize(ctx, sess)
	}
	return &Snapshot{Session: quiz.View(sess.State())}, nil
}

// load fetches a session and hides it from anyone but its owner. An empty
// owner skips the check.
func (s *SessionService) load(ctx context.Context, id, owner string) (*quiz.Session, error) {
	state, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if owner != "" && state.User.Name != owner {
		return nil, ErrSessionNotFound
	}
	return quiz.Resume(state), nil
}

// finalize turns a finished session into its attempt exactly once and
// removes the stored state.
func (s *SessionService) finalize(ctx context.Context, sess *quiz.Session) (*Snapshot, error) {
	st := sess.State()
	attemptID := AttemptID(st)

	attempt, err := s.attempts.Get(ctx, attemptID)
	if errors.Is(err, repository.ErrAttemptNotFound) {
		attempt, err = sess.Result(attemptID, s.now().UTC())
		if err != nil {
			return nil, err
		}
		if err := s.attempts.Append(ctx, attempt); err != nil {
			return nil, fmt.Errorf("append attempt: %w", err)
		}
		s.log.Info("Quiz attempt recorded",
			zap.String("attempt_id", attempt.ID),
			zap.String("quiz_id", attempt.QuizID),
			zap.String("user", attempt.UserName),
			zap.Int("score", attempt.Score),
			zap.String("reason", string(attempt.FinishReason)),
		)
	} else if err != nil {
		return nil, fmt.Errorf("look up attempt: %w", err)
	}

	if err := s.store.Delete(ctx, st.ID); err != nil {
		s.log.Warn("Failed to drop finished session", zap.String("session_id", st.ID), zap.Error(err))
	}
	return &Snapshot{Session: quiz.View(st), Attempt: attempt}, nil
}

var attemptNamespace = uuid.MustParse("0b7c2d4e-91aa-4f0e-8d3c-5e6f7a8b9c01")

// AttemptID derives the attempt id from the session and its start time so a
// retried finalization finds the attempt it already wrote.
func AttemptID(st *models.SessionState) string {
	return uuid.NewSHA1(attemptNamespace, []byte(st.ID+"@"+strconv.FormatInt(st.StartedAt.UnixNano(), 10))).String()
}
