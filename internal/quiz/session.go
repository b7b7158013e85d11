package quiz

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
)

// Session drives one SessionState through its transitions. It holds no
// lock and touches no storage; callers serialize access and persist State()
// after each successful mutation.
type Session struct {
	state *models.SessionState
}

// Verdict is what a check reveals about one question.
type Verdict struct {
	Index         int           `json:"index"`
	QuestionID    string        `json:"questionId"`
	Status        Status        `json:"status"`
	CorrectAnswer models.Answer `json:"correctAnswer"`
	Note          string        `json:"note,omitempty"`
}

// TickOutcome describes what a tick did besides counting down.
type TickOutcome struct {
	TimeLeft int  `json:"timeLeft"`
	Expired  bool `json:"expired"`
	Advanced bool `json:"advanced"`
	Finished bool `json:"finished"`
}

// NewSession samples quiz and returns a session positioned on the first
// question with the full countdown.
func NewSession(id string, quiz models.Quiz, user models.SessionUser, policy models.RevisitPolicy, rng *rand.Rand, now time.Time) *Session {
	questions := Sample(quiz.Questions, SampleSize(quiz), rng)
	answers := make([]models.UserAnswer, len(questions))
	for i, q := range questions {
		answers[i] = models.UserAnswer{QuestionID: q.ID, Answer: models.NoAnswer()}
	}

	return &Session{state: &models.SessionState{
		ID:                     id,
		QuizID:                 quiz.ID,
		QuizTitle:              quiz.Title,
		User:                   user,
		Timer:                  quiz.Timer,
		ShowNotesAfterQuestion: quiz.ShowNotesAfterQuestion,
		RevisitPolicy:          policy,
		Questions:              questions,
		Answers:                answers,
		TimeLeft:               quiz.Timer.Duration,
		LockedQuestionIDs:      []string{},
		StartedAt:              now,
		UpdatedAt:              now,
	}}
}

// Resume wraps a persisted state.
func Resume(state *models.SessionState) *Session {
	return &Session{state: state}
}

func (s *Session) State() *models.SessionState { return s.state }

func (s *Session) Finished() bool { return s.state.Finished }

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.state.Questions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return nil
}

// RecordAnswer overwrites the answer at position i. Blank answers are stored
// as unanswered.
func (s *Session) RecordAnswer(i int, a models.Answer) error {
	if s.state.Finished {
		return ErrSessionFinished
	}
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if s.state.IsLocked(s.state.Questions[i].ID) {
		return ErrQuestionLocked
	}

	s.state.Answers[i].Answer = a.Normalized()
	return nil
}

// CheckAnswer locks question i and reveals its verdict. Checking a locked
// question again returns the same verdict.
func (s *Session) CheckAnswer(i int) (Verdict, error) {
	if s.state.Finished {
		return Verdict{}, ErrSessionFinished
	}
	if err := s.checkIndex(i); err != nil {
		return Verdict{}, err
	}

	q := s.state.Questions[i]
	if !s.state.IsLocked(q.ID) {
		if s.state.Answers[i].Answer.IsBlank() {
			return Verdict{}, ErrEmptyAnswer
		}
		s.state.LockedQuestionIDs = append(s.state.LockedQuestionIDs, q.ID)
	}
	return s.verdict(i), nil
}

func (s *Session) verdict(i int) Verdict {
	q := s.state.Questions[i]
	v := Verdict{
		Index:         i,
		QuestionID:    q.ID,
		Status:        Grade(q, s.state.Answers[i].Answer),
		CorrectAnswer: q.CorrectAnswer,
	}
	if s.state.ShowNotesAfterQuestion {
		v.Note = q.NoteText()
	}
	return v
}

// Advance moves to the next question. With a per-question timer the
// countdown restarts according to the session's RevisitPolicy.
func (s *Session) Advance() error {
	if s.state.Finished {
		return ErrSessionFinished
	}
	if s.state.CurrentIndex >= len(s.state.Questions)-1 {
		return ErrNoNextQuestion
	}

	target := s.state.CurrentIndex + 1
	if s.state.Timer.PerQuestion() && s.resetOnArrival(target) {
		s.state.TimeLeft = s.state.Timer.Duration
	}
	s.moveTo(target)
	return nil
}

func (s *Session) resetOnArrival(target int) bool {
	switch s.state.RevisitPolicy {
	case models.RevisitResetAlways:
		return true
	case models.RevisitResetFirstVisit:
		return target > s.state.MaxVisited
	default:
		return !s.state.IsLocked(s.state.Questions[target].ID)
	}
}

func (s *Session) moveTo(i int) {
	s.state.CurrentIndex = i
	if i > s.state.MaxVisited {
		s.state.MaxVisited = i
	}
}

// Retreat moves to the previous question. The countdown is left alone.
func (s *Session) Retreat() error {
	if s.state.Finished {
		return ErrSessionFinished
	}
	if s.state.CurrentIndex <= 0 {
		return ErrNoPreviousQuestion
	}
	s.state.CurrentIndex--
	return nil
}

// Tick counts one second down. At zero a total countdown finishes the
// session; a per-question countdown moves on, or finishes on the last
// question.
func (s *Session) Tick() (TickOutcome, error) {
	if s.state.Finished {
		return TickOutcome{Finished: true}, ErrSessionFinished
	}
	if !s.state.Timer.Enabled() {
		return TickOutcome{TimeLeft: s.state.TimeLeft}, nil
	}

	if s.state.TimeLeft > 0 {
		s.state.TimeLeft--
	}
	if s.state.TimeLeft > 0 {
		return TickOutcome{TimeLeft: s.state.TimeLeft}, nil
	}

	out := TickOutcome{Expired: true}
	if !s.state.Timer.PerQuestion() || s.state.CurrentIndex >= len(s.state.Questions)-1 {
		s.finish(models.FinishTimeout)
		out.Finished = true
		return out, nil
	}

	s.moveTo(s.state.CurrentIndex + 1)
	s.state.TimeLeft = s.state.Timer.Duration
	out.Advanced = true
	out.TimeLeft = s.state.TimeLeft
	return out, nil
}

// Submit finishes the session from the last question once it is checked.
func (s *Session) Submit() error {
	if s.state.Finished {
		return ErrSessionFinished
	}
	last := len(s.state.Questions) - 1
	if last < 0 || s.state.CurrentIndex != last || !s.state.IsLocked(s.state.Questions[last].ID) {
		return ErrSubmitNotAllowed
	}
	s.finish(models.FinishSubmitted)
	return nil
}

// Exit finishes the session early from any position.
func (s *Session) Exit() error {
	if s.state.Finished {
		return ErrSessionFinished
	}
	s.finish(models.FinishExited)
	return nil
}

func (s *Session) finish(reason models.FinishReason) {
	s.state.Finished = true
	s.state.FinishReason = reason
}

// Result scores a finished session into the attempt record.
func (s *Session) Result(attemptID string, now time.Time) (*models.QuizAttempt, error) {
	if !s.state.Finished {
		return nil, ErrSessionNotFinished
	}

	res := Score(s.state.Questions, s.state.Answers)

	answers := make([]models.UserAnswer, len(s.state.Answers))
	copy(answers, s.state.Answers)
	questions := make([]models.Question, len(s.state.Questions))
	copy(questions, s.state.Questions)

	return &models.QuizAttempt{
		ID:              attemptID,
		QuizID:          s.state.QuizID,
		QuizTitle:       s.state.QuizTitle,
		UserName:        s.state.User.Name,
		IPAddress:       s.state.User.IP,
		Device:          s.state.User.Device,
		Score:           res.Percent,
		TotalCorrect:    res.Correct,
		TotalWrong:      res.Wrong,
		TotalUnanswered: res.Unanswered,
		FinishReason:    s.state.FinishReason,
		Timestamp:       now,
		Answers:         answers,
		Questions:       questions,
	}, nil
}
