package models

import (
	"time"

	"github.com/google/uuid"
)

// RevisitPolicy decides whether a per-question countdown restarts when the
// user moves forward onto a question.
type RevisitPolicy string

const (
	// RevisitResetUnlocked restarts the countdown unless the target question
	// is already locked.
	RevisitResetUnlocked RevisitPolicy = "unlocked"
	// RevisitResetAlways restarts the countdown on every forward move.
	RevisitResetAlways RevisitPolicy = "always"
	// RevisitResetFirstVisit restarts it only the first time a question
	// becomes current.
	RevisitResetFirstVisit RevisitPolicy = "first-visit"
)

// ParseRevisitPolicy maps config text to a policy, falling back to
// RevisitResetUnlocked.
func ParseRevisitPolicy(s string) RevisitPolicy {
	switch RevisitPolicy(s) {
	case RevisitResetAlways, RevisitResetFirstVisit:
		return RevisitPolicy(s)
	default:
		return RevisitResetUnlocked
	}
}

type FinishReason string

const (
	FinishSubmitted FinishReason = "submitted"
	FinishExited    FinishReason = "exited"
	FinishTimeout   FinishReason = "timeout"
)

// SessionUser is who is taking the quiz.
type SessionUser struct {
	Name   string `json:"name"`
	IP     string `json:"ip"`
	Device string `json:"device"`
}

// UserAnswer pairs a sampled question with what the user answered.
type UserAnswer struct {
	QuestionID string `json:"questionId"`
	Answer     Answer `json:"answer"`
}

// SessionState is everything needed to resume a quiz in progress, including
// the sampled question sequence itself.
type SessionState struct {
	ID                     string        `json:"id"`
	QuizID                 string        `json:"quizId"`
	QuizTitle              string        `json:"quizTitle"`
	User                   SessionUser   `json:"user"`
	Timer                  TimerConfig   `json:"timer"`
	ShowNotesAfterQuestion bool          `json:"showNotesAfterQuestion"`
	RevisitPolicy          RevisitPolicy `json:"revisitPolicy"`
	Questions              []Question    `json:"questions"`
	Answers                []UserAnswer  `json:"answers"`
	TimeLeft               int           `json:"timeLeft"`
	CurrentIndex           int           `json:"currentIndex"`
	LockedQuestionIDs      []string      `json:"lockedQuestionIds"`
	MaxVisited             int           `json:"maxVisited"`
	Finished               bool          `json:"finished"`
	FinishReason           FinishReason  `json:"finishReason,omitempty"`
	StartedAt              time.Time     `json:"startedAt"`
	UpdatedAt              time.Time     `json:"updatedAt"`
}

// IsLocked reports whether the question with id has been checked.
func (s *SessionState) IsLocked(id string) bool {
	for _, locked := range s.LockedQuestionIDs {
		if locked == id {
			return true
		}
	}
	return false
}

// QuestionIDs lists the sampled question ids in order.
func (s *SessionState) QuestionIDs() []string {
	ids := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.ID
	}
	return ids
}

var sessionNamespace = uuid.MustParse("6f1c8f0e-3a55-4d6b-9a55-4a2f0d6c1e77")

// SessionID is the stable id of the session for one user+quiz pairing.
func SessionID(quizID, userName string) string {
	return uuid.NewSHA1(sessionNamespace, []byte(quizID+"\x00"+userName)).String()
}
