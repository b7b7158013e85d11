package models

import "time"

// QuizAttempt is the record of one finished session. Only Comment changes
// after creation.
type QuizAttempt struct {
	ID              string       `json:"id"`
	QuizID          string       `json:"quizId"`
	QuizTitle       string       `json:"quizTitle"`
	UserName        string       `json:"userName"`
	IPAddress       string       `json:"ipAddress"`
	Device          string       `json:"device"`
	Score           int          `json:"score"`
	TotalCorrect    int          `json:"totalCorrect"`
	TotalWrong      int          `json:"totalWrong"`
	TotalUnanswered int          `json:"totalUnanswered"`
	FinishReason    FinishReason `json:"finishReason"`
	Timestamp       time.Time    `json:"timestamp"`
	Answers         []UserAnswer `json:"answers"`
	Questions       []Question   `json:"questions"`
	Comment         *string      `json:"comment,omitempty"`
}
