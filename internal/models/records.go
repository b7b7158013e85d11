package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// IDList is a text array on postgres and its "{a,b}" literal elsewhere.
type IDList []string

func (l IDList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *IDList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = IDList(arr)
	return nil
}

func (IDList) GormDataType() string { return "idlist" }

func (IDList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// QuizRecord is the catalog row. The bank is kept as one JSON document.
type QuizRecord struct {
	ID                     string `gorm:"primaryKey;size:191"`
	Title                  string `gorm:"not null"`
	Description            string
	Difficulty             string `gorm:"size:16"`
	TotalQuestions         int
	QuestionsToSelect      int
	TimerType              string `gorm:"size:16"`
	TimerDuration          int
	ShowNotesAfterQuestion bool
	Questions              datatypes.JSON
	CreatedAt              time.Time
}

func (QuizRecord) TableName() string { return "quizzes" }

// AttemptRecord is a row of the append-only attempt log.
type AttemptRecord struct {
	ID              string `gorm:"primaryKey;size:64"`
	QuizID          string `gorm:"size:191;index"`
	QuizTitle       string
	UserName        string `gorm:"size:191"`
	IPAddress       string `gorm:"size:64;index"`
	Device          string `gorm:"size:16"`
	Score           int
	TotalCorrect    int
	TotalWrong      int
	TotalUnanswered int
	FinishReason    string    `gorm:"size:16"`
	Timestamp       time.Time `gorm:"index"`
	Answers         datatypes.JSON
	Questions       datatypes.JSON
	Comment         *string
}

func (AttemptRecord) TableName() string { return "quiz_attempts" }

// SessionRecord persists a SessionState for the database-backed store.
type SessionRecord struct {
	ID          string `gorm:"primaryKey;size:64"`
	QuizID      string `gorm:"size:191"`
	UserName    string `gorm:"size:191"`
	QuestionIDs IDList
	State       datatypes.JSON
	UpdatedAt   time.Time `gorm:"index;autoUpdateTime:false"`
}

func (SessionRecord) TableName() string { return "quiz_sessions" }

// KnownName remembers the name last used from an address.
type KnownName struct {
	IPAddress string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:191"`
	CreatedAt time.Time
}
