package models

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MCQ"
	QuestionTrueFalse      QuestionType = "TF"
	QuestionFillInBlank    QuestionType = "FIB"
)

// TrueFalseOptions is the implicit option set of a true/false question.
var TrueFalseOptions = []string{"True", "False"}

// Question is one item of a quiz bank.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Text          string       `json:"questionText" yaml:"question_text"`
	Type          QuestionType `json:"type" yaml:"type"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer Answer       `json:"correctAnswer" yaml:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Note          string       `json:"note,omitempty" yaml:"note,omitempty"`
}

// Choices returns the options a user picks from. Fill-in-blank has none.
func (q Question) Choices() []string {
	switch q.Type {
	case QuestionTrueFalse:
		return TrueFalseOptions
	case QuestionFillInBlank:
		return nil
	default:
		return q.Options
	}
}

// NoteText is what is shown after a check: the note, else the explanation.
func (q Question) NoteText() string {
	if strings.TrimSpace(q.Note) != "" {
		return q.Note
	}
	return q.Explanation
}

type TimerType string

const (
	TimerTotal       TimerType = "total"
	TimerPerQuestion TimerType = "per-question"
)

// TimerConfig is either one countdown for the whole quiz or a countdown
// restarted for every question. Duration is in seconds.
type TimerConfig struct {
	Type     TimerType `json:"type" yaml:"type"`
	Duration int       `json:"duration" yaml:"duration"`
}

func (t TimerConfig) PerQuestion() bool { return t.Type == TimerPerQuestion }

// Enabled reports whether the countdown runs at all.
func (t TimerConfig) Enabled() bool { return t.Duration > 0 }

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Quiz is a question bank plus the configuration of a session over it.
type Quiz struct {
	ID                     string      `json:"id" yaml:"id"`
	Title                  string      `json:"title" yaml:"title"`
	Description            string      `json:"description" yaml:"description"`
	Difficulty             Difficulty  `json:"difficulty" yaml:"difficulty"`
	TotalQuestions         int         `json:"totalQuestions" yaml:"total_questions"`
	QuestionsToSelect      int         `json:"questionsToSelect" yaml:"questions_to_select"`
	Timer                  TimerConfig `json:"timer" yaml:"timer"`
	ShowNotesAfterQuestion bool        `json:"showNotesAfterQuestion,omitempty" yaml:"show_notes_after_question,omitempty"`
	Questions              []Question  `json:"questions" yaml:"questions"`
}

// Catalog is the layout of a seed file.
type Catalog struct {
	Quizzes []Quiz `yaml:"quizzes"`
}

// LoadCatalog reads and parses a YAML seed file of quizzes.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog YAML: %w", err)
	}

	return &catalog, nil
}
