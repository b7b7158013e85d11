package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"gorm.io/gorm"
)

var ErrAttemptNotFound = errors.New("attempt not found")

// AttemptRepository is the append-only log of finished sessions. Only the
// comment of an attempt can change after it is written.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Append(ctx context.Context, a *models.QuizAttempt) error {
	rec, err := attemptToRecord(a)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append attempt %s: %w", a.ID, err)
	}
	return nil
}

// List returns every attempt, oldest first.
func (r *AttemptRepository) List(ctx context.Context) ([]models.QuizAttempt, error) {
	return r.find(r.db.WithContext(ctx))
}

// FilterByQuiz returns the attempts of one quiz, oldest first.
func (r *AttemptRepository) FilterByQuiz(ctx context.Context, quizID string) ([]models.QuizAttempt, error) {
	return r.find(r.db.WithContext(ctx).Where("quiz_id = ?", quizID))
}

func (r *AttemptRepository) find(q *gorm.DB) ([]models.QuizAttempt, error) {
	var recs []models.AttemptRecord
	if err := q.Order("timestamp, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	out := make([]models.QuizAttempt, 0, len(recs))
	for _, rec := range recs {
		a, err := attemptFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *AttemptRepository) Get(ctx context.Context, id string) (*models.QuizAttempt, error) {
	var rec models.AttemptRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt %s: %w", id, err)
	}
	return attemptFromRecord(rec)
}

func (r *AttemptRepository) SetComment(ctx context.Context, id, text string) error {
	res := r.db.WithContext(ctx).Model(&models.AttemptRecord{}).Where("id = ?", id).Update("comment", text)
	if res.Error != nil {
		return fmt.Errorf("comment attempt %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// DeleteByQuiz drops every attempt of a quiz and reports how many went.
func (r *AttemptRepository) DeleteByQuiz(ctx context.Context, quizID string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.AttemptRecord{}, "quiz_id = ?", quizID)
	return res.RowsAffected, res.Error
}

func attemptToRecord(a *models.QuizAttempt) (models.AttemptRecord, error) {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return models.AttemptRecord{}, fmt.Errorf("encode answers: %w", err)
	}
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return models.AttemptRecord{}, fmt.Errorf("encode questions: %w", err)
	}
	return models.AttemptRecord{
		ID:              a.ID,
		QuizID:          a.QuizID,
		QuizTitle:       a.QuizTitle,
		UserName:        a.UserName,
		IPAddress:       a.IPAddress,
		Device:          a.Device,
		Score:           a.Score,
		TotalCorrect:    a.TotalCorrect,
		TotalWrong:      a.TotalWrong,
		TotalUnanswered: a.TotalUnanswered,
		FinishReason:    string(a.FinishReason),
		Timestamp:       a.Timestamp,
		Answers:         answers,
		Questions:       questions,
		Comment:         a.Comment,
	}, nil
}

func attemptFromRecord(rec models.AttemptRecord) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{
		ID:              rec.ID,
		QuizID:          rec.QuizID,
		QuizTitle:       rec.QuizTitle,
		UserName:        rec.UserName,
		IPAddress:       rec.IPAddress,
		Device:          rec.Device,
		Score:           rec.Score,
		TotalCorrect:    rec.TotalCorrect,
		TotalWrong:      rec.TotalWrong,
		TotalUnanswered: rec.TotalUnanswered,
		FinishReason:    models.FinishReason(rec.FinishReason),
		Timestamp:       rec.Timestamp,
		Comment:         rec.Comment,
	}
	if err := json.Unmarshal(rec.Answers, &a.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(rec.Questions, &a.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of %s: %w", rec.ID, err)
	}
	return a, nil
}
