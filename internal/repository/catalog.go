package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrQuizNotFound = errors.New("quiz not found")

// CatalogRepository stores quiz banks.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) List(ctx context.Context) ([]models.Quiz, error) {
	var recs []models.QuizRecord
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	quizzes := make([]models.Quiz, 0, len(recs))
	for _, rec := range recs {
		q, err := quizFromRecord(rec)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, nil
}

func (r *CatalogRepository) Get(ctx context.Context, id string) (*models.Quiz, error) {
	var rec models.QuizRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz %s: %w", id, err)
	}

	q, err := quizFromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Add stores every quiz or none. A quiz whose id already exists replaces it.
func (r *CatalogRepository) Add(ctx context.Context, quizzes []models.Quiz) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, q := range quizzes {
			rec, err := quizToRecord(q)
			if err != nil {
				return err
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&rec).Error
			if err != nil {
				return fmt.Errorf("store quiz %s: %w", q.ID, err)
			}
		}
		return nil
	})
}

func (r *CatalogRepository) Remove(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.QuizRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("remove quiz %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrQuizNotFound
	}
	return nil
}

func (r *CatalogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.QuizRecord{}).Count(&n).Error
	return n, err
}

func quizToRecord(q models.Quiz) (models.QuizRecord, error) {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return models.QuizRecord{}, fmt.Errorf("encode questions of %s: %w", q.ID, err)
	}
	return models.QuizRecord{
		ID:                     q.ID,
		Title:                  q.Title,
		Description:            q.Description,
		Difficulty:             string(q.Difficulty),
		TotalQuestions:         q.TotalQuestions,
		QuestionsToSelect:      q.QuestionsToSelect,
		TimerType:              string(q.Timer.Type),
		TimerDuration:          q.Timer.Duration,
		ShowNotesAfterQuestion: q.ShowNotesAfterQuestion,
		Questions:              questions,
	}, nil
}

func quizFromRecord(rec models.QuizRecord) (models.Quiz, error) {
	q := models.Quiz{
		ID:                     rec.ID,
		Title:                  rec.Title,
		Description:            rec.Description,
		Difficulty:             models.Difficulty(rec.Difficulty),
		TotalQuestions:         rec.TotalQuestions,
		QuestionsToSelect:      rec.QuestionsToSelect,
		Timer:                  models.TimerConfig{Type: models.TimerType(rec.TimerType), Duration: rec.TimerDuration},
		ShowNotesAfterQuestion: rec.ShowNotesAfterQuestion,
	}
	if len(rec.Questions) > 0 {
		if err := json.Unmarshal(rec.Questions, &q.Questions); err != nil {
			return models.Quiz{}, fmt.Errorf("decode questions of %s: %w", rec.ID, err)
		}
	}
	return q, nil
}
