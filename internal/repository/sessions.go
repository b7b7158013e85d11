package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository is the database-backed session store. The sampled
// question ids sit in their own array column as well as in the state, and
// Load refuses a row where the two disagree.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*models.SessionState, error) {
	var rec models.SessionRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cache.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var state models.SessionState
	if err := json.Unmarshal(rec.State, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if !sameOrder(rec.QuestionIDs, state.QuestionIDs()) {
		return nil, fmt.Errorf("%w: session %s question order differs from its state", cache.ErrSessionCorrupt, id)
	}
	return &state, nil
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (r *SessionRepository) Save(ctx context.Context, state *models.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	rec := models.SessionRecord{
		ID:          state.ID,
		QuizID:      state.QuizID,
		UserName:    state.User.Name,
		QuestionIDs: models.IDList(state.QuestionIDs()),
		State:       data,
		UpdatedAt:   state.UpdatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rec).Error
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.SessionRecord{}, "id = ?", id).Error
}

// PurgeStale drops sessions last written before the cutoff.
func (r *SessionRepository) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("updated_at < ?", before).Delete(&models.SessionRecord{})
	return res.RowsAffected, res.Error
}
