package repository

import (
	"context"
	"fmt"
	"time"
)

type TimelineDataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// QuizStats summarises the scores recorded for one quiz.
type QuizStats struct {
	Attempts int64   `json:"attempts"`
	Average  float64 `json:"average"`
	Lowest   int     `json:"lowest"`
	Highest  int     `json:"highest"`
	Timeouts int64   `json:"timeouts"`
	Exits    int64   `json:"exits"`
}

func (r *AttemptRepository) Stats(ctx context.Context, quizID string) (QuizStats, error) {
	var stats QuizStats
	query := `
		SELECT
			COUNT(*) AS attempts,
			COALESCE(AVG(score), 0) AS average,
			COALESCE(MIN(score), 0) AS lowest,
			COALESCE(MAX(score), 0) AS highest,
			COALESCE(SUM(CASE WHEN finish_reason = 'timeout' THEN 1 ELSE 0 END), 0) AS timeouts,
			COALESCE(SUM(CASE WHEN finish_reason = 'exited' THEN 1 ELSE 0 END), 0) AS exits
		FROM quiz_attempts
		WHERE quiz_id = ?
	`
	if err := r.db.WithContext(ctx).Raw(query, quizID).Scan(&stats).Error; err != nil {
		return QuizStats{}, fmt.Errorf("quiz stats: %w", err)
	}
	return stats, nil
}

// ScoreTimeline lists every score of a quiz in the order it was recorded.
func (r *AttemptRepository) ScoreTimeline(ctx context.Context, quizID string) ([]TimelineDataPoint, error) {
	var data []TimelineDataPoint
	query := `
		SELECT
			timestamp AS date,
			score AS value
		FROM quiz_attempts
		WHERE quiz_id = ?
		ORDER BY timestamp, id
	`
	if err := r.db.WithContext(ctx).Raw(query, quizID).Scan(&data).Error; err != nil {
		return nil, fmt.Errorf("score timeline: %w", err)
	}
	return data, nil
}
