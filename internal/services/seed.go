package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// CatalogSeeder is the part of the catalog store seeding needs.
type CatalogSeeder interface {
	Count(ctx context.Context) (int64, error)
	Add(ctx context.Context, quizzes []models.Quiz) error
}

// SeedCatalog loads the quizzes in the YAML file at path into an empty
// catalog. A non-empty catalog or a missing file leaves things as they are.
func SeedCatalog(ctx context.Context, log *zap.Logger, catalog CatalogSeeder, path string) (int, error) {
	n, err := catalog.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	if n > 0 || path == "" {
		return 0, nil
	}

	seed, err := models.LoadCatalog(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("Quiz seed file not found, starting with an empty catalog", zap.String("path", path))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for i := range seed.Quizzes {
		q := &seed.Quizzes[i]
		if q.ID == "" {
			q.ID = slug.Make(q.Title)
		}
		if err := applyQuizDefaults(q); err != nil {
			return 0, fmt.Errorf("seed quiz %q: %w", q.ID, err)
		}
	}
	if err := catalog.Add(ctx, seed.Quizzes); err != nil {
		return 0, fmt.Errorf("seed quizzes: %w", err)
	}

	log.Info("Quiz catalog seeded", zap.String("path", path), zap.Int("quizzes", len(seed.Quizzes)))
	return len(seed.Quizzes), nil
}
