package cache

import (
	"context"
	"errors"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionCorrupt  = errors.New("session state is inconsistent")
)

// SessionStore keeps the latest snapshot of every live quiz session.
type SessionStore interface {
	Load(ctx context.Context, id string) (*models.SessionState, error)
	Save(ctx context.Context, state *models.SessionState) error
	Delete(ctx context.Context, id string) error
}

// StalePurger is implemented by stores that do not expire entries on their
// own.
type StalePurger interface {
	PurgeStale(ctx context.Context, before time.Time) (int64, error)
}
