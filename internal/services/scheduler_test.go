package services

import (
	"context"
	"testing"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchedulerSweep(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &models.SessionState{ID: "old", UpdatedAt: fixedNow.Add(-3 * time.Hour)}))
	require.NoError(t, store.Save(ctx, &models.SessionState{ID: "fresh", UpdatedAt: fixedNow.Add(-time.Minute)}))

	s := NewScheduler(zap.NewNop(), store, time.Hour)
	s.now = func() time.Time { return fixedNow }

	assert.Equal(t, int64(1), s.Sweep(ctx))
	_, err := store.Load(ctx, "fresh")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), s.Sweep(ctx))
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(zap.NewNop(), cache.NewMemoryStore(), time.Hour)
	assert.Error(t, s.Start("not a schedule"))

	require.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
