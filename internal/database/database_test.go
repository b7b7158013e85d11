package database

import (
	"testing"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: "file:migrate_test?mode=memory&cache=shared", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	// Migrations are idempotent.
	require.NoError(t, Migrate(db))

	for _, table := range []string{"quizzes", "quiz_attempts", "quiz_sessions", "known_names"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}
