// Package testutil provides shared test helpers for databases, question fixtures and config files.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/eiken/internal/config"
	"github.com/at-ishikawa/eiken/internal/database"
	"github.com/at-ishikawa/eiken/internal/question"
	"github.com/at-ishikawa/eiken/schemas"
)

// OpenTestDB opens a migrated sqlite database in a temp dir and closes it on cleanup.
func OpenTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return OpenTestDBAt(t, filepath.Join(t.TempDir(), "eiken.db"))
}

// OpenTestDBAt is OpenTestDB for a given database file.
func OpenTestDBAt(t *testing.T, path string) *sqlx.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: database.DriverSQLite, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.Migrate(context.Background(), db, schemas.Migrations)
	require.NoError(t, err)
	return db
}

// SeedSampleQuestions loads the bundled question bank into db and returns the
// stored questions keyed by their text.
func SeedSampleQuestions(t *testing.T, db *sqlx.DB) map[string]question.Question {
	t.Helper()
	questions, err := question.ParseYAML(schemas.SampleQuestions)
	require.NoError(t, err)
	require.NoError(t, question.NewDBRepository(db).BatchCreate(context.Background(), questions))

	var stored []question.Question
	require.NoError(t, db.Select(&stored, "SELECT id, level, question_type, question_text, options, correct_answer, explanation, created_at FROM questions ORDER BY id"))
	byText := make(map[string]question.Question, len(stored))
	for _, q := range stored {
		byText[q.Text] = q
	}
	return byText
}

// SetupTestConfig writes a config.yml into tmpDir using a sqlite database in
// the same directory, followed by extra YAML sections. It returns the paths of
// the config file and the database.
func SetupTestConfig(t *testing.T, tmpDir string, extra string) (cfgPath string, dbPath string) {
	t.Helper()
	dbPath = filepath.Join(tmpDir, "eiken.db")
	cfgPath = filepath.Join(tmpDir, "config.yml")

	configContent := fmt.Sprintf(`database:
  driver: sqlite
  path: %s
%s`, dbPath, extra)
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath, dbPath
}

// SetupBrokenConfigFile creates a config file with invalid YAML that causes Load() to fail.
func SetupBrokenConfigFile(t *testing.T) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{{invalid yaml content"), 0644))
	return cfgPath
}
