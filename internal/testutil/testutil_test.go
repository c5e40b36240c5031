package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/eiken/internal/config"
	"github.com/at-ishikawa/eiken/internal/question"
)

func TestOpenTestDB_SeedSampleQuestions(t *testing.T) {
	db := OpenTestDB(t)
	byText := SeedSampleQuestions(t, db)
	assert.Len(t, byText, 21)

	q, ok := byText["I ___ a student."]
	require.True(t, ok)
	assert.Equal(t, question.Level5, q.Level)
	assert.Equal(t, "A", q.CorrectAnswer)

	got, err := question.NewDBRepository(db).Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Text, got.Text)
}

func TestSetupTestConfig(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath, dbPath := SetupTestConfig(t, tmpDir, "exam:\n  resubmission_policy: reject\n")

	assert.Equal(t, filepath.Join(tmpDir, "config.yml"), cfgPath)
	assert.Equal(t, filepath.Join(tmpDir, "eiken.db"), dbPath)

	loader, err := config.NewConfigLoader(cfgPath)
	require.NoError(t, err)
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Equal(t, "reject", cfg.Exam.ResubmissionPolicy)
}

func TestSetupBrokenConfigFile(t *testing.T) {
	cfgPath := SetupBrokenConfigFile(t)
	_, err := os.Stat(cfgPath)
	require.NoError(t, err)

	loader, err := config.NewConfigLoader(cfgPath)
	require.NoError(t, err)
	_, err = loader.Load()
	assert.Error(t, err)
}
