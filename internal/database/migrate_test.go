package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/eiken/internal/config"
	"github.com/at-ishikawa/eiken/schemas"
)

func TestMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "eiken.db")})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	applied, err := Migrate(ctx, db, schemas.Migrations)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql"}, applied)

	for _, table := range []string{"questions", "exam_sessions", "user_answers", "users"} {
		var name string
		require.NoError(t, db.Get(&name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table))
		assert.Equal(t, table, name)
	}

	applied, err = Migrate(ctx, db, schemas.Migrations)
	require.NoError(t, err)
	assert.Empty(t, applied, "second run must not re-apply migrations")
}

func TestMigrate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fs      fstest.MapFS
		wantErr string
	}{
		{
			name:    "missing driver directory",
			fs:      fstest.MapFS{"migrations/mysql/001.sql": {Data: []byte("SELECT 1;")}},
			wantErr: "read migrations dir migrations/sqlite",
		},
		{
			name: "broken statement",
			fs: fstest.MapFS{
				"migrations/sqlite/001.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE;\n-- +migrate Down\n")},
			},
			wantErr: "exec migration 001.sql",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "eiken.db")})
			require.NoError(t, err)
			defer db.Close()

			_, err = Migrate(context.Background(), db, tt.fs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "no markers",
			content: "CREATE TABLE a (id INT);",
			want:    "CREATE TABLE a (id INT);",
		},
		{
			name:    "up and down",
			content: "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n",
			want:    "\nCREATE TABLE a (id INT);\n",
		},
		{
			name:    "up only",
			content: "-- +migrate Up\nCREATE TABLE a (id INT);\n",
			want:    "\nCREATE TABLE a (id INT);\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractUpMigration(tt.content))
		})
	}
}
