package question

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/eiken/schemas"
)

func TestParseYAML_SampleQuestions(t *testing.T) {
	questions, err := ParseYAML(schemas.SampleQuestions)
	require.NoError(t, err)
	assert.Len(t, questions, 21)

	perLevel := map[Level]int{}
	for _, q := range questions {
		perLevel[q.Level]++
		if q.Type == TypeFillBlank {
			assert.Empty(t, q.Options, q.Text)
		}
	}
	for _, l := range Levels {
		assert.NotZero(t, perLevel[l], "level %s has no sample question", l)
	}
}

func TestLoadYAML(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantLen int
		wantErr string
	}{
		{
			name: "valid file",
			content: `- level: 3級
  question_type: fill_blank
  question_text: The problem is ___ to solve without expert help.
  correct_answer: too complex
`,
			wantLen: 1,
		},
		{
			name: "unknown field",
			content: `- level: 3級
  question_type: fill_blank
  question_text: x
  correct_answer: y
  difficulty: hard
`,
			wantErr: "yaml.Decode()",
		},
		{
			name: "invalid level",
			content: `- level: 1級
  question_type: fill_blank
  question_text: x
  correct_answer: y
`,
			wantErr: "question #1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "questions.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			got, err := LoadYAML(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}

	_, err := LoadYAML(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorContains(t, err, "os.ReadFile")
}
