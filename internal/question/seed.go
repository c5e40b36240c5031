package question

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML list of questions and validates each entry.
func ParseYAML(content []byte) ([]*Question, error) {
	var questions []*Question
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&questions); err != nil {
		return nil, fmt.Errorf("yaml.Decode() > %w", err)
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question #%d (%q): %w", i+1, q.Text, err)
		}
	}
	return questions, nil
}

// LoadYAML reads a question bank file.
func LoadYAML(path string) ([]*Question, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}
	return ParseYAML(content)
}
