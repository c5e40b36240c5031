// Package question provides the Eiken question bank.
package question

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a question id does not exist.
	ErrNotFound = errors.New("question not found")
	// ErrUnknownLevel is returned for a level outside the six Eiken tiers.
	ErrUnknownLevel = errors.New("unknown level")
	// ErrUnknownType is returned for an unsupported question type.
	ErrUnknownType = errors.New("unknown question type")
	// ErrInvalid is returned when a question misses a required field.
	ErrInvalid = errors.New("invalid question")
)

// Level is an Eiken grade.
type Level string

const (
	Level5        Level = "5級"
	Level4        Level = "4級"
	Level3        Level = "3級"
	LevelPre2     Level = "準2級"
	LevelPre2Plus Level = "準2級プラス"
	Level2        Level = "2級"
)

// Levels lists every supported level from easiest to hardest.
var Levels = []Level{Level5, Level4, Level3, LevelPre2, LevelPre2Plus, Level2}

// ParseLevel converts s to a Level.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Type is the answer format of a question.
type Type string

const (
	TypeSingleChoice Type = "single_choice"
	TypeFillBlank    Type = "fill_blank"
	TypeEssay        Type = "essay"
)

// ParseType converts s to a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeSingleChoice, TypeFillBlank, TypeEssay:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Options holds the choices of a single_choice question.
// It is stored as a JSON array and is NULL for other types.
type Options []string

// Scan implements sql.Scanner.
func (o *Options) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan options: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*o = nil
		return nil
	}
	var opts []string
	if err := json.Unmarshal(raw, &opts); err != nil {
		return fmt.Errorf("json.Unmarshal(options) > %w", err)
	}
	*o = opts
	return nil
}

// Value implements driver.Valuer.
func (o Options) Value() (driver.Value, error) {
	if len(o) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(o))
	if err != nil {
		return nil, fmt.Errorf("json.Marshal(options) > %w", err)
	}
	return string(b), nil
}

// Question is an immutable question bank record.
type Question struct {
	ID            int64     `db:"id" json:"id" yaml:"-"`
	Level         Level     `db:"level" json:"level" yaml:"level"`
	Type          Type      `db:"question_type" json:"question_type" yaml:"question_type"`
	Text          string    `db:"question_text" json:"question_text" yaml:"question_text"`
	Options       Options   `db:"options" json:"options" yaml:"options"`
	CorrectAnswer string    `db:"correct_answer" json:"correct_answer" yaml:"correct_answer"`
	Explanation   *string   `db:"explanation" json:"explanation" yaml:"explanation"`
	CreatedAt     time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

// Validate checks the fields required before a question is stored.
func (q Question) Validate() error {
	if _, err := ParseLevel(string(q.Level)); err != nil {
		return err
	}
	if _, err := ParseType(string(q.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question_text is required", ErrInvalid)
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("%w: correct_answer is required", ErrInvalid)
	}
	if q.Type == TypeSingleChoice && len(q.Options) == 0 {
		return fmt.Errorf("%w: single_choice question requires options", ErrInvalid)
	}
	return nil
}
