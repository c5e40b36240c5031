// Package schemas provides embedded SQL migration files and the bundled question bank.
package schemas

import "embed"

// Migrations contains the SQL migration files, one directory per database driver.
//
//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var Migrations embed.FS

// SampleQuestions is a small question bank covering every level.
//
//go:embed seeds/questions.yml
var SampleQuestions []byte
