// Package report renders exam results as Markdown and PDF.
package report

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/mandolyte/mdtopdf"

	"github.com/at-ishikawa/eiken/internal/exam"
)

//go:embed templates/results.md.go.tmpl
var fallbackResultsTemplate string

const fallbackTemplateName = "results.md.go.tmpl"

var funcMap = template.FuncMap{
	"inc":        func(i int) int { return i + 1 },
	"quote":      strconv.Quote,
	"formatTime": formatTime,
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// ParseTemplate reads templatePath and falls back to the embedded template
// when the path is empty, missing or does not parse.
func ParseTemplate(templatePath string) (*template.Template, error) {
	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).Funcs(funcMap).ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a template, using the embedded one",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackTemplateName).Funcs(funcMap).Parse(fallbackResultsTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

type answerView struct {
	QuestionText  string
	UserAnswer    string
	CorrectAnswer string
	IsCorrect     bool
	Explanation   string
}

type resultsView struct {
	Session   exam.Session
	Completed string
	Correct   int
	Answers   []answerView
}

func newResultsView(results *exam.Results) resultsView {
	view := resultsView{
		Session:   results.Session,
		Completed: "in progress",
		Answers:   make([]answerView, 0, len(results.Answers)),
	}
	if results.Session.CompletedAt != nil {
		view.Completed = formatTime(*results.Session.CompletedAt)
	}
	for _, a := range results.Answers {
		if a.IsCorrect {
			view.Correct++
		}
		av := answerView{
			QuestionText:  a.QuestionText,
			UserAnswer:    a.UserAnswer,
			CorrectAnswer: a.CorrectAnswer,
			IsCorrect:     a.IsCorrect,
		}
		if a.Explanation != nil {
			av.Explanation = *a.Explanation
		}
		view.Answers = append(view.Answers, av)
	}
	return view
}

// RenderMarkdown writes the results of one session to w.
func RenderMarkdown(w io.Writer, tmpl *template.Template, results *exam.Results) error {
	if err := tmpl.Execute(w, newResultsView(results)); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

// WriteMarkdown renders results into <dir>/eiken-session-<id>.md and returns the path.
func WriteMarkdown(dir string, tmpl *template.Template, results *exam.Results) (path string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
	}
	path = filepath.Join(dir, fmt.Sprintf("eiken-session-%d.md", results.Session.ID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("f.Close(%s) > %w", path, closeErr))
		}
		if err != nil {
			path = ""
		}
	}()

	if err := RenderMarkdown(f, tmpl, results); err != nil {
		return "", err
	}
	return path, nil
}

// ConvertMarkdownToPDF converts a markdown file to a PDF next to it and
// returns the absolute path of the PDF.
func ConvertMarkdownToPDF(markdownPath string) (string, error) {
	if !strings.HasSuffix(markdownPath, ".md") {
		return "", fmt.Errorf("input file must have .md extension: %s", markdownPath)
	}

	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	pdfPath := strings.TrimSuffix(markdownPath, ".md") + ".pdf"

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(content); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}
	return absPath, nil
}
