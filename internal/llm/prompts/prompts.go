// Package prompts renders the text prompts sent to the language model.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var templateFS embed.FS

const maxInputRunes = 10000

var (
	lessonContentRegex   = regexp.MustCompile(`(?i)</?\s*lesson-content\b[^>]*>`)
	studentQuestionRegex = regexp.MustCompile(`(?i)</?\s*student-question\b[^>]*>`)
)

// Difficulty steers how hard generated quiz questions are.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var validDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// IsValidDifficulty reports whether d names a known difficulty. The empty
// string is valid and leaves difficulty unspecified.
func IsValidDifficulty(d string) bool {
	return d == "" || validDifficulties[Difficulty(d)]
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

// QuizData holds template data for quiz generation.
type QuizData struct {
	Content      string
	NumQuestions int
	Difficulty   Difficulty
}

// SummaryData holds template data for lesson summaries.
type SummaryData struct {
	Content string
	Bullets int
}

// TutorData holds template data for tutor answers.
type TutorData struct {
	Content  string
	Question string
}

// Load parses the embedded prompt templates. Only the first call does work.
func Load() error {
	return LoadFS(templateFS)
}

// LoadFS parses prompt templates from fsys.
func LoadFS(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template)
		for _, name := range []string{"quiz", "summary", "tutor"} {
			file := "templates/" + name + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + file + ": " + err.Error())
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + file + ": " + err.Error())
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// BuildQuizPrompt renders the quiz generation prompt.
func BuildQuizPrompt(content string, numQuestions int, difficulty Difficulty) (string, error) {
	if numQuestions <= 0 {
		numQuestions = 3
	}
	return render("quiz", QuizData{
		Content:      sanitize(content, lessonContentRegex, "[No lesson content provided]"),
		NumQuestions: numQuestions,
		Difficulty:   difficulty,
	})
}

// BuildSummaryPrompt renders the lesson summary prompt.
func BuildSummaryPrompt(content string) (string, error) {
	return render("summary", SummaryData{
		Content: sanitize(content, lessonContentRegex, "[No lesson content provided]"),
		Bullets: 3,
	})
}

// BuildTutorPrompt renders the tutor prompt for a student question.
func BuildTutorPrompt(question, content string) (string, error) {
	return render("tutor", TutorData{
		Content:  sanitize(content, lessonContentRegex, "[No lesson content provided]"),
		Question: sanitize(question, studentQuestionRegex, "[No question provided]"),
	})
}

func render(name string, data any) (string, error) {
	if err := Load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	tmpl, ok := templates[name]
	if !ok {
		return "", errors.New("unknown prompt template: " + name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize strips delimiter tags an input could use to escape its section
// and caps the length.
func sanitize(s string, tag *regexp.Regexp, empty string) string {
	s = tag.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return empty
	}
	if utf8.RuneCountInString(s) > maxInputRunes {
		runes := []rune(s)
		s = string(runes[:maxInputRunes]) + "\n\n[Content truncated due to length]"
	}
	return s
}
