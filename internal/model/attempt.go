package model

import "time"

// AttemptStatus is the verdict of a completed attempt.
type AttemptStatus string

const (
	StatusPassed AttemptStatus = "Passed"
	StatusFailed AttemptStatus = "Failed"
)

// AttemptDateLayout is the calendar date format stored on attempts.
const AttemptDateLayout = "Jan 2, 2006"

// CompletedAttempt is the immutable record of one finished quiz run.
type CompletedAttempt struct {
	ID          string        `json:"id"`
	CourseTitle string        `json:"course_title"`
	QuizTitle   string        `json:"quiz_title"`
	Date        string        `json:"date"`
	Score       string        `json:"score"` // "correct/total"
	Status      AttemptStatus `json:"status"`
	Correct     int           `json:"correct"`
	Total       int           `json:"total"`
	CompletedAt time.Time     `json:"completed_at"`
}

// HistoryExport is the JSON document written by the history export.
type HistoryExport struct {
	ExportedAt time.Time          `json:"exported_at"`
	Total      int                `json:"total"`
	Passed     int                `json:"passed"`
	Attempts   []CompletedAttempt `json:"attempts"`
}
