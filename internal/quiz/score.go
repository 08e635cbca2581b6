package quiz

import (
	"fmt"

	"github.com/luminalearn/lumina/internal/model"
)

// PassThreshold is the minimum percentage for a passing attempt.
const PassThreshold = 60.0

// Outcome is the scored result of a finished attempt.
type Outcome struct {
	Correct    int                 `json:"correct"`
	Total      int                 `json:"total"`
	Percentage float64             `json:"percentage"`
	Status     model.AttemptStatus `json:"status"`
}

// Finalize maps a raw score to a percentage and verdict. The threshold is
// compared against the unrounded percentage. total must be positive.
func Finalize(score, total int) Outcome {
	pct := float64(score) / float64(total) * 100
	status := model.StatusFailed
	if pct >= PassThreshold {
		status = model.StatusPassed
	}
	return Outcome{Correct: score, Total: total, Percentage: pct, Status: status}
}

// Fraction renders the outcome as "correct/total".
func (o Outcome) Fraction() string {
	return fmt.Sprintf("%d/%d", o.Correct, o.Total)
}

// Passed reports whether the attempt met the threshold.
func (o Outcome) Passed() bool {
	return o.Status == model.StatusPassed
}
