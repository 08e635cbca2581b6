package store

import (
	"context"
	"fmt"

	"github.com/luminalearn/lumina/internal/model"
)

// Append records a completed attempt. Attempts are never updated or deleted.
func (s *Store) Append(ctx context.Context, a model.CompletedAttempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, course_title, quiz_title, date, score, status, correct, total, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CourseTitle, a.QuizTitle, a.Date, a.Score, a.Status, a.Correct, a.Total, a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// LoadAll returns every attempt, most recent first.
func (s *Store) LoadAll(ctx context.Context) ([]model.CompletedAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_title, quiz_title, date, score, status, correct, total, completed_at
		 FROM attempts ORDER BY seq DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.CompletedAttempt
	for rows.Next() {
		var a model.CompletedAttempt
		if err := rows.Scan(&a.ID, &a.CourseTitle, &a.QuizTitle, &a.Date, &a.Score, &a.Status, &a.Correct, &a.Total, &a.CompletedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// AttemptCount returns the number of recorded attempts.
func (s *Store) AttemptCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts`).Scan(&count)
	return count, err
}
