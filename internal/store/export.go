package store

import (
	"context"
	"fmt"
	"time"

	"github.com/luminalearn/lumina/internal/model"
)

// ExportHistory builds an export-ready snapshot of the attempt history.
func (s *Store) ExportHistory(ctx context.Context, now time.Time) (model.HistoryExport, error) {
	attempts, err := s.LoadAll(ctx)
	if err != nil {
		return model.HistoryExport{}, fmt.Errorf("load attempts: %w", err)
	}

	export := model.HistoryExport{
		ExportedAt: now,
		Attempts:   attempts,
	}
	for _, a := range attempts {
		export.Total++
		if a.Status == model.StatusPassed {
			export.Passed++
		}
	}
	if export.Attempts == nil {
		export.Attempts = []model.CompletedAttempt{}
	}
	return export, nil
}
