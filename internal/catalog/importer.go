package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/luminalearn/lumina/internal/model"
)

// Store is the persistence the importer needs.
type Store interface {
	GetImportedFileHash(ctx context.Context, path string) (string, error)
	SetImportedFileHash(ctx context.Context, path, hash string) error
	CreateCourse(ctx context.Context, c model.Course) (model.Course, error)
}

// ImportFiles loads catalog files into the store. Files already imported
// with the same content are skipped; files that changed since their import
// are skipped with a warning so existing progress is not duplicated.
// It returns the number of courses created.
func ImportFiles(ctx context.Context, s Store, paths []string) (int, error) {
	created := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return created, fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := s.GetImportedFileHash(ctx, path)
		if err != nil {
			return created, fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("catalog file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("catalog file changed since last import, skipping to avoid duplicating courses",
				"path", path)
			continue
		}

		var imp model.CatalogImport
		if err := json.Unmarshal(data, &imp); err != nil {
			return created, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, c := range imp.Courses {
			if err := ValidateCourse(c); err != nil {
				return created, fmt.Errorf("course %q in %s: %w", c.Title, path, err)
			}
		}
		for _, c := range imp.Courses {
			if _, err := s.CreateCourse(ctx, c); err != nil {
				return created, fmt.Errorf("insert course from %s: %w", path, err)
			}
			created++
		}

		if err := s.SetImportedFileHash(ctx, path, hash); err != nil {
			return created, fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported catalog", "path", path, "courses", len(imp.Courses))
	}
	return created, nil
}

// ValidateCourse checks the fields required to publish a course.
func ValidateCourse(c model.Course) error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("course title is required")
	}
	for _, m := range c.Modules {
		if strings.TrimSpace(m.Title) == "" {
			return errors.New("module title is required")
		}
		for _, it := range m.Items {
			if err := ValidateItem(it); err != nil {
				return fmt.Errorf("module %q: %w", m.Title, err)
			}
		}
	}
	return nil
}

// ValidateItem checks the fields required to publish an item.
func ValidateItem(it model.Item) error {
	if strings.TrimSpace(it.Title) == "" {
		return errors.New("item title is required")
	}
	if strings.TrimSpace(it.Content) == "" {
		return fmt.Errorf("item %q: content is required", it.Title)
	}
	if !it.Type.Valid() {
		return fmt.Errorf("item %q: unknown type %q", it.Title, it.Type)
	}
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
