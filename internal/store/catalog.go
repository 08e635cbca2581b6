package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/luminalearn/lumina/internal/model"
)

// ErrNotFound is returned when a referenced course, module or item does not exist.
var ErrNotFound = errors.New("not found")

// CreateCourse inserts a course with its modules and items. Missing IDs are
// generated and the stored course is returned.
func (s *Store) CreateCourse(ctx context.Context, c model.Course) (model.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return c, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO courses (id, title, instructor, category, thumbnail) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Instructor, c.Category, c.Thumbnail,
	)
	if err != nil {
		return c, fmt.Errorf("insert course: %w", err)
	}

	for i := range c.Modules {
		m := &c.Modules[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.CourseID = c.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO modules (id, course_id, title) VALUES (?, ?, ?)`,
			m.ID, c.ID, m.Title,
		); err != nil {
			return c, fmt.Errorf("insert module %q: %w", m.Title, err)
		}
		for j := range m.Items {
			it := &m.Items[j]
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			it.ModuleID = m.ID
			if err := insertItem(ctx, tx, *it); err != nil {
				return c, fmt.Errorf("insert item %q: %w", it.Title, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return c, err
	}
	slog.Info("created course", "id", c.ID, "title", c.Title, "modules", len(c.Modules))
	return c, nil
}

func insertItem(ctx context.Context, tx *sql.Tx, it model.Item) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO items (id, module_id, type, title, content, duration, completed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.ModuleID, it.Type, it.Title, it.Content, it.Duration, it.Completed,
	)
	return err
}

// ListCourses returns all courses with their modules and items.
func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, instructor, category, thumbnail FROM courses ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Instructor, &c.Category, &c.Thumbnail); err != nil {
			rows.Close()
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range courses {
		if courses[i].Modules, err = s.listModules(ctx, courses[i].ID); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// GetCourse returns a course with its modules and items, or nil if missing.
func (s *Store) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, instructor, category, thumbnail FROM courses WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.Instructor, &c.Category, &c.Thumbnail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Modules, err = s.listModules(ctx, c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) listModules(ctx context.Context, courseID string) ([]model.Module, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, title FROM modules WHERE course_id = ? ORDER BY rowid`, courseID,
	)
	if err != nil {
		return nil, err
	}
	modules := []model.Module{}
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title); err != nil {
			rows.Close()
			return nil, err
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range modules {
		if modules[i].Items, err = s.listItems(ctx, modules[i].ID); err != nil {
			return nil, err
		}
	}
	return modules, nil
}

func (s *Store) listItems(ctx context.Context, moduleID string) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, module_id, type, title, content, duration, completed FROM items WHERE module_id = ? ORDER BY rowid`, moduleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.ModuleID, &it.Type, &it.Title, &it.Content, &it.Duration, &it.Completed); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddModule appends an empty module to a course.
func (s *Store) AddModule(ctx context.Context, courseID, title string) (model.Module, error) {
	m := model.Module{ID: uuid.NewString(), CourseID: courseID, Title: title, Items: []model.Item{}}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses WHERE id = ?`, courseID).Scan(&exists)
	if err != nil {
		return m, err
	}
	if exists == 0 {
		return m, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO modules (id, course_id, title) VALUES (?, ?, ?)`, m.ID, courseID, title,
	); err != nil {
		return m, fmt.Errorf("insert module: %w", err)
	}
	return m, nil
}

// AddItem appends an item to a module.
func (s *Store) AddItem(ctx context.Context, moduleID string, it model.Item) (model.Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.ModuleID = moduleID
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return it, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM modules WHERE id = ?`, moduleID).Scan(&exists); err != nil {
		return it, err
	}
	if exists == 0 {
		return it, fmt.Errorf("module %s: %w", moduleID, ErrNotFound)
	}
	if err := insertItem(ctx, tx, it); err != nil {
		return it, fmt.Errorf("insert item: %w", err)
	}
	return it, tx.Commit()
}

// ToggleItemComplete flips the completed flag on an item and returns the new value.
func (s *Store) ToggleItemComplete(ctx context.Context, itemID string) (bool, error) {
	var completed bool
	err := s.db.QueryRowContext(ctx,
		`UPDATE items SET completed = NOT completed WHERE id = ? RETURNING completed`, itemID,
	).Scan(&completed)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	return completed, err
}

// CourseIDForItem returns the course an item belongs to, or "" if the item is unknown.
func (s *Store) CourseIDForItem(ctx context.Context, itemID string) (string, error) {
	var courseID string
	err := s.db.QueryRowContext(ctx,
		`SELECT m.course_id FROM items i JOIN modules m ON m.id = i.module_id WHERE i.id = ?`, itemID,
	).Scan(&courseID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return courseID, err
}

// CourseCount returns the number of courses.
func (s *Store) CourseCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count)
	return count, err
}
