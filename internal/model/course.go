package model

import "strings"

// ItemType is the kind of content a module item holds.
type ItemType string

const (
	ItemVideo ItemType = "video"
	ItemNote  ItemType = "note"
	ItemQuiz  ItemType = "quiz"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemVideo, ItemNote, ItemQuiz:
		return true
	}
	return false
}

// Course is a catalog entry with its ordered modules.
type Course struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Instructor string   `json:"instructor"`
	Category   string   `json:"category,omitempty"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
	Modules    []Module `json:"modules"`
}

// Module groups items within a course.
type Module struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id,omitempty"`
	Title    string `json:"title"`
	Items    []Item `json:"items"`
}

// Item is a single video, note or quiz in a module.
type Item struct {
	ID        string   `json:"id"`
	ModuleID  string   `json:"module_id,omitempty"`
	Type      ItemType `json:"type"`
	Title     string   `json:"title"`
	Content   string   `json:"content"` // video URL or markdown note
	Duration  string   `json:"duration,omitempty"`
	Completed bool     `json:"completed"`
}

// Lesson is the material a quiz is generated from.
type Lesson struct {
	CourseTitle string `json:"course_title"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

// Context joins the lesson fields into the free-text generator input.
func (l Lesson) Context() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.CourseTitle, l.Title, l.Content} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
