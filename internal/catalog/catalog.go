// Package catalog derives course progress and lesson context and seeds the
// catalog from JSON files.
package catalog

import (
	"math"

	"github.com/luminalearn/lumina/internal/model"
)

// Progress returns the percentage of completed items in a course, rounded
// to the nearest integer. An empty course has no progress.
func Progress(c model.Course) int {
	var total, done int
	for _, m := range c.Modules {
		for _, it := range m.Items {
			total++
			if it.Completed {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// FindItem locates an item anywhere in the course.
func FindItem(c model.Course, itemID string) (model.Item, bool) {
	for _, m := range c.Modules {
		for _, it := range m.Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return model.Item{}, false
}

// Lesson builds the quiz acquisition input for an item of the course.
func Lesson(c model.Course, itemID string) (model.Lesson, bool) {
	it, ok := FindItem(c, itemID)
	if !ok {
		return model.Lesson{}, false
	}
	return model.Lesson{CourseTitle: c.Title, Title: it.Title, Content: it.Content}, true
}
