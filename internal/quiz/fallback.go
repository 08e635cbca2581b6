package quiz

import "github.com/luminalearn/lumina/internal/model"

// FallbackQuiz is the single-question quiz used whenever acquisition fails
// or returns unusable data.
func FallbackQuiz(lessonTitle string) model.Quiz {
	return model.Quiz{
		Title: lessonTitle,
		Questions: []model.QuizQuestion{{
			Question: "What is the best way to make sure you understood this lesson?",
			Options: []string{
				"Skip ahead to the next module",
				"Review the material and practice the key ideas",
				"Memorize the lesson title",
				"Wait for the final exam",
			},
			CorrectAnswer: 1,
			Explanation:   "Reviewing the material and applying it in practice is the most reliable way to retain what you learned.",
		}},
	}
}
