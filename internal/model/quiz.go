package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// OptionsPerQuestion is the fixed number of answer options in a quiz question.
const OptionsPerQuestion = 4

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Quiz is an ordered, non-empty list of questions.
type Quiz struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

var (
	// ErrNoQuestions is returned for a quiz without questions.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrOptionCount is returned when a question does not have exactly four options.
	ErrOptionCount = errors.New("question must have exactly 4 options")
	// ErrCorrectAnswer is returned when the correct answer index is out of range.
	ErrCorrectAnswer = errors.New("correct answer index out of range")
	// ErrEmptyQuestion is returned for a question with blank text.
	ErrEmptyQuestion = errors.New("question text is empty")
)

// Validate checks the quiz invariants.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return ErrNoQuestions
	}
	for i, qq := range q.Questions {
		if err := qq.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// Validate checks that the question is answerable.
func (qq QuizQuestion) Validate() error {
	if strings.TrimSpace(qq.Question) == "" {
		return ErrEmptyQuestion
	}
	if len(qq.Options) != OptionsPerQuestion {
		return ErrOptionCount
	}
	if qq.CorrectAnswer < 0 || qq.CorrectAnswer >= len(qq.Options) {
		return ErrCorrectAnswer
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate a quiz owned by a session.
func (q Quiz) Clone() Quiz {
	out := Quiz{Title: q.Title, Questions: make([]QuizQuestion, len(q.Questions))}
	for i, qq := range q.Questions {
		qq.Options = append([]string(nil), qq.Options...)
		out.Questions[i] = qq
	}
	return out
}

// QuizParseError describes why raw quiz data could not be turned into a Quiz.
type QuizParseError struct {
	Field string
	Err   error
}

func (e *QuizParseError) Error() string {
	if e.Field == "" {
		return "parse quiz: " + e.Err.Error()
	}
	return "parse quiz: " + e.Field + ": " + e.Err.Error()
}

func (e *QuizParseError) Unwrap() error { return e.Err }

var errMissing = errors.New("required field missing")

// rawQuiz mirrors the wire shape with pointers so missing fields can be told
// apart from zero values.
type rawQuiz struct {
	Title     *string           `json:"title"`
	Questions []rawQuizQuestion `json:"questions"`
}

type rawQuizQuestion struct {
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer"`
	Explanation   *string  `json:"explanation"`
}

// ParseQuiz decodes the generator's JSON into a validated Quiz.
func ParseQuiz(data []byte) (Quiz, error) {
	var raw rawQuiz
	if err := json.Unmarshal(data, &raw); err != nil {
		return Quiz{}, &QuizParseError{Err: err}
	}
	if raw.Title == nil {
		return Quiz{}, &QuizParseError{Field: "title", Err: errMissing}
	}
	if raw.Questions == nil {
		return Quiz{}, &QuizParseError{Field: "questions", Err: errMissing}
	}

	quiz := Quiz{Title: *raw.Title, Questions: make([]QuizQuestion, 0, len(raw.Questions))}
	for i, rq := range raw.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		switch {
		case rq.Question == nil:
			return Quiz{}, &QuizParseError{Field: field + ".question", Err: errMissing}
		case rq.Options == nil:
			return Quiz{}, &QuizParseError{Field: field + ".options", Err: errMissing}
		case rq.CorrectAnswer == nil:
			return Quiz{}, &QuizParseError{Field: field + ".correctAnswer", Err: errMissing}
		case rq.Explanation == nil:
			return Quiz{}, &QuizParseError{Field: field + ".explanation", Err: errMissing}
		}
		quiz.Questions = append(quiz.Questions, QuizQuestion{
			Question:      *rq.Question,
			Options:       rq.Options,
			CorrectAnswer: *rq.CorrectAnswer,
			Explanation:   *rq.Explanation,
		})
	}

	if err := quiz.Validate(); err != nil {
		return Quiz{}, &QuizParseError{Err: err}
	}
	return quiz, nil
}
