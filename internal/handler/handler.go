package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/luminalearn/lumina/internal/catalog"
	"github.com/luminalearn/lumina/internal/model"
	"github.com/luminalearn/lumina/internal/quiz"
	"github.com/luminalearn/lumina/internal/store"
)

// Tutor answers free-form lesson requests. *llm.Client implements it.
type Tutor interface {
	Summarize(ctx context.Context, content string) (string, error)
	AskTutor(ctx context.Context, question, lessonContext string) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	tutor   Tutor
	machine *quiz.Machine
}

// New creates a new Handler. The machine is the single quiz session served
// by this process; tutor may be nil when no model is configured.
func New(s *store.Store, t Tutor, m *quiz.Machine) *Handler {
	return &Handler{store: s, tutor: t, machine: m}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/courses", h.handleListCourses)
		r.Get("/courses/{courseID}", h.handleGetCourse)
		r.Post("/courses/{courseID}/modules", h.handleAddModule)
		r.Post("/modules/{moduleID}/items", h.handleAddItem)

		r.Post("/items/{itemID}/complete", h.handleToggleComplete)
		r.Post("/items/{itemID}/summary", h.handleSummary)
		r.Post("/items/{itemID}/ask", h.handleAsk)

		r.Get("/quiz", h.handleQuizState)
		r.Post("/quiz/start", h.handleQuizStart)
		r.Post("/quiz/select", h.handleQuizSelect)
		r.Post("/quiz/advance", h.handleQuizAdvance)
		r.Post("/quiz/reset", h.handleQuizReset)

		r.Get("/attempts", h.handleListAttempts)
		r.Get("/attempts/export", h.handleExportAttempts)
	})
}

type courseResponse struct {
	model.Course
	Progress int `json:"progress"`
}

func newCourseResponse(c model.Course) courseResponse {
	return courseResponse{Course: c, Progress: catalog.Progress(c)}
}

func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		resp = append(resp, newCourseResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "courseID")
	c, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if c == nil {
		writeError(w, fmt.Errorf("course %s: %w", id, store.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, newCourseResponse(*c))
}

func (h *Handler) handleToggleComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemID")
	completed, err := h.store.ToggleItemComplete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Debug("item completion toggled", "item", id, "completed", completed)
	writeJSON(w, http.StatusOK, map[string]any{"item_id": id, "completed": completed})
}

func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.machine.History().LoadAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if attempts == nil {
		attempts = []model.CompletedAttempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *Handler) handleExportAttempts(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportHistory(r.Context(), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="attempts.json"`)
	writeJSON(w, http.StatusOK, export)
}

// lessonFor resolves an item ID into its course and lesson.
func (h *Handler) lessonFor(ctx context.Context, courseID, itemID string) (model.Lesson, error) {
	if courseID == "" {
		id, err := h.store.CourseIDForItem(ctx, itemID)
		if err != nil {
			return model.Lesson{}, err
		}
		courseID = id
	}
	if courseID == "" {
		return model.Lesson{}, fmt.Errorf("item %s: %w", itemID, store.ErrNotFound)
	}
	c, err := h.store.GetCourse(ctx, courseID)
	if err != nil {
		return model.Lesson{}, err
	}
	if c == nil {
		return model.Lesson{}, fmt.Errorf("course %s: %w", courseID, store.ErrNotFound)
	}
	lesson, ok := catalog.Lesson(*c, itemID)
	if !ok {
		return model.Lesson{}, fmt.Errorf("item %s: %w", itemID, store.ErrNotFound)
	}
	return lesson, nil
}

// errBadRequest marks input validation failures.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrSessionActive),
		errors.Is(err, quiz.ErrInvalidTransition),
		errors.Is(err, quiz.ErrNoSelection),
		errors.Is(err, quiz.ErrAbandoned):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrOptionOutOfRange), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}
