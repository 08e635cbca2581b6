package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

var errNoTutor = errors.New("no language model configured")

type askRequest struct {
	Question string `json:"question"`
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if h.tutor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errNoTutor.Error()})
		return
	}
	itemID := chi.URLParam(r, "itemID")
	lesson, err := h.lessonFor(r.Context(), "", itemID)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.tutor.Summarize(r.Context(), lesson.Context())
	if err != nil {
		slog.Error("summary failed", "item", itemID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	if h.tutor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errNoTutor.Error()})
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, badRequest("question cannot be empty"))
		return
	}

	lesson, err := h.lessonFor(r.Context(), "", itemID)
	if err != nil {
		writeError(w, err)
		return
	}

	answer, err := h.tutor.AskTutor(r.Context(), question, lesson.Context())
	if err != nil {
		slog.Error("tutor failed", "item", itemID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
