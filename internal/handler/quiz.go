package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/luminalearn/lumina/internal/i18n"
	"github.com/luminalearn/lumina/internal/quiz"
)

type quizResponse struct {
	quiz.Snapshot
	Notice  string `json:"notice,omitempty"`
	Verdict string `json:"verdict,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func newQuizResponse(r *http.Request, snap quiz.Snapshot) quizResponse {
	resp := quizResponse{Snapshot: snap}
	if snap.Fallback && snap.Phase != quiz.PhaseNotStarted {
		resp.Notice = i18n.T(r.Context(), "FallbackNotice")
	}
	if snap.Result != nil {
		resp.Verdict = i18n.Status(r.Context(), snap.Result.Outcome.Status)
	}
	return resp
}

type startRequest struct {
	CourseID string `json:"course_id"`
	ItemID   string `json:"item_id"`
}

type selectRequest struct {
	Option *int `json:"option"`
}

func (h *Handler) handleQuizState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newQuizResponse(r, h.machine.Snapshot()))
}

func (h *Handler) handleQuizStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		writeError(w, badRequest("item_id is required"))
		return
	}

	lesson, err := h.lessonFor(r.Context(), req.CourseID, req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.machine.Start(r.Context(), lesson)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizResponse(r, snap))
}

func (h *Handler) handleQuizSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Option == nil {
		writeError(w, badRequest("option is required"))
		return
	}

	snap, err := h.machine.SelectAnswer(*req.Option)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizResponse(r, snap))
}

func (h *Handler) handleQuizAdvance(w http.ResponseWriter, r *http.Request) {
	snap, err := h.machine.Advance(r.Context())
	if err != nil {
		// A failed history write still finishes the attempt.
		if errors.Is(err, quiz.ErrRecordAttempt) && snap.Result != nil {
			slog.Warn("attempt finished but not recorded", "error", err)
			resp := newQuizResponse(r, snap)
			resp.Warning = err.Error()
			writeJSON(w, http.StatusOK, resp)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizResponse(r, snap))
}

func (h *Handler) handleQuizReset(w http.ResponseWriter, r *http.Request) {
	h.machine.Reset()
	writeJSON(w, http.StatusOK, newQuizResponse(r, h.machine.Snapshot()))
}
