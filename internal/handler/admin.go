package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/luminalearn/lumina/internal/catalog"
	"github.com/luminalearn/lumina/internal/model"
)

type addModuleRequest struct {
	Title string `json:"title"`
}

func (h *Handler) handleAddModule(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	var req addModuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, badRequest("module title is required"))
		return
	}

	m, err := h.store.AddModule(r.Context(), courseID, title)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("module added", "course", courseID, "module", m.ID, "title", title)
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")

	var it model.Item
	if err := decodeJSON(w, r, &it); err != nil {
		writeError(w, err)
		return
	}
	it.ID = ""
	it.Completed = false
	if it.Type == "" {
		it.Type = model.ItemVideo
	}
	if err := catalog.ValidateItem(it); err != nil {
		writeError(w, badRequest("%v", err))
		return
	}

	created, err := h.store.AddItem(r.Context(), moduleID, it)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("item added", "module", moduleID, "item", created.ID, "type", created.Type)
	writeJSON(w, http.StatusCreated, created)
}
