package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/uptaskhq/uptask-server/internal/auth"
	"github.com/uptaskhq/uptask-server/internal/model"
	"github.com/uptaskhq/uptask-server/internal/store"
	"github.com/uptaskhq/uptask-server/internal/websocket"
)

type NoteHandler struct {
	projects *store.ProjectStore
	tasks    *store.TaskStore
	notes    *store.NoteStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewNoteHandler(ps *store.ProjectStore, ts *store.TaskStore, ns *store.NoteStore, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{projects: ps, tasks: ts, notes: ns, hub: hub, logger: logger}
}

func (h *NoteHandler) broadcast(action string, id int64) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(websocket.NewMessage("note", action, id))
}

// getTask resolves {projectID}/{taskID}, enforcing project visibility and
// task ownership. Writes the response and returns nil on failure.
func (h *NoteHandler) getTask(w http.ResponseWriter, r *http.Request, accountID int64) *model.Task {
	projectID, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return nil
	}
	project, err := h.projects.GetByID(projectID)
	if err != nil {
		h.logger.Error("get project", "project", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if project == nil || !project.VisibleTo(accountID) {
		writeError(w, http.StatusNotFound, "project not found")
		return nil
	}

	taskID, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil
	}
	task, err := h.tasks.GetByID(taskID)
	if err != nil {
		h.logger.Error("get task", "task", taskID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if task == nil || task.ProjectID != project.ID {
		writeError(w, http.StatusNotFound, "task not found")
		return nil
	}
	return task
}

type noteRequest struct {
	Content string `json:"content"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	task := h.getTask(w, r, me.ID)
	if task == nil {
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	note, err := h.notes.Create(task.ID, me.ID, req.Content)
	if err != nil {
		h.logger.Error("create note", "task", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("created", note.ID)
	writeText(w, "Note created")
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	task := h.getTask(w, r, me.ID)
	if task == nil {
		return
	}

	notes, err := h.notes.ListByTask(task.ID)
	if err != nil {
		h.logger.Error("list notes", "task", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if notes == nil {
		notes = []model.NoteWithAuthor{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// Delete removes a note. Only its author may do so.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	task := h.getTask(w, r, me.ID)
	if task == nil {
		return
	}

	noteID, err := pathID(r, "noteID")
	if err != nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	note, err := h.notes.GetByID(noteID)
	if err != nil {
		h.logger.Error("get note", "note", noteID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if note == nil || note.TaskID != task.ID {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if note.CreatedBy != me.ID {
		writeError(w, http.StatusUnauthorized, "action not permitted")
		return
	}

	if err := h.notes.Delete(note.ID); err != nil {
		h.logger.Error("delete note", "note", note.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("deleted", note.ID)
	writeText(w, "Note deleted")
}
