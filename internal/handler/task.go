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

type TaskHandler struct {
	projects *store.ProjectStore
	tasks    *store.TaskStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewTaskHandler(ps *store.ProjectStore, ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{projects: ps, tasks: ts, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(action string, id int64) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(websocket.NewMessage("task", action, id))
}

// getProject resolves {projectID} and enforces visibility: accounts outside
// the team get a 404, never a 403. Writes the response and returns nil on
// failure.
func (h *TaskHandler) getProject(w http.ResponseWriter, r *http.Request, accountID int64) *model.Project {
	id, err := pathID(r, "projectID")
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return nil
	}
	project, err := h.projects.GetByID(id)
	if err != nil {
		h.logger.Error("get project", "project", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if project == nil || !project.VisibleTo(accountID) {
		writeError(w, http.StatusNotFound, "project not found")
		return nil
	}
	return project
}

// getTask resolves {taskID} and checks it belongs to the project. A task
// reached through the wrong project is a 404.
func (h *TaskHandler) getTask(w http.ResponseWriter, r *http.Request, project *model.Project) *model.Task {
	id, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil
	}
	task, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "task", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if task == nil || task.ProjectID != project.ID {
		writeError(w, http.StatusNotFound, "task not found")
		return nil
	}
	return task
}

type taskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (req *taskRequest) validate(w http.ResponseWriter) bool {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "task name is required")
		return false
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return false
	}
	return true
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r, me.ID)
	if project == nil {
		return
	}
	if !project.ManagedBy(me.ID) {
		writeError(w, http.StatusForbidden, "action not permitted")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.validate(w) {
		return
	}

	task, err := h.tasks.Create(project.ID, req.Name, req.Description)
	if err != nil {
		h.logger.Error("create task", "project", project.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("created", task.ID)
	writeText(w, "Task created")
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r, me.ID)
	if project == nil {
		return
	}

	tasks, err := h.tasks.ListByProject(project.ID)
	if err != nil {
		h.logger.Error("list tasks", "project", project.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r, me.ID)
	if project == nil {
		return
	}
	task := h.getTask(w, r, project)
	if task == nil {
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r, me.ID)
	if project == nil {
		return
	}
	if !project.ManagedBy(me.ID) {
		writeError(w, http.StatusForbidden, "action not permitted")
		return
	}
	task := h.getTask(w, r, project)
	if task == nil {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.validate(w) {
		return
	}

	if _, err := h.tasks.Update(task.ID, req.Name, req.Description); err != nil {
		h.logger.Error("update task", "task", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("updated", task.ID)
	writeText(w, "Task updated")
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r, me.ID)
	if project == nil {
		return
	}
	if !project.ManagedBy(me.ID) {
		writeError(w, http.StatusForbidden, "action not permitted")
		return
	}
	task := h.getTask(w, r, project)
	if task == nil {
		return
	}

	if err := h.tasks.Delete(task.ID); err != nil {
		h.logger.Error("delete task", "task", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("deleted", task.ID)
	writeText(w, "Task deleted")
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus is open to any team member, manager included. Each change is
// recorded with the acting account.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r, me.ID)
	if project == nil {
		return
	}
	task := h.getTask(w, r, project)
	if task == nil {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !model.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if _, err := h.tasks.UpdateStatus(task.ID, req.Status, me.ID); err != nil {
		h.logger.Error("update task status", "task", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("status", task.ID)
	writeText(w, "Task status updated")
}
