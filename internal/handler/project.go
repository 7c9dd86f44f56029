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

type ProjectHandler struct {
	projects *store.ProjectStore
	tasks    *store.TaskStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewProjectHandler(ps *store.ProjectStore, ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: ps, tasks: ts, hub: hub, logger: logger}
}

func (h *ProjectHandler) broadcast(action string, id int64) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(websocket.NewMessage("project", action, id))
}

// getProject resolves the {projectID} path segment. On failure it writes the
// response and returns nil.
func (h *ProjectHandler) getProject(w http.ResponseWriter, r *http.Request) *model.Project {
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
	if project == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return nil
	}
	return project
}

type projectRequest struct {
	ProjectName string `json:"project_name"`
	ClientName  string `json:"client_name"`
	Description string `json:"description"`
}

func (req *projectRequest) validate(w http.ResponseWriter) bool {
	req.ProjectName = strings.TrimSpace(req.ProjectName)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.Description = strings.TrimSpace(req.Description)
	if req.ProjectName == "" {
		writeError(w, http.StatusBadRequest, "project name is required")
		return false
	}
	if req.ClientName == "" {
		writeError(w, http.StatusBadRequest, "client name is required")
		return false
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return false
	}
	return true
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.validate(w) {
		return
	}

	project, err := h.projects.Create(req.ProjectName, req.ClientName, req.Description, me.ID)
	if err != nil {
		h.logger.Error("create project", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("created", project.ID)
	writeText(w, "Project created")
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	projects, err := h.projects.ListForUser(me.ID)
	if err != nil {
		h.logger.Error("list projects", "user", me.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r)
	if project == nil {
		return
	}
	// Outsiders learn nothing, not even that the project exists.
	if !project.VisibleTo(me.ID) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	tasks, err := h.tasks.ListByProject(project.ID)
	if err != nil {
		h.logger.Error("list project tasks", "project", project.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	project.Tasks = tasks

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r)
	if project == nil {
		return
	}
	if !project.VisibleTo(me.ID) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if !project.ManagedBy(me.ID) {
		writeError(w, http.StatusForbidden, "action not permitted")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.validate(w) {
		return
	}

	if _, err := h.projects.Update(project.ID, req.ProjectName, req.ClientName, req.Description); err != nil {
		h.logger.Error("update project", "project", project.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("updated", project.ID)
	writeText(w, "Project updated")
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r)
	if project == nil {
		return
	}
	if !project.VisibleTo(me.ID) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if !project.ManagedBy(me.ID) {
		writeError(w, http.StatusForbidden, "action not permitted")
		return
	}

	if err := h.projects.Delete(project.ID); err != nil {
		h.logger.Error("delete project", "project", project.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.broadcast("deleted", project.ID)
	writeText(w, "Project deleted")
}
