package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/uptaskhq/uptask-server/internal/auth"
	"github.com/uptaskhq/uptask-server/internal/model"
	"github.com/uptaskhq/uptask-server/internal/store"
)

type TeamHandler struct {
	projects *store.ProjectStore
	users    *store.UserStore
	logger   *slog.Logger
}

func NewTeamHandler(ps *store.ProjectStore, us *store.UserStore, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{projects: ps, users: us, logger: logger}
}

func (h *TeamHandler) getProject(w http.ResponseWriter, r *http.Request, accountID int64) *model.Project {
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

// FindMember looks up an account by email so the client can show who would be
// added. Only the id/name/email projection is returned.
func (h *TeamHandler) FindMember(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if h.getProject(w, r, me.ID) == nil {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validEmail(strings.TrimSpace(req.Email)) {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	profile, err := h.users.FindProfileByEmail(req.Email)
	if err != nil {
		h.logger.Error("find member", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *TeamHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	project := h.getProject(w, r, me.ID)
	if project == nil {
		return
	}

	team, err := h.projects.ListTeam(project.ID)
	if err != nil {
		h.logger.Error("list team", "project", project.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if team == nil {
		team = []model.Profile{}
	}
	writeJSON(w, http.StatusOK, team)
}

type memberRequest struct {
	ID int64 `json:"id"`
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
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

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByID(req.ID)
	if err != nil {
		h.logger.Error("add member lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	// The manager already has full access and must not also be a member.
	if project.ManagedBy(user.ID) {
		writeError(w, http.StatusConflict, "the manager cannot be added to the team")
		return
	}

	member, err := h.projects.IsMember(project.ID, user.ID)
	if err != nil {
		h.logger.Error("check member", "project", project.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if member {
		writeError(w, http.StatusConflict, "user is already on the team")
		return
	}

	if err := h.projects.AddMember(project.ID, user.ID); err != nil {
		h.logger.Error("add member", "project", project.ID, "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeText(w, "User added to the team")
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
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

	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	removed, err := h.projects.RemoveMember(project.ID, userID)
	if err != nil {
		h.logger.Error("remove member", "project", project.ID, "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !removed {
		writeError(w, http.StatusConflict, "user is not on the team")
		return
	}

	writeText(w, "User removed from the team")
}
