package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/uptaskhq/uptask-server/internal/auth"
	"github.com/uptaskhq/uptask-server/internal/email"
	"github.com/uptaskhq/uptask-server/internal/handler"
	"github.com/uptaskhq/uptask-server/internal/middleware"
	"github.com/uptaskhq/uptask-server/internal/store"
	ws "github.com/uptaskhq/uptask-server/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	authH       *handler.AuthHandler
	projectH    *handler.ProjectHandler
	taskH       *handler.TaskHandler
	teamH       *handler.TeamHandler
	noteH       *handler.NoteHandler
	userStore   *store.UserStore
	tokenStore  *store.TokenStore
	issuer      *auth.Issuer
	rateLimiter *middleware.RateLimiter
	origins     []string
	logger      *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, issuer *auth.Issuer, originPatterns []string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	tokenStore := store.NewTokenStore(db)
	projectStore := store.NewProjectStore(db)
	taskStore := store.NewTaskStore(db)
	noteStore := store.NewNoteStore(db)

	return &Server{
		db:          db,
		hub:         hub,
		authH:       handler.NewAuthHandler(userStore, tokenStore, issuer, emailClient, logger.With("component", "auth")),
		projectH:    handler.NewProjectHandler(projectStore, taskStore, hub, logger.With("component", "project")),
		taskH:       handler.NewTaskHandler(projectStore, taskStore, hub, logger.With("component", "task")),
		teamH:       handler.NewTeamHandler(projectStore, userStore, logger.With("component", "team")),
		noteH:       handler.NewNoteHandler(projectStore, taskStore, noteStore, hub, logger.With("component", "note")),
		userStore:   userStore,
		tokenStore:  tokenStore,
		issuer:      issuer,
		rateLimiter: middleware.NewRateLimiter(),
		origins:     originPatterns,
		logger:      logger,
	}
}

// TokenStore returns the token store for cleanup tasks.
func (s *Server) TokenStore() *store.TokenStore {
	return s.tokenStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the board-sync hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// The credential check cannot wrap a whole subtree: /api/auth mixes
	// anonymous and credentialed routes, so it is applied per route.
	protect := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(s.issuer, s.userStore)(h)
	}

	// Anonymous auth routes, rate limited per client IP.
	mux.HandleFunc("POST /api/auth/create-account", s.rateLimitedHandler(s.authH.CreateAccount))
	mux.HandleFunc("POST /api/auth/confirm-account", s.rateLimitedHandler(s.authH.ConfirmAccount))
	mux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("POST /api/auth/request-code", s.rateLimitedHandler(s.authH.RequestCode))
	mux.HandleFunc("POST /api/auth/recovery-password", s.rateLimitedHandler(s.authH.RecoveryPassword))
	mux.HandleFunc("POST /api/auth/validate-token", s.rateLimitedHandler(s.authH.ValidateToken))
	mux.HandleFunc("POST /api/auth/update-password/{token}", s.rateLimitedHandler(s.authH.UpdatePasswordWithToken))

	// Credentialed auth routes.
	mux.Handle("GET /api/auth/user", protect(s.authH.User))
	mux.Handle("PUT /api/auth/profile", protect(s.authH.UpdateProfile))
	mux.Handle("POST /api/auth/update-password", protect(s.authH.UpdateCurrentPassword))
	mux.Handle("POST /api/auth/check-password", protect(s.authH.CheckPassword))

	// Project routes.
	mux.Handle("POST /api/projects", protect(s.projectH.Create))
	mux.Handle("GET /api/projects", protect(s.projectH.List))
	mux.Handle("GET /api/projects/{projectID}", protect(s.projectH.Get))
	mux.Handle("PUT /api/projects/{projectID}", protect(s.projectH.Update))
	mux.Handle("DELETE /api/projects/{projectID}", protect(s.projectH.Delete))

	// Task routes.
	mux.Handle("POST /api/projects/{projectID}/tasks", protect(s.taskH.Create))
	mux.Handle("GET /api/projects/{projectID}/tasks", protect(s.taskH.List))
	mux.Handle("GET /api/projects/{projectID}/tasks/{taskID}", protect(s.taskH.Get))
	mux.Handle("PUT /api/projects/{projectID}/tasks/{taskID}", protect(s.taskH.Update))
	mux.Handle("DELETE /api/projects/{projectID}/tasks/{taskID}", protect(s.taskH.Delete))
	mux.Handle("POST /api/projects/{projectID}/tasks/{taskID}/status", protect(s.taskH.UpdateStatus))

	// Team routes.
	mux.Handle("POST /api/projects/{projectID}/team/find", protect(s.teamH.FindMember))
	mux.Handle("GET /api/projects/{projectID}/team", protect(s.teamH.ListTeam))
	mux.Handle("POST /api/projects/{projectID}/team", protect(s.teamH.AddMember))
	mux.Handle("DELETE /api/projects/{projectID}/team/{userID}", protect(s.teamH.RemoveMember))

	// Note routes.
	mux.Handle("POST /api/projects/{projectID}/tasks/{taskID}/notes", protect(s.noteH.Create))
	mux.Handle("GET /api/projects/{projectID}/tasks/{taskID}/notes", protect(s.noteH.List))
	mux.Handle("DELETE /api/projects/{projectID}/tasks/{taskID}/notes/{noteID}", protect(s.noteH.Delete))

	// WebSocket board sync.
	mux.Handle("GET /ws", protect(ws.Handler(s.hub, s.origins, s.logger.With("component", "websocket"))))

	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
