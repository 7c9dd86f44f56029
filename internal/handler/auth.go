package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/uptaskhq/uptask-server/internal/auth"
	"github.com/uptaskhq/uptask-server/internal/email"
	"github.com/uptaskhq/uptask-server/internal/model"
	"github.com/uptaskhq/uptask-server/internal/store"
)

const minPasswordLength = 8

// emailSendTimeout bounds the background delivery attempt, including retries.
const emailSendTimeout = 30 * time.Second

type AuthHandler struct {
	users  *store.UserStore
	tokens *store.TokenStore
	issuer *auth.Issuer
	email  *email.Client
	logger *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	ts *store.TokenStore,
	issuer *auth.Issuer,
	ec *email.Client,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:  us,
		tokens: ts,
		issuer: issuer,
		email:  ec,
		logger: logger,
	}
}

// sendConfirmation dispatches the confirmation email without holding up the
// response. Delivery failure is logged, never surfaced.
func (h *AuthHandler) sendConfirmation(u *model.User, code string) {
	if !h.email.Configured() {
		h.logger.Info("confirmation code generated", "email", u.Email, "code", code)
		return
	}
	toEmail, name := u.Email, u.Name
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()
		if err := h.email.SendConfirmation(ctx, toEmail, name, code); err != nil {
			h.logger.Error("send confirmation email", "email", toEmail, "error", err)
		}
	}()
}

func (h *AuthHandler) sendPasswordReset(u *model.User, code string) {
	if !h.email.Configured() {
		h.logger.Info("reset code generated", "email", u.Email, "code", code)
		return
	}
	toEmail, name := u.Email, u.Name
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()
		if err := h.email.SendPasswordReset(ctx, toEmail, name, code); err != nil {
			h.logger.Error("send reset email", "email", toEmail, "error", err)
		}
	}()
}

type createAccountRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// validPassword checks length and confirmation, writing the 400 itself.
// Returns false when the request is invalid.
func validPassword(w http.ResponseWriter, password, confirmation string) bool {
	if len(password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return false
	}
	if password != confirmation {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return false
	}
	return true
}

func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if !validPassword(w, req.Password, req.PasswordConfirmation) {
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("create account lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an account with that email already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.Create(req.Name, req.Email, hash)
	if err != nil {
		// The pre-check races against concurrent registration; the unique
		// index is what actually decides.
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "an account with that email already exists")
			return
		}
		h.logger.Error("create account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Best-effort: a token failure must not undo the account.
	token, err := h.tokens.Create(user.ID)
	if err != nil {
		h.logger.Error("create confirmation token", "user", user.ID, "error", err)
	} else {
		h.sendConfirmation(user, token.Code)
	}

	writeText(w, "Account created. Check your email to confirm it")
}

type tokenRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) ConfirmAccount(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !isDigits(req.Token) {
		writeError(w, http.StatusBadRequest, "invalid token")
		return
	}

	token, err := h.tokens.GetByCode(req.Token)
	if err != nil {
		h.logger.Error("confirm account lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if token == nil {
		writeError(w, http.StatusNotFound, "invalid token")
		return
	}

	if err := h.users.Confirm(token.UserID); err != nil {
		h.logger.Error("confirm account", "user", token.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Token cleanup is best-effort; the sweep catches leftovers.
	if err := h.tokens.Delete(token.ID); err != nil {
		h.logger.Error("delete confirmation token", "token", token.ID, "error", err)
	}

	writeText(w, "Account confirmed")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validEmail(strings.TrimSpace(req.Email)) || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if !user.Confirmed {
		// Side-effecting failure: issue a fresh code and resend before
		// rejecting, so the user can complete confirmation.
		token, err := h.tokens.Create(user.ID)
		if err != nil {
			h.logger.Error("create confirmation token", "user", user.ID, "error", err)
		} else {
			h.sendConfirmation(user, token.Code)
		}
		writeError(w, http.StatusUnauthorized, "account not confirmed, a confirmation email has been sent")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}

	credential, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue credential", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeText(w, credential)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validEmail(strings.TrimSpace(req.Email)) {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("request code lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user is not registered")
		return
	}
	if user.Confirmed {
		writeError(w, http.StatusNotFound, "user is already confirmed")
		return
	}

	token, err := h.tokens.Create(user.ID)
	if err != nil {
		h.logger.Error("create confirmation token", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.sendConfirmation(user, token.Code)

	writeText(w, "A new code has been sent to your email")
}

func (h *AuthHandler) RecoveryPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validEmail(strings.TrimSpace(req.Email)) {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("recovery lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user is not registered")
		return
	}

	// Reset is allowed for unconfirmed accounts too.
	token, err := h.tokens.Create(user.ID)
	if err != nil {
		h.logger.Error("create reset token", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.sendPasswordReset(user, token.Code)

	writeText(w, "Check your email and follow the instructions")
}

// ValidateToken checks a reset code without consuming it, so the client can
// gate the new-password form.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !isDigits(req.Token) {
		writeError(w, http.StatusBadRequest, "invalid token")
		return
	}

	token, err := h.tokens.GetByCode(req.Token)
	if err != nil {
		h.logger.Error("validate token lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if token == nil {
		writeError(w, http.StatusNotFound, "invalid token")
		return
	}

	writeText(w, "Valid token. Set your new password")
}

type newPasswordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UpdatePasswordWithToken completes a password reset. The code is consumed on
// success.
func (h *AuthHandler) UpdatePasswordWithToken(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("token")
	if !isDigits(code) {
		writeError(w, http.StatusBadRequest, "invalid token")
		return
	}

	var req newPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validPassword(w, req.Password, req.PasswordConfirmation) {
		return
	}

	token, err := h.tokens.GetByCode(code)
	if err != nil {
		h.logger.Error("reset token lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if token == nil {
		writeError(w, http.StatusNotFound, "invalid token")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.users.UpdatePassword(token.UserID, hash); err != nil {
		h.logger.Error("update password", "user", token.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.tokens.Delete(token.ID); err != nil {
		h.logger.Error("delete reset token", "token", token.ID, "error", err)
	}

	writeText(w, "Password updated")
}

// User returns the authenticated account's profile.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, me)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("profile lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil && existing.ID != me.ID {
		writeError(w, http.StatusConflict, "that email is already registered")
		return
	}

	if _, err := h.users.UpdateProfile(me.ID, req.Name, req.Email); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "that email is already registered")
			return
		}
		h.logger.Error("update profile", "user", me.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeText(w, "Profile updated")
}

type updatePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *AuthHandler) UpdateCurrentPassword(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validPassword(w, req.Password, req.PasswordConfirmation) {
		return
	}

	user, err := h.users.GetByID(me.ID)
	if err != nil || user == nil {
		h.logger.Error("password change lookup", "user", me.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.users.UpdatePassword(me.ID, hash); err != nil {
		h.logger.Error("update password", "user", me.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeText(w, "Password changed")
}

type passwordRequest struct {
	Password string `json:"password"`
}

// CheckPassword verifies the acting account's password with no state change.
// The client uses it to gate destructive actions like project deletion.
func (h *AuthHandler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByID(me.ID)
	if err != nil || user == nil {
		h.logger.Error("check password lookup", "user", me.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}

	writeText(w, "Password is correct")
}
