package handler

import (
	"errors"
	"net/http"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/middleware"
	"subscriber-journey/internal/service"

	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	authService    *service.AuthService
	authMiddleware *middleware.AuthMiddleware
}

func NewAuthHandler(authService *service.AuthService, authMiddleware *middleware.AuthMiddleware) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		authMiddleware: authMiddleware,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	writeSuccess(w, http.StatusCreated, "Account created successfully!", user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().Str("email", req.Email).Err(err).Msg("Login failed")
		writeError(w, r, err)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	writeSuccess(w, http.StatusOK, "Logged in successfully!", user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *domain.User) bool {
	if err := h.authMiddleware.SetUserSession(w, r, user.ID, string(user.Role)); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to set session")
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		return false
	}
	return true
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authMiddleware.ClearSession(w, r); err != nil {
		log.Error().Err(err).Msg("Error clearing session")
	}
	writeSuccess(w, http.StatusOK, "Logged out successfully!", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.authService)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, "", user)
}

type passwordResetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Password reset code sent to your email!", nil)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Password reset successfully!", nil)
}

// currentUser loads the signed-in user. A session whose user no longer exists
// is treated as signed out.
func currentUser(w http.ResponseWriter, r *http.Request, auth *service.AuthService) (*domain.User, bool) {
	userID, ok := middleware.UserID(r)
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	user, err := auth.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
			return nil, false
		}
		writeError(w, r, err)
		return nil, false
	}
	return user, true
}
