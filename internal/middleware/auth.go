package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "session"

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

type AuthMiddleware struct {
	store sessions.Store
}

func NewAuthMiddleware(store sessions.Store) *AuthMiddleware {
	return &AuthMiddleware{
		store: store,
	}
}

// RequireAuth rejects requests without a signed-in session and stores the user
// ID and role on the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, role, ok := m.sessionUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, roleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, _ := r.Context().Value(roleKey).(string); role != "admin" {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) sessionUser(r *http.Request) (string, string, bool) {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return "", "", false
	}

	auth, ok := session.Values["authenticated"].(bool)
	if !ok || !auth {
		return "", "", false
	}

	userID, ok := session.Values["user_id"].(string)
	if !ok || userID == "" {
		return "", "", false
	}

	role, _ := session.Values["role"].(string)
	return userID, role, true
}

// UserID returns the user set by RequireAuth.
func UserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func (m *AuthMiddleware) SetUserSession(w http.ResponseWriter, r *http.Request, userID, role string) error {
	session, err := m.store.Get(r, sessionName)
	if err != nil && session == nil {
		return err
	}

	session.Values["authenticated"] = true
	session.Values["user_id"] = userID
	session.Values["role"] = role

	return session.Save(r, w)
}

func (m *AuthMiddleware) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session, err := m.store.Get(r, sessionName)
	if err != nil && session == nil {
		return err
	}

	session.Values["authenticated"] = false
	delete(session.Values, "user_id")
	delete(session.Values, "role")
	session.Options.MaxAge = -1

	return session.Save(r, w)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
