package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aerofans/apiserver/apperror"
	"github.com/aerofans/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// tokenCookie is the cookie carrying the session token.
const tokenCookie = "token"

// AuthHandler provides registration and login endpoints backed by opaque
// session tokens.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService) {
	handler := NewAuthHandler(authService)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

// RequireAuth resolves the session token cookie to a user id and injects it
// into the request context. A request without the cookie is a bad request;
// an unknown or expired token is unauthorized.
func RequireAuth(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(tokenCookie)
			if err != nil {
				writeError(w, http.StatusBadRequest, "missing token")
				return
			}

			userID, err := authService.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				writeAppError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Register creates a new user account. A taken username is a soft failure
// in the response body, not an HTTP error.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	if err := h.authService.Register(r.Context(), req.Username, req.Password); err != nil {
		if apperror.IsConflict(err) {
			writeJSON(w, http.StatusOK, StatusResponse{Status: false, Message: "username is taken"})
			return
		}
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: true, Message: "registration successful"})
}

// Login verifies credentials and hands the session token back as a cookie
// expiring with the session. Bad credentials are a soft failure with one
// generic message, whatever the cause.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if apperror.IsAuthError(err) {
			writeJSON(w, http.StatusOK, StatusResponse{Status: false, Message: "incorrect login info"})
			return
		}
		writeAppError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:    tokenCookie,
		Value:   session.Token,
		Path:    "/",
		Expires: session.ExpiresAt,
	})
	writeJSON(w, http.StatusOK, StatusResponse{Status: true, Message: "login successful"})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
