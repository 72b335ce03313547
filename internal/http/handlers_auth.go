package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"costeo/internal/auth"
	"costeo/internal/ledger"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"nombre"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nombre"`
	Plan  string `json:"plan"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"usuario"`
}

func toUserResponse(u ledger.User) userResponse {
	return userResponse{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
		Plan:  u.Plan,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	u, err := s.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			respondError(w, http.StatusUnprocessableEntity, "correo inválido")
		case errors.Is(err, auth.ErrWeakPassword):
			respondError(w, http.StatusUnprocessableEntity, "la contraseña debe tener al menos 8 caracteres")
		case errors.Is(err, auth.ErrEmailTaken):
			respondError(w, http.StatusConflict, "el correo ya está registrado")
		default:
			slog.ErrorContext(r.Context(), "Register failed", "error", err)
			respondError(w, http.StatusInternalServerError, "error interno")
		}
		return
	}

	token, err := s.auth.IssueToken(u.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token issue failed", "error", err, "user_id", u.ID)
		respondError(w, http.StatusInternalServerError, "error interno")
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", u.ID)
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(u)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "solicitud inválida")
		return
	}

	token, u, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "correo o contraseña incorrectos")
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "error interno")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(u)})
}

// requireAuth verifies the Bearer token and puts the user on the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, "se requiere autenticación")
			return
		}

		u, err := s.auth.CurrentUser(r.Context(), strings.TrimSpace(token))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "sesión inválida o expirada")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		next(w, r.WithContext(ctx))
	}
}
