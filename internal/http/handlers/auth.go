package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/auth"
	"github.com/hongminglow/loft-be/internal/http/respond"
	"github.com/hongminglow/loft-be/internal/logger"
	"github.com/hongminglow/loft-be/internal/middleware"
	"github.com/hongminglow/loft-be/internal/models/dto"
)

// AuthHandler owns the session lifecycle endpoints.
type AuthHandler struct {
	svc          *auth.Service
	tokens       *auth.TokenManager
	secureCookie bool
}

// NewAuthHandler constructs the handler. secureCookie marks the session cookie Secure.
func NewAuthHandler(svc *auth.Service, tokens *auth.TokenManager, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens, secureCookie: secureCookie}
}

// Routes attaches auth routes under /api/auth.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Post("/password/forgot", h.handleForgotPassword)
		r.Post("/password/reset", h.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole())
			r.Get("/session", h.handleSession)
			r.Post("/token", h.handleToken)
		})
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := h.svc.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, r, err)
		return
	}
	h.setSessionCookie(w, info)
	respond.JSON(w, http.StatusCreated, "user registered", dto.SessionResponse{User: info.User, ExpiresAt: info.ExpiresAt})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := h.svc.Login(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, auth.ErrEmailNotVerified):
		respond.Error(w, http.StatusForbidden, "please verify your email before logging in")
		return
	case errors.Is(err, auth.ErrAccountMisconfigured):
		logger.FromContext(r.Context()).Warn("login against account without usable password")
		respond.Error(w, http.StatusInternalServerError, "account configuration error")
		return
	default:
		respondError(w, r, err)
		return
	}
	h.setSessionCookie(w, info)
	respond.JSON(w, http.StatusOK, "login successful", dto.SessionResponse{User: info.User, ExpiresAt: info.ExpiresAt})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionToken(r, h.tokens)
	if info, ok := auth.SessionFromContext(r.Context()); ok {
		token = info.Token
	}
	h.svc.Logout(r.Context(), token)
	h.clearSessionCookie(w)
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	info, _ := auth.SessionFromContext(r.Context())
	respond.JSON(w, http.StatusOK, "session active", dto.SessionResponse{User: info.User, ExpiresAt: info.ExpiresAt})
}

func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	info, _ := auth.SessionFromContext(r.Context())
	token, err := h.tokens.Generate(info)
	if err != nil {
		logger.FromContext(r.Context()).Error("sign bearer token failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "token issued", dto.TokenResponse{Token: token, TokenType: "Bearer", ExpiresAt: info.ExpiresAt})
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.svc.RequestPasswordReset(r.Context(), req.Email)
	respond.JSON(w, http.StatusOK, "if the account exists, a reset link has been sent", nil)
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "password updated", nil)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, info auth.SessionInfo) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    info.Token,
		Path:     "/",
		Expires:  info.ExpiresAt,
		MaxAge:   int(h.svc.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
