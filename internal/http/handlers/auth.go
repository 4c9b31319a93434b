package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/user"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/security"
	"github.com/gin-gonic/gin"
)

const invalidCredentials = "Invalid email or password"

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	users    UserStore
	sessions SessionStarter
	prom     *observability.Prom
	log      *slog.Logger

	cookieName string
	secure     bool
}

func NewAuthHandler(users UserStore, sessions SessionStarter, prom *observability.Prom, log *slog.Logger, cfg config.Config) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	cookieName := cfg.Session.CookieName
	if cookieName == "" {
		cookieName = "session_id"
	}

	return &AuthHandler{
		users:      users,
		sessions:   sessions,
		prom:       prom,
		log:        log,
		cookieName: cookieName,
		secure:     cfg.Env == "prod",
	}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.users.Create(cctx, req)
	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not create user")
		return
	}

	if !h.startSession(ctx, u.ID) {
		return
	}

	ctx.JSON(http.StatusCreated, u.View())
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil && !errors.Is(err, user.ErrNotFound) {
		h.log.ErrorContext(cctx, "login_lookup_failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	if err != nil {
		// Spend the same bcrypt work as a real check so response time does
		// not reveal whether the email exists.
		security.VerifyPassword(req.Password, decoyHash())
		h.prom.ObserveLogin("failure")
		RespondUnAuthorized(ctx, invalidCredentials)
		return
	}

	if !security.VerifyPassword(req.Password, found.PasswordHash) {
		h.prom.ObserveLogin("failure")
		RespondUnAuthorized(ctx, invalidCredentials)
		return
	}

	if !h.startSession(ctx, found.ID) {
		return
	}

	h.prom.ObserveLogin("success")
	ctx.JSON(http.StatusOK, found.View())
}

// Logout always succeeds, with or without a live session.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if token, ok := middlewares.TokenFromContext(ctx); ok {
		if err := h.sessions.End(ctx.Request.Context(), token); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "session_end_failed", "err", err)
		}
	}

	h.clearSessionCookie(ctx)
	respondMessage(ctx, http.StatusOK, "Logged out successfully")
}

// Me returns the user behind the current session.
func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if errors.Is(err, user.ErrNotFound) {
		// The account went away underneath a live session.
		if token, ok := middlewares.TokenFromContext(ctx); ok {
			_ = h.sessions.End(ctx.Request.Context(), token)
		}
		h.clearSessionCookie(ctx)
		RespondUnAuthorized(ctx, "Authentication required")
		return
	}

	if err != nil {
		respondStoreError(ctx, h.log, err, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u.View())
}

// startSession replaces any session the client already holds with a fresh
// one for userID and sets the cookie. It writes the error response itself.
func (h *AuthHandler) startSession(ctx *gin.Context, userID int64) bool {
	if old, ok := middlewares.TokenFromContext(ctx); ok {
		if err := h.sessions.End(ctx.Request.Context(), old); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "session_end_failed", "err", err)
		}
	}

	token, expiresAt, err := h.sessions.Start(ctx.Request.Context(), userID)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "session_start_failed", "err", err, "user_id", userID)
		RespondInternal(ctx, "Could not create session")
		return false
	}

	ctx.Set(middlewares.CtxUserID, userID)
	h.setSessionCookie(ctx, token, expiresAt)
	return true
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		h.cookieName,
		raw,
		maxAge,
		"/",
		"",
		h.secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		h.cookieName,
		"",
		-1,
		"/",
		"",
		h.secure,
		true,
	)
}

var (
	decoyOnce sync.Once
	decoy     string
)

func decoyHash() string {
	decoyOnce.Do(func() {
		decoy, _ = security.HashPassword("decoy-password-never-matches")
	})
	return decoy
}
