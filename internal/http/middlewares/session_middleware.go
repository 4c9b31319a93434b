package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/fintrack/internal/actorctx"
	"github.com/geocoder89/fintrack/internal/session"
	"github.com/gin-gonic/gin"
)

// SessionResolver is the part of session.Manager the middleware needs.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

type SessionMiddleware struct {
	sessions   SessionResolver
	cookieName string
}

func NewSessionMiddleware(sessions SessionResolver, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName}
}

// LoadSession attaches the caller's identity when the session cookie maps to
// a live session. Anonymous requests pass through untouched.
func (m *SessionMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(m.cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		c.Set(CtxToken, token)

		userID, err := m.sessions.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(CtxUserID, userID)
			c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), userID))
		case errors.Is(err, session.ErrNoSession):
		default:
			slog.Default().WarnContext(c.Request.Context(), "session_lookup_failed", "err", err)
		}

		c.Next()
	}
}

func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserIDFromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}
		c.Next()
	}
}

func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// TokenFromContext returns the raw session cookie value, even when it no
// longer resolves to a session.
func TokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxToken)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok && token != ""
}
