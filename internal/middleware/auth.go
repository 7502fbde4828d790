package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/auth"
	"github.com/hongminglow/loft-be/internal/http/respond"
	"github.com/hongminglow/loft-be/internal/logger"
	"github.com/hongminglow/loft-be/internal/models"
)

// SessionResolver looks up an opaque session token.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (auth.SessionInfo, bool, error)
}

// BearerParser extracts the session token wrapped in a bearer JWT.
type BearerParser interface {
	Parse(raw string) (string, error)
}

// Session resolves the session cookie or bearer token and stores the session in the context.
// Requests without a valid session pass through unauthenticated; RequireRole decides. A lookup
// failure is logged and treated the same way, so public routes keep working.
func Session(sessions SessionResolver, bearer BearerParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, token := range sessionTokens(r, bearer) {
				info, ok, err := sessions.GetSession(r.Context(), token)
				if err != nil {
					logger.FromContext(r.Context()).Error("session lookup failed", zap.Error(err))
					break
				}
				if ok {
					ctx := auth.WithSession(r.Context(), info)
					ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", info.User.ID.String())))
					r = r.WithContext(ctx)
					break
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionToken returns the raw session token from the cookie, or from a bearer JWT.
func SessionToken(r *http.Request, bearer BearerParser) string {
	if tokens := sessionTokens(r, bearer); len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}

// sessionTokens lists candidate tokens in lookup order: cookie first, then bearer.
func sessionTokens(r *http.Request, bearer BearerParser) []string {
	var tokens []string
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || bearer == nil {
		return tokens
	}
	sid, err := bearer.Parse(strings.TrimSpace(raw))
	if err != nil {
		logger.FromContext(r.Context()).Debug("bearer token rejected", zap.Error(err))
		return tokens
	}
	if len(tokens) == 0 || tokens[0] != sid {
		tokens = append(tokens, sid)
	}
	return tokens
}

// RequireRole admits requests whose session role is in roles; no roles means any session.
// Browsers asking for HTML are redirected, API clients get 401 or 403.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := auth.SessionFromContext(r.Context())
			decision := auth.Authorize(session, ok, roles...)
			if decision.Authorized() {
				next.ServeHTTP(w, r)
				return
			}
			deny(w, r, decision.Reason)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, reason auth.Reason) {
	html := strings.Contains(r.Header.Get("Accept"), "text/html")
	switch reason {
	case auth.ReasonForbidden:
		if html {
			http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
			return
		}
		respond.Error(w, http.StatusForbidden, "insufficient role")
	default:
		if html {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	}
}
