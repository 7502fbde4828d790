package auth

import (
	"context"
	"slices"

	"github.com/hongminglow/loft-be/internal/models"
)

// SessionCookieName is the cookie holding the opaque session token.
const SessionCookieName = "auth-token"

// Reason explains why a request was not authorized.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Decision is the outcome of a role check: either an authorized session or a reason.
type Decision struct {
	Session SessionInfo
	Reason  Reason
}

// Authorized reports whether the decision allows the request.
func (d Decision) Authorized() bool {
	return d.Reason == ""
}

// Authorize checks an already resolved session against roles. An empty role set admits
// any authenticated user.
func Authorize(session SessionInfo, ok bool, roles ...models.Role) Decision {
	if !ok {
		return Decision{Reason: ReasonUnauthenticated}
	}
	if len(roles) > 0 && !slices.Contains(roles, session.User.Role) {
		return Decision{Reason: ReasonForbidden}
	}
	return Decision{Session: session}
}

// RequireAuth resolves token and admits any authenticated user.
func (s *Service) RequireAuth(ctx context.Context, token string) (Decision, error) {
	return s.RequireRole(ctx, token)
}

// RequireRole resolves token and admits users whose role is in roles.
func (s *Service) RequireRole(ctx context.Context, token string, roles ...models.Role) (Decision, error) {
	session, ok, err := s.GetSession(ctx, token)
	if err != nil {
		return Decision{}, err
	}
	return Authorize(session, ok, roles...), nil
}

type sessionKey struct{}

// WithSession stores an authenticated session in ctx.
func WithSession(ctx context.Context, session SessionInfo) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the session placed by WithSession.
func SessionFromContext(ctx context.Context) (SessionInfo, bool) {
	session, ok := ctx.Value(sessionKey{}).(SessionInfo)
	return session, ok
}
